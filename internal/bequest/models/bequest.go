// Package models defines bequest assignments: one promised share or asset
// per beneficiary, with conditions and alternate routing.
package models

import (
	"strings"
	"time"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

// ShareType discriminates what a bequest promises.
type ShareType string

const (
	ShareSpecificAsset ShareType = "SPECIFIC_ASSET"
	SharePercentage    ShareType = "PERCENTAGE"
	ShareFixedAmount   ShareType = "FIXED_AMOUNT"
	ShareResiduary     ShareType = "RESIDUARY"
)

// BequestStatus tracks the assignment lifecycle.
//
// Transitions:
//
//	PLANNED → ACTIVE | REVOKED
//	ACTIVE → FULFILLED | LAPSED | DISCLAIMED | REVOKED | ADEEMED
//	(all others terminal)
type BequestStatus string

const (
	BequestPlanned    BequestStatus = "PLANNED"
	BequestActive     BequestStatus = "ACTIVE"
	BequestFulfilled  BequestStatus = "FULFILLED"
	BequestLapsed     BequestStatus = "LAPSED"
	BequestDisclaimed BequestStatus = "DISCLAIMED"
	BequestRevoked    BequestStatus = "REVOKED"
	BequestAdeemed    BequestStatus = "ADEEMED"
)

var bequestTransitions = map[BequestStatus][]BequestStatus{
	BequestPlanned:    {BequestActive, BequestRevoked},
	BequestActive:     {BequestFulfilled, BequestLapsed, BequestDisclaimed, BequestRevoked, BequestAdeemed},
	BequestFulfilled:  {},
	BequestLapsed:     {},
	BequestDisclaimed: {},
	BequestRevoked:    {},
	BequestAdeemed:    {},
}

// CanTransitionTo reports whether the edge from s to target is legal.
func (s BequestStatus) CanTransitionTo(target BequestStatus) bool {
	for _, t := range bequestTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the assignment reached a final outcome.
func (s BequestStatus) IsTerminal() bool {
	return len(bequestTransitions[s]) == 0
}

// ConditionKind names the kinds of conditions a bequest can carry.
type ConditionKind string

const (
	ConditionAgeAttainment  ConditionKind = "AGE_ATTAINMENT"
	ConditionSurvivalPeriod ConditionKind = "SURVIVAL_PERIOD"
	ConditionMarriage       ConditionKind = "MARRIAGE"
	ConditionEducation      ConditionKind = "EDUCATION"
	ConditionCustom         ConditionKind = "CUSTOM"
)

// Condition is one precondition on a bequest vesting. RequiredAge applies to
// AGE_ATTAINMENT, SurvivalDays to SURVIVAL_PERIOD.
type Condition struct {
	Kind         ConditionKind `json:"kind"`
	RequiredAge  int           `json:"required_age,omitempty"`
	SurvivalDays int           `json:"survival_days,omitempty"`
	Description  string        `json:"description,omitempty"`
}

// BequestAssignment is one promised share or asset.
//
// Invariants:
//   - Exactly the field matching ShareType is populated: AssetID for
//     SPECIFIC_ASSET, SharePercent for PERCENTAGE and RESIDUARY,
//     FixedAmount for FIXED_AMOUNT
//   - An assignment flagged alternate references exactly one primary
//   - Residuary semantics never mix with the other share types
type BequestAssignment struct {
	ID            id.BequestID      `json:"id"`
	EstateID      id.EstateID       `json:"estate_id"`
	BeneficiaryID id.PersonID       `json:"beneficiary_id"`
	ShareType     ShareType         `json:"share_type"`
	AssetID       *id.AssetID       `json:"asset_id,omitempty"`
	SharePercent  *money.Percentage `json:"share_percent,omitempty"`
	FixedAmount   *money.Money      `json:"fixed_amount,omitempty"`
	Conditions    []Condition       `json:"conditions,omitempty"`
	IsAlternate   bool              `json:"is_alternate"`
	PrimaryID     *id.BequestID     `json:"primary_id,omitempty"`
	AlternateID   *id.BequestID     `json:"alternate_id,omitempty"`
	Status        BequestStatus     `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewBequestAssignment validates and constructs a planned assignment.
func NewBequestAssignment(
	bequestID id.BequestID,
	estateID id.EstateID,
	beneficiaryID id.PersonID,
	shareType ShareType,
	now time.Time,
) (*BequestAssignment, error) {
	if bequestID.IsNil() || estateID.IsNil() || beneficiaryID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "bequest, estate and beneficiary ids are required")
	}
	switch shareType {
	case ShareSpecificAsset, SharePercentage, ShareFixedAmount, ShareResiduary:
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown share type %q", shareType)
	}
	return &BequestAssignment{
		ID:            bequestID,
		EstateID:      estateID,
		BeneficiaryID: beneficiaryID,
		ShareType:     shareType,
		Status:        BequestPlanned,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Validate checks the share-type field pairing and the alternate invariant.
// Called after the share fields are set and before the assignment enters
// the bequest graph.
func (b *BequestAssignment) Validate() error {
	switch b.ShareType {
	case ShareSpecificAsset:
		if b.AssetID == nil || b.AssetID.IsNil() {
			return dErrors.New(dErrors.CodeInvalidInput, "specific-asset bequests require an asset reference")
		}
		if b.SharePercent != nil || b.FixedAmount != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "specific-asset bequests carry no share value")
		}
	case SharePercentage:
		if b.SharePercent == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "percentage bequests require a share percentage")
		}
	case ShareFixedAmount:
		if b.FixedAmount == nil || !b.FixedAmount.IsPositive() {
			return dErrors.New(dErrors.CodeInvalidInput, "fixed-amount bequests require a positive amount")
		}
	case ShareResiduary:
		// Residuary shares carry a percentage of the residue; a sole
		// residuary takes the whole of it.
		if b.SharePercent == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "residuary bequests require a residue percentage")
		}
		if b.AssetID != nil || b.FixedAmount != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "residuary semantics cannot mix with other share types")
		}
	}
	if b.IsAlternate {
		if b.PrimaryID == nil || b.PrimaryID.IsNil() {
			return dErrors.New(dErrors.CodeInvalidInput, "alternate assignments must reference exactly one primary")
		}
	} else if b.PrimaryID != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "only alternate assignments may reference a primary")
	}
	return nil
}

// Activate moves a planned assignment to ACTIVE at death or will execution.
func (b *BequestAssignment) Activate(now time.Time) error {
	if !b.Status.CanTransitionTo(BequestActive) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"bequest cannot be activated from status %s", b.Status)
	}
	b.Status = BequestActive
	b.UpdatedAt = now
	return nil
}

// Resolve moves an active assignment to a terminal outcome, recording why.
func (b *BequestAssignment) Resolve(outcome BequestStatus, reason string, now time.Time) error {
	if !outcome.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a terminal bequest outcome", outcome)
	}
	if !b.Status.CanTransitionTo(outcome) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"bequest cannot move from %s to %s", b.Status, outcome)
	}
	if len(strings.TrimSpace(reason)) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "a reason is required to resolve a bequest")
	}
	b.Status = outcome
	b.UpdatedAt = now
	return nil
}
