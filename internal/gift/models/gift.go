package models

import (
	"strings"
	"time"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

// minReasonLength guards executor actions that need a recorded justification.
const minReasonLength = 10

// GiftLedgerEntry is one inter-vivos gift and its statutory hotchpot
// treatment.
//
// Invariants:
//   - ValueAtGiftTime currency never changes after construction
//   - HotchpotStatus only moves along the transition table in status.go
//   - A gift outside hotchpot (not subject, or customarily exempt) is
//     NOT_APPLICABLE from creation and stays there
//   - InflationAdjustedValue is set only by a hotchpot calculation and is
//     required before inclusion
//   - Entries are never deleted; Deactivate marks them inactive
type GiftLedgerEntry struct {
	ID                     id.GiftID       `json:"id"`
	EstateID               id.EstateID     `json:"estate_id"`
	RecipientID            id.PersonID     `json:"recipient_id"`
	ValueAtGiftTime        money.Money     `json:"value_at_gift_time"`
	DateOfGift             time.Time       `json:"date_of_gift"`
	Detail                 AssetDetail     `json:"detail"`
	IsSubjectToHotchpot    bool            `json:"is_subject_to_hotchpot"`
	CustomaryExemption     bool            `json:"customary_exemption"`
	HotchpotStatus         HotchpotStatus  `json:"hotchpot_status"`
	InflationAdjustedValue *money.Money    `json:"inflation_adjusted_value,omitempty"`
	ConditionStatus        ConditionStatus `json:"condition_status"`
	RevertsToEstate        bool            `json:"reverts_to_estate"`
	Active                 bool            `json:"active"`
	AuditLog               id.AuditLog     `json:"audit_log"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// NewGiftLedgerEntry records a gift. Gifts outside hotchpot start (and end)
// at NOT_APPLICABLE; everything else starts at PENDING awaiting the
// inflation calculation once the estate freezes.
func NewGiftLedgerEntry(
	giftID id.GiftID,
	estateID id.EstateID,
	recipientID id.PersonID,
	value money.Money,
	dateOfGift time.Time,
	detail AssetDetail,
	subjectToHotchpot bool,
	customaryExemption bool,
	revertsToEstate bool,
	now time.Time,
) (*GiftLedgerEntry, error) {
	if giftID.IsNil() || estateID.IsNil() || recipientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "gift, estate and recipient ids are required")
	}
	if dateOfGift.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "date of gift is required")
	}
	if err := detail.Validate(); err != nil {
		return nil, err
	}

	status := HotchpotPending
	if !subjectToHotchpot || customaryExemption {
		status = HotchpotNotApplicable
	}

	return &GiftLedgerEntry{
		ID:                  giftID,
		EstateID:            estateID,
		RecipientID:         recipientID,
		ValueAtGiftTime:     value,
		DateOfGift:          dateOfGift,
		Detail:              detail,
		IsSubjectToHotchpot: subjectToHotchpot,
		CustomaryExemption:  customaryExemption,
		HotchpotStatus:      status,
		ConditionStatus:     ConditionNone,
		RevertsToEstate:     revertsToEstate,
		Active:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// CanCalculateHotchpot checks the preconditions for an inflation
// calculation: the gift is subject to hotchpot, not yet decided, and the
// death date falls after the gift date.
func (g *GiftLedgerEntry) CanCalculateHotchpot(dateOfDeath time.Time) error {
	if !g.IsSubjectToHotchpot || g.HotchpotStatus == HotchpotNotApplicable {
		return dErrors.New(dErrors.CodePreconditionFailed, "gift is not subject to hotchpot")
	}
	if g.HotchpotStatus != HotchpotPending && g.HotchpotStatus != HotchpotCalculationPending {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"hotchpot value cannot be calculated in status %s", g.HotchpotStatus)
	}
	if !dateOfDeath.After(g.DateOfGift) {
		return dErrors.New(dErrors.CodePreconditionFailed, "date of death must be after date of gift")
	}
	return nil
}

// ApplyHotchpotCalculation records the adjusted value and moves the gift to
// CALCULATION_PENDING. The value is not yet part of the estate total; that
// happens at inclusion.
func (g *GiftLedgerEntry) ApplyHotchpotCalculation(adjusted money.Money, actor string, now time.Time) {
	g.InflationAdjustedValue = &adjusted
	if g.HotchpotStatus == HotchpotPending {
		g.HotchpotStatus = HotchpotCalculationPending
	}
	g.AuditLog = g.AuditLog.Append(now, actor, "hotchpot value calculated: "+adjusted.String())
	g.UpdatedAt = now
}

// CanInclude checks that an inflation calculation exists and the transition
// to INCLUDED is legal.
func (g *GiftLedgerEntry) CanInclude() error {
	if !g.HotchpotStatus.CanTransitionTo(HotchpotIncluded) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"gift cannot be included from status %s", g.HotchpotStatus)
	}
	if g.InflationAdjustedValue == nil {
		return dErrors.New(dErrors.CodePreconditionFailed,
			"hotchpot value must be calculated before inclusion")
	}
	return nil
}

// ApplyInclude moves the gift to INCLUDED.
func (g *GiftLedgerEntry) ApplyInclude(actor string, now time.Time) {
	g.HotchpotStatus = HotchpotIncluded
	g.AuditLog = g.AuditLog.Append(now, actor, "included in hotchpot")
	g.UpdatedAt = now
}

// CanExclude checks that exclusion is legal and carries a real reason.
func (g *GiftLedgerEntry) CanExclude(reason string) error {
	if !g.HotchpotStatus.CanTransitionTo(HotchpotExcluded) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"gift cannot be excluded from status %s", g.HotchpotStatus)
	}
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"exclusion reason must be at least %d characters", minReasonLength)
	}
	return nil
}

// ApplyExclude moves the gift to EXCLUDED, recording the reason.
func (g *GiftLedgerEntry) ApplyExclude(reason, actor string, now time.Time) {
	g.HotchpotStatus = HotchpotExcluded
	g.AuditLog = g.AuditLog.Append(now, actor, "excluded from hotchpot: "+strings.TrimSpace(reason))
	g.UpdatedAt = now
}

// CanReclaim checks the gift can revert to the estate.
func (g *GiftLedgerEntry) CanReclaim() error {
	if !g.HotchpotStatus.CanTransitionTo(HotchpotReclaimed) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"gift cannot be reclaimed from status %s", g.HotchpotStatus)
	}
	return nil
}

// ApplyReclaim moves the gift to RECLAIMED, recording why.
func (g *GiftLedgerEntry) ApplyReclaim(reason, actor string, now time.Time) {
	g.HotchpotStatus = HotchpotReclaimed
	g.AuditLog = g.AuditLog.Append(now, actor, "reclaimed to estate: "+strings.TrimSpace(reason))
	g.UpdatedAt = now
}

// CanAttachCondition checks the condition machine can move NONE → PENDING.
func (g *GiftLedgerEntry) CanAttachCondition() error {
	if !g.ConditionStatus.CanTransitionTo(ConditionPending) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"condition cannot be attached in status %s", g.ConditionStatus)
	}
	return nil
}

// ApplyAttachCondition moves the condition machine to PENDING.
func (g *GiftLedgerEntry) ApplyAttachCondition(actor string, now time.Time) {
	g.ConditionStatus = ConditionPending
	g.AuditLog = g.AuditLog.Append(now, actor, "condition attached")
	g.UpdatedAt = now
}

// CanResolveCondition checks the outcome edge is legal from PENDING.
func (g *GiftLedgerEntry) CanResolveCondition(outcome ConditionStatus) error {
	if !g.ConditionStatus.CanTransitionTo(outcome) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"condition cannot move from %s to %s", g.ConditionStatus, outcome)
	}
	return nil
}

// ApplyConditionResolution records the outcome. Reversion on failure is a
// separate, explicit rule applied by the service, not a hidden side effect
// of this mutation.
func (g *GiftLedgerEntry) ApplyConditionResolution(outcome ConditionStatus, actor string, now time.Time) {
	g.ConditionStatus = outcome
	g.AuditLog = g.AuditLog.Append(now, actor, "condition resolved: "+string(outcome))
	g.UpdatedAt = now
}

// Deactivate marks the entry inactive. Entries are never deleted.
func (g *GiftLedgerEntry) Deactivate(reason, actor string, now time.Time) error {
	if !g.Active {
		return dErrors.New(dErrors.CodePreconditionFailed, "gift entry is already inactive")
	}
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"deactivation reason must be at least %d characters", minReasonLength)
	}
	g.Active = false
	g.AuditLog = g.AuditLog.Append(now, actor, "entry deactivated: "+strings.TrimSpace(reason))
	g.UpdatedAt = now
	return nil
}

// HotchpotContribution returns the value this gift adds back to the estate:
// the inflation-adjusted value when INCLUDED, zero otherwise.
func (g *GiftLedgerEntry) HotchpotContribution(currency string) money.Money {
	if g.HotchpotStatus == HotchpotIncluded && g.InflationAdjustedValue != nil {
		return *g.InflationAdjustedValue
	}
	return money.Zero(currency)
}
