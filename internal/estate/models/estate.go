// Package models defines the estate aggregate: the lifecycle latch around
// death, and membership of assets, debts, gifts and bequests by reference.
// The estate never owns the referenced entities' lifecycle, only their
// membership.
package models

import (
	"strings"
	"time"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

// EstateStatus is the estate lifecycle state.
//
// Transitions:
//
//	PLANNING → ACTIVE
//	ACTIVE → FROZEN (recording a death date)
//	FROZEN → PROBATE | ACTIVE (reasoned unfreeze correction)
//	PROBATE → ADMINISTRATION
//	ADMINISTRATION → DISTRIBUTED
//	DISTRIBUTED → CLOSED
type EstateStatus string

const (
	EstatePlanning       EstateStatus = "PLANNING"
	EstateActive         EstateStatus = "ACTIVE"
	EstateFrozen         EstateStatus = "FROZEN"
	EstateProbate        EstateStatus = "PROBATE"
	EstateAdministration EstateStatus = "ADMINISTRATION"
	EstateDistributed    EstateStatus = "DISTRIBUTED"
	EstateClosed         EstateStatus = "CLOSED"
)

var estateTransitions = map[EstateStatus][]EstateStatus{
	EstatePlanning:       {EstateActive},
	EstateActive:         {EstateFrozen},
	EstateFrozen:         {EstateProbate, EstateActive},
	EstateProbate:        {EstateAdministration},
	EstateAdministration: {EstateDistributed},
	EstateDistributed:    {EstateClosed},
	EstateClosed:         {},
}

// CanTransitionTo reports whether the edge from s to target is legal.
func (s EstateStatus) CanTransitionTo(target EstateStatus) bool {
	for _, t := range estateTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsFrozenLineage reports whether the estate has passed the freeze latch.
// Membership is immutable through this whole lineage; only the explicit
// unfreeze correction reopens it.
func (s EstateStatus) IsFrozenLineage() bool {
	switch s {
	case EstateFrozen, EstateProbate, EstateAdministration, EstateDistributed, EstateClosed:
		return true
	}
	return false
}

// MemberKind discriminates what a membership reference points at.
type MemberKind string

const (
	MemberAsset   MemberKind = "ASSET"
	MemberDebt    MemberKind = "DEBT"
	MemberGift    MemberKind = "GIFT"
	MemberBequest MemberKind = "BEQUEST"
)

// Member is one membership reference. Exactly one estate may hold any given
// reference; DeclaredValue is set for assets only and feeds the gross value.
type Member struct {
	Kind          MemberKind   `json:"kind"`
	RefID         string       `json:"ref_id"`
	DeclaredValue *money.Money `json:"declared_value,omitempty"`
}

// NewAssetMember references an asset with its declared value.
func NewAssetMember(assetID id.AssetID, declaredValue money.Money) Member {
	v := declaredValue
	return Member{Kind: MemberAsset, RefID: assetID.String(), DeclaredValue: &v}
}

// NewDebtMember references a debt ledger entry.
func NewDebtMember(debtID id.DebtID) Member {
	return Member{Kind: MemberDebt, RefID: debtID.String()}
}

// NewGiftMember references a gift ledger entry.
func NewGiftMember(giftID id.GiftID) Member {
	return Member{Kind: MemberGift, RefID: giftID.String()}
}

// NewBequestMember references a bequest assignment.
func NewBequestMember(bequestID id.BequestID) Member {
	return Member{Kind: MemberBequest, RefID: bequestID.String()}
}

// Estate is the orchestrating aggregate for one deceased person's affairs.
//
// Invariants:
//   - Membership mutates only outside the frozen lineage
//   - Revision increases on every membership change and freeze transition,
//     so cached derived reports can key on it
type Estate struct {
	ID          id.EstateID  `json:"id"`
	DeceasedID  id.PersonID  `json:"deceased_id"`
	Status      EstateStatus `json:"status"`
	Currency    string       `json:"currency"`
	DateOfDeath *time.Time   `json:"date_of_death,omitempty"`
	Members     []Member     `json:"members,omitempty"`
	Revision    uint64       `json:"revision"`
	AuditLog    id.AuditLog  `json:"audit_log,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

const minReasonLength = 10

// NewEstate constructs a planning-stage estate.
func NewEstate(estateID id.EstateID, deceasedID id.PersonID, currency string, now time.Time) (*Estate, error) {
	if estateID.IsNil() || deceasedID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "estate and deceased ids are required")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "currency cannot be empty")
	}
	return &Estate{
		ID:         estateID,
		DeceasedID: deceasedID,
		Status:     EstatePlanning,
		Currency:   currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Activate opens the estate for membership changes.
func (e *Estate) Activate(now time.Time) error {
	if !e.Status.CanTransitionTo(EstateActive) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"estate cannot be activated from status %s", e.Status)
	}
	e.Status = EstateActive
	e.UpdatedAt = now
	return nil
}

// HasMember reports whether the reference already belongs to this estate.
func (e *Estate) HasMember(kind MemberKind, refID string) bool {
	for _, m := range e.Members {
		if m.Kind == kind && m.RefID == refID {
			return true
		}
	}
	return false
}

// CanAddMember checks that membership is open and the reference is new.
func (e *Estate) CanAddMember(member Member) error {
	if e.Status.IsFrozenLineage() {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"membership is immutable while the estate is %s", e.Status)
	}
	if member.RefID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "member reference is required")
	}
	if member.Kind == MemberAsset && member.DeclaredValue == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "asset members require a declared value")
	}
	if e.HasMember(member.Kind, member.RefID) {
		return dErrors.Newf(dErrors.CodeConflict,
			"%s %s already belongs to this estate", member.Kind, member.RefID)
	}
	return nil
}

// ApplyAddMember appends the reference and bumps the revision.
func (e *Estate) ApplyAddMember(member Member, actor string, now time.Time) {
	e.Members = append(e.Members, member)
	e.Revision++
	e.AuditLog = e.AuditLog.Append(now, actor, "added "+strings.ToLower(string(member.Kind))+" "+member.RefID)
	e.UpdatedAt = now
}

// CanRemoveMember checks that membership is open and the reference exists.
func (e *Estate) CanRemoveMember(kind MemberKind, refID string) error {
	if e.Status.IsFrozenLineage() {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"membership is immutable while the estate is %s", e.Status)
	}
	if !e.HasMember(kind, refID) {
		return dErrors.Newf(dErrors.CodeNotFound,
			"%s %s does not belong to this estate", kind, refID)
	}
	return nil
}

// ApplyRemoveMember drops the reference and bumps the revision.
func (e *Estate) ApplyRemoveMember(kind MemberKind, refID string, actor string, now time.Time) {
	kept := e.Members[:0]
	for _, m := range e.Members {
		if !(m.Kind == kind && m.RefID == refID) {
			kept = append(kept, m)
		}
	}
	e.Members = kept
	e.Revision++
	e.AuditLog = e.AuditLog.Append(now, actor, "removed "+strings.ToLower(string(kind))+" "+refID)
	e.UpdatedAt = now
}

// MembersOfKind returns the reference ids of one kind, in insertion order.
func (e *Estate) MembersOfKind(kind MemberKind) []string {
	var out []string
	for _, m := range e.Members {
		if m.Kind == kind {
			out = append(out, m.RefID)
		}
	}
	return out
}

// GrossAssetValue sums the declared values of all asset members.
func (e *Estate) GrossAssetValue() money.Money {
	total := money.Zero(e.Currency)
	for _, m := range e.Members {
		if m.Kind != MemberAsset || m.DeclaredValue == nil {
			continue
		}
		sum, err := total.Add(*m.DeclaredValue)
		if err != nil {
			continue
		}
		total = sum
	}
	return total
}

// CanRecordDeath checks the freeze preconditions.
func (e *Estate) CanRecordDeath(dateOfDeath time.Time) error {
	if dateOfDeath.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "date of death is required")
	}
	if !e.Status.CanTransitionTo(EstateFrozen) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"death cannot be recorded while the estate is %s", e.Status)
	}
	return nil
}

// ApplyRecordDeath latches the estate frozen. Ledger-entry internal state
// keeps evolving after this point; only membership is locked.
func (e *Estate) ApplyRecordDeath(dateOfDeath time.Time, actor string, now time.Time) {
	d := dateOfDeath
	e.DateOfDeath = &d
	e.Status = EstateFrozen
	e.Revision++
	e.AuditLog = e.AuditLog.Append(now, actor, "death recorded "+dateOfDeath.Format("2006-01-02")+"; estate frozen")
	e.UpdatedAt = now
}

// CanUnfreeze checks the correction preconditions: only a freshly frozen
// estate can be reopened, with a substantial reason.
func (e *Estate) CanUnfreeze(reason string) error {
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"unfreeze reason must be at least %d characters", minReasonLength)
	}
	if e.Status != EstateFrozen {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"only a frozen estate can be unfrozen, not %s", e.Status)
	}
	return nil
}

// ApplyUnfreeze reopens the estate and clears the recorded death date. The
// correction is audited; the original date stays in the log.
func (e *Estate) ApplyUnfreeze(reason, actor string, now time.Time) {
	e.Status = EstateActive
	e.DateOfDeath = nil
	e.Revision++
	e.AuditLog = e.AuditLog.Append(now, actor, "estate unfrozen: "+strings.TrimSpace(reason))
	e.UpdatedAt = now
}

// CanAdvance checks a forward lifecycle transition past the freeze.
func (e *Estate) CanAdvance(target EstateStatus) error {
	switch target {
	case EstateProbate, EstateAdministration, EstateDistributed, EstateClosed:
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a forward lifecycle stage", target)
	}
	if !e.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"estate cannot move from %s to %s", e.Status, target)
	}
	return nil
}

// ApplyAdvance moves the estate to the next lifecycle stage.
func (e *Estate) ApplyAdvance(target EstateStatus, actor string, now time.Time) {
	e.Status = target
	e.AuditLog = e.AuditLog.Append(now, actor, "estate advanced to "+string(target))
	e.UpdatedAt = now
}

// CanDistribute reports whether the estate itself permits distribution:
// within the frozen lineage, before DISTRIBUTED, with positive net value.
// It deliberately does not consult the tax compliance gate; the calling
// workflow composes that check explicitly.
func (e *Estate) CanDistribute(netValue money.Money) error {
	switch e.Status {
	case EstateFrozen, EstateProbate, EstateAdministration:
	default:
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"distribution is not available while the estate is %s", e.Status)
	}
	if !netValue.IsPositive() {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"net distributable value %s is not positive", netValue)
	}
	return nil
}
