package models

import (
	"fmt"
	"strings"
	"time"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

const minReasonLength = 10

// Payment is one payment applied against a debt.
type Payment struct {
	At      time.Time   `json:"at"`
	Amount  money.Money `json:"amount"`
	Details string      `json:"details,omitempty"`
	Actor   string      `json:"actor"`
}

// DebtLedgerEntry is one estate liability and its statutory priority and
// payment state.
//
// Invariants:
//   - OutstandingBalance ≤ Principal at all times
//   - TotalPaid + OutstandingBalance == Principal at all times
//   - Tier is computed once at creation and only changes through
//     Reclassify, which never moves tier-1 debts
//   - Terminal states (SETTLED, WRITTEN_OFF, STATUTE_BARRED) accept no
//     further payments or transitions
type DebtLedgerEntry struct {
	ID                  id.DebtID          `json:"id"`
	EstateID            id.EstateID        `json:"estate_id"`
	CreditorID          id.PersonID        `json:"creditor_id"`
	Description         string             `json:"description"`
	DebtType            DebtType           `json:"debt_type"`
	Principal           money.Money        `json:"principal"`
	OutstandingBalance  money.Money        `json:"outstanding_balance"`
	TotalPaid           money.Money        `json:"total_paid"`
	IncurredDate        time.Time          `json:"incurred_date"`
	StatutoryTier       StatutoryTier      `json:"statutory_tier"`
	Status              DebtStatus         `json:"status"`
	Verification        VerificationStatus `json:"verification"`
	IsSecured           bool               `json:"is_secured"`
	LimitationYears     int                `json:"limitation_years"`
	RequiresApproval    bool               `json:"requires_approval"`
	ApprovalRef         string             `json:"approval_ref,omitempty"`
	IncludedInInventory bool               `json:"included_in_inventory"`
	PaymentAuthorized   bool               `json:"payment_authorized"`
	Payments            []Payment          `json:"payments,omitempty"`
	AuditLog            id.AuditLog        `json:"audit_log"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// NewDebtLedgerEntry records a liability. The tier and limitation window
// are classified once here; tax debts are flagged as needing external
// authority approval before any write-off.
func NewDebtLedgerEntry(
	debtID id.DebtID,
	estateID id.EstateID,
	creditorID id.PersonID,
	description string,
	debtType DebtType,
	principal money.Money,
	incurredDate time.Time,
	isSecured bool,
	now time.Time,
) (*DebtLedgerEntry, error) {
	if debtID.IsNil() || estateID.IsNil() || creditorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "debt, estate and creditor ids are required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "debt description is required")
	}
	if !principal.IsPositive() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "principal must be positive")
	}
	if incurredDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "incurred date is required")
	}

	return &DebtLedgerEntry{
		ID:                 debtID,
		EstateID:           estateID,
		CreditorID:         creditorID,
		Description:        strings.TrimSpace(description),
		DebtType:           debtType,
		Principal:          principal,
		OutstandingBalance: principal,
		TotalPaid:          money.Zero(principal.Currency),
		IncurredDate:       incurredDate,
		StatutoryTier:      ClassifyTier(debtType, isSecured),
		Status:             DebtOutstanding,
		Verification:       VerificationUnverified,
		IsSecured:          isSecured,
		LimitationYears:    LimitationYears(isSecured),
		RequiresApproval:   debtType == DebtTypeTax,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// CanRecordPayment checks a payment is acceptable under the given policy.
// Terminal and disputed debts reject payments; the reject policy also
// refuses overpayments outright.
func (d *DebtLedgerEntry) CanRecordPayment(amount money.Money, policy OverpaymentPolicy) error {
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "payment amount must be positive")
	}
	if _, err := amount.Compare(d.OutstandingBalance); err != nil {
		return err
	}
	if d.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodePreconditionFailed, "debt in status %s accepts no payments", d.Status)
	}
	if d.Status == DebtDisputed {
		return dErrors.New(dErrors.CodePreconditionFailed, "disputed debts accept no payments until resolved")
	}
	if policy == OverpaymentReject {
		over, err := amount.GreaterThan(d.OutstandingBalance)
		if err != nil {
			return err
		}
		if over {
			return dErrors.Newf(dErrors.CodePreconditionFailed,
				"payment %s exceeds outstanding balance %s", amount, d.OutstandingBalance)
		}
	}
	return nil
}

// ApplyPayment applies a payment validated by CanRecordPayment. Under the
// clamp policy an overpayment is reduced to the outstanding balance and the
// discrepancy is recorded in the audit log. Returns the amount actually
// applied.
func (d *DebtLedgerEntry) ApplyPayment(amount money.Money, details string, actor string, now time.Time) money.Money {
	applied := amount
	over, _ := amount.GreaterThan(d.OutstandingBalance)
	if over {
		applied = d.OutstandingBalance
		discrepancy, _ := amount.Subtract(applied)
		d.AuditLog = d.AuditLog.Append(now, actor, fmt.Sprintf(
			"overpayment clamped: tendered %s, applied %s, discrepancy %s",
			amount, applied, discrepancy))
	}

	d.OutstandingBalance, _ = d.OutstandingBalance.Subtract(applied)
	d.TotalPaid, _ = d.TotalPaid.Add(applied)
	d.Payments = append(d.Payments, Payment{At: now, Amount: applied, Details: details, Actor: actor})

	if d.OutstandingBalance.IsZero() {
		d.Status = DebtSettled
		d.AuditLog = d.AuditLog.Append(now, actor, "debt settled in full")
	} else {
		d.Status = DebtPartiallyPaid
	}
	d.UpdatedAt = now
	return applied
}

// IsStatuteBarred reports whether the limitation window has elapsed as of
// the given date. Pure; does not mutate.
func (d *DebtLedgerEntry) IsStatuteBarred(asOf time.Time) bool {
	deadline := d.IncurredDate.AddDate(d.LimitationYears, 0, 0)
	return asOf.After(deadline)
}

// CanBar checks the debt can transition to STATUTE_BARRED as of the date.
func (d *DebtLedgerEntry) CanBar(asOf time.Time) error {
	if d.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodePreconditionFailed, "debt in status %s cannot be barred", d.Status)
	}
	if !d.IsStatuteBarred(asOf) {
		return dErrors.New(dErrors.CodePreconditionFailed, "limitation period has not elapsed")
	}
	return nil
}

// ApplyBar moves the debt to the terminal STATUTE_BARRED state.
func (d *DebtLedgerEntry) ApplyBar(asOf time.Time, actor string, now time.Time) {
	d.Status = DebtStatuteBarred
	d.AuditLog = d.AuditLog.Append(now, actor, fmt.Sprintf(
		"statute-barred as of %s (%d-year limitation from %s)",
		asOf.Format("2006-01-02"), d.LimitationYears, d.IncurredDate.Format("2006-01-02")))
	d.UpdatedAt = now
}

// CanDispute checks disputing is legal and carries a real reason.
func (d *DebtLedgerEntry) CanDispute(reason string) error {
	if !d.Status.CanTransitionTo(DebtDisputed) {
		return dErrors.Newf(dErrors.CodePreconditionFailed, "debt in status %s cannot be disputed", d.Status)
	}
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"dispute reason must be at least %d characters", minReasonLength)
	}
	return nil
}

// ApplyDispute moves the debt to DISPUTED.
func (d *DebtLedgerEntry) ApplyDispute(reason, actor string, now time.Time) {
	d.Status = DebtDisputed
	d.AuditLog = d.AuditLog.Append(now, actor, "disputed: "+strings.TrimSpace(reason))
	d.UpdatedAt = now
}

// CanResolveDispute checks the debt is disputed and the outcome is known.
func (d *DebtLedgerEntry) CanResolveDispute(outcome DisputeOutcome) error {
	if d.Status != DebtDisputed {
		return dErrors.New(dErrors.CodePreconditionFailed, "debt is not disputed")
	}
	switch outcome {
	case DisputeUpheld, DisputeDismissed, DisputeSettled:
		return nil
	}
	return dErrors.Newf(dErrors.CodeInvalidInput, "unknown dispute outcome %q", outcome)
}

// ApplyDisputeResolution maps the outcome onto the status machine:
// UPHELD and DISMISSED return the debt to OUTSTANDING; SETTLED discharges
// the balance.
func (d *DebtLedgerEntry) ApplyDisputeResolution(outcome DisputeOutcome, actor string, now time.Time) {
	switch outcome {
	case DisputeUpheld, DisputeDismissed:
		d.Status = DebtOutstanding
	case DisputeSettled:
		d.TotalPaid, _ = d.TotalPaid.Add(d.OutstandingBalance)
		d.OutstandingBalance = money.Zero(d.Principal.Currency)
		d.Status = DebtSettled
	}
	d.AuditLog = d.AuditLog.Append(now, actor, "dispute resolved: "+string(outcome))
	d.UpdatedAt = now
}

// CanWriteOff enforces the statutory write-off rules: never for tier-1
// debts, and tax debts only with an external-authority approval reference.
func (d *DebtLedgerEntry) CanWriteOff(reason string) error {
	if !d.Status.CanTransitionTo(DebtWrittenOff) {
		return dErrors.Newf(dErrors.CodePreconditionFailed, "debt in status %s cannot be written off", d.Status)
	}
	if d.StatutoryTier == TierFuneralTestamentary {
		return dErrors.New(dErrors.CodeLegalRuleViolation,
			"funeral and testamentary expenses can never be written off")
	}
	if d.DebtType == DebtTypeTax && strings.TrimSpace(d.ApprovalRef) == "" {
		return dErrors.New(dErrors.CodeLegalRuleViolation,
			"tax debts require an external authority approval reference before write-off")
	}
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"write-off reason must be at least %d characters", minReasonLength)
	}
	return nil
}

// ApplyWriteOff moves the debt to the terminal WRITTEN_OFF state.
func (d *DebtLedgerEntry) ApplyWriteOff(reason, actor string, now time.Time) {
	d.Status = DebtWrittenOff
	d.AuditLog = d.AuditLog.Append(now, actor, "written off: "+strings.TrimSpace(reason))
	d.UpdatedAt = now
}

// CanReclassify enforces the tier-1 lock: funeral and testamentary debts
// can never leave tier 1.
func (d *DebtLedgerEntry) CanReclassify(newTier StatutoryTier, reason string) error {
	if d.StatutoryTier == TierFuneralTestamentary && newTier != TierFuneralTestamentary {
		return dErrors.New(dErrors.CodeLegalRuleViolation,
			"funeral and testamentary debts cannot be reclassified to a lower tier")
	}
	if newTier < TierFuneralTestamentary || newTier > TierUnsecured {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown statutory tier %d", newTier)
	}
	if newTier == d.StatutoryTier {
		return dErrors.New(dErrors.CodePreconditionFailed, "debt already in the requested tier")
	}
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"reclassification reason must be at least %d characters", minReasonLength)
	}
	return nil
}

// ApplyReclassify moves the debt to the new tier.
func (d *DebtLedgerEntry) ApplyReclassify(newTier StatutoryTier, reason, actor string, now time.Time) {
	old := d.StatutoryTier
	d.StatutoryTier = newTier
	d.AuditLog = d.AuditLog.Append(now, actor, fmt.Sprintf(
		"reclassified from tier %d to tier %d: %s", old, newTier, strings.TrimSpace(reason)))
	d.UpdatedAt = now
}

// Verify marks the claim verified by the executor.
func (d *DebtLedgerEntry) Verify(actor string, now time.Time) error {
	if d.Verification == VerificationVerified {
		return dErrors.New(dErrors.CodePreconditionFailed, "debt is already verified")
	}
	d.Verification = VerificationVerified
	d.AuditLog = d.AuditLog.Append(now, actor, "claim verified")
	d.UpdatedAt = now
	return nil
}

// RecordApproval stores the external authority approval reference.
func (d *DebtLedgerEntry) RecordApproval(ref, actor string, now time.Time) error {
	if strings.TrimSpace(ref) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "approval reference cannot be empty")
	}
	d.ApprovalRef = strings.TrimSpace(ref)
	d.AuditLog = d.AuditLog.Append(now, actor, "external approval recorded: "+d.ApprovalRef)
	d.UpdatedAt = now
	return nil
}

// MarkIncludedInInventory records the debt in the estate inventory.
func (d *DebtLedgerEntry) MarkIncludedInInventory(actor string, now time.Time) {
	d.IncludedInInventory = true
	d.AuditLog = d.AuditLog.Append(now, actor, "included in estate inventory")
	d.UpdatedAt = now
}

// AuthorizePayment records an explicit payment authorization.
func (d *DebtLedgerEntry) AuthorizePayment(actor string, now time.Time) {
	d.PaymentAuthorized = true
	d.AuditLog = d.AuditLog.Append(now, actor, "payment authorized")
	d.UpdatedAt = now
}

// CanBePaid is the sole gate any payment-execution workflow consults. All
// five facts must hold; partial payment readiness does not exist. A
// partially paid debt returns to payable only once re-verified as
// OUTSTANDING through dispute resolution or executor correction.
func (d *DebtLedgerEntry) CanBePaid() bool {
	if d.Status != DebtOutstanding {
		return false
	}
	if d.Verification != VerificationVerified {
		return false
	}
	if d.RequiresApproval && strings.TrimSpace(d.ApprovalRef) == "" {
		return false
	}
	return d.IncludedInInventory && d.PaymentAuthorized
}

// EnforceableBalance returns the balance still owed and legally
// collectable: zero for terminal debts, the outstanding balance otherwise.
func (d *DebtLedgerEntry) EnforceableBalance() money.Money {
	if d.Status.IsTerminal() {
		return money.Zero(d.Principal.Currency)
	}
	return d.OutstandingBalance
}
