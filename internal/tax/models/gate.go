// Package models defines the tax compliance gate: the single predicate every
// distribution workflow must consult before releasing any asset.
package models

import (
	"strings"
	"time"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

// GateStatus is the compliance gate state.
//
// Transitions:
//
//	PENDING → ASSESSED | EXEMPT
//	ASSESSED → PARTIALLY_PAID | CLEARED | EXEMPT
//	PARTIALLY_PAID → CLEARED | DISPUTED
//	DISPUTED → PARTIALLY_PAID
//	CLEARED, EXEMPT terminal
type GateStatus string

const (
	GatePending       GateStatus = "PENDING"
	GateAssessed      GateStatus = "ASSESSED"
	GatePartiallyPaid GateStatus = "PARTIALLY_PAID"
	GateCleared       GateStatus = "CLEARED"
	GateDisputed      GateStatus = "DISPUTED"
	GateExempt        GateStatus = "EXEMPT"
)

var gateTransitions = map[GateStatus][]GateStatus{
	GatePending:       {GateAssessed, GateExempt},
	GateAssessed:      {GatePartiallyPaid, GateCleared, GateExempt},
	GatePartiallyPaid: {GateCleared, GateDisputed},
	GateDisputed:      {GatePartiallyPaid},
	GateCleared:       {},
	GateExempt:        {},
}

// CanTransitionTo reports whether the edge from s to target is legal.
func (s GateStatus) CanTransitionTo(target GateStatus) bool {
	for _, t := range gateTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the gate reached a final state.
func (s GateStatus) IsTerminal() bool {
	return len(gateTransitions[s]) == 0
}

// Assessment holds the four fixed tax-head liabilities. An assessment is
// recorded as a whole; heads that do not apply are recorded as zero.
type Assessment struct {
	Income       money.Money `json:"income"`
	CapitalGains money.Money `json:"capital_gains"`
	StampDuty    money.Money `json:"stamp_duty"`
	Other        money.Money `json:"other"`
}

// NewAssessment validates that all four heads share one currency.
func NewAssessment(income, capitalGains, stampDuty, other money.Money) (Assessment, error) {
	if _, err := money.Sum(income.Currency, income, capitalGains, stampDuty, other); err != nil {
		return Assessment{}, dErrors.Wrap(err, dErrors.CodeInvalidInput,
			"assessment heads must share one currency")
	}
	return Assessment{Income: income, CapitalGains: capitalGains, StampDuty: stampDuty, Other: other}, nil
}

// Total returns the summed liability across all four heads.
func (a Assessment) Total() money.Money {
	total, _ := money.Sum(a.Income.Currency, a.Income, a.CapitalGains, a.StampDuty, a.Other)
	return total
}

// ComplianceGate tracks one estate's tax position from assessment through
// clearance or exemption. Exactly one gate exists per estate.
type ComplianceGate struct {
	EstateID          id.EstateID `json:"estate_id"`
	Status            GateStatus  `json:"status"`
	Currency          string      `json:"currency"`
	Assessment        Assessment  `json:"assessment"`
	TotalPaid         money.Money `json:"total_paid"`
	CertificateNumber string      `json:"certificate_number,omitempty"`
	ExemptionReason   string      `json:"exemption_reason,omitempty"`
	AuditLog          id.AuditLog `json:"audit_log,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// NewComplianceGate constructs a pending gate with zero liability.
func NewComplianceGate(estateID id.EstateID, currency string, now time.Time) (*ComplianceGate, error) {
	if estateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "estate id is required")
	}
	zero := money.Zero(currency)
	if zero.Currency == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "currency cannot be empty")
	}
	return &ComplianceGate{
		EstateID:   estateID,
		Status:     GatePending,
		Currency:   zero.Currency,
		Assessment: Assessment{Income: zero, CapitalGains: zero, StampDuty: zero, Other: zero},
		TotalPaid:  zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Balance returns the unpaid remainder of the assessed liability.
func (g *ComplianceGate) Balance() money.Money {
	balance, err := g.Assessment.Total().Subtract(g.TotalPaid)
	if err != nil {
		return money.Zero(g.Currency)
	}
	return balance
}

// IsClearedForDistribution is the predicate downstream distribution
// workflows consult before releasing any asset.
func (g *ComplianceGate) IsClearedForDistribution() bool {
	return g.Status == GateCleared || g.Status == GateExempt
}

// CanRecordAssessment checks that the gate still accepts assessments and the
// replacement does not fall below what was already paid.
//
// Errors: CodePreconditionFailed once CLEARED or EXEMPT, CodeInvalidInput on
// currency mismatch or a liability below recorded payments.
func (g *ComplianceGate) CanRecordAssessment(a Assessment) error {
	if g.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"assessment cannot be recorded once the gate is %s", g.Status)
	}
	if g.Status == GateDisputed {
		return dErrors.New(dErrors.CodePreconditionFailed,
			"assessment cannot be recorded while the liability is disputed")
	}
	if a.Total().Currency != g.Currency {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"assessment currency %s does not match gate currency %s", a.Total().Currency, g.Currency)
	}
	if less, _ := a.Total().LessThan(g.TotalPaid); less {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"reassessed liability %s is below payments already recorded %s", a.Total(), g.TotalPaid)
	}
	return nil
}

// ApplyAssessment overwrites the four tax-head liabilities. A gate that has
// already received payments stays PARTIALLY_PAID.
func (g *ComplianceGate) ApplyAssessment(a Assessment, actor string, now time.Time) {
	g.Assessment = a
	if g.TotalPaid.IsPositive() {
		g.Status = GatePartiallyPaid
	} else {
		g.Status = GateAssessed
	}
	g.AuditLog = g.AuditLog.Append(now, actor, "assessment recorded: total liability "+a.Total().String())
	g.UpdatedAt = now
}

// CanRecordPayment checks that a payment of amount is accepted.
//
// Errors: CodePreconditionFailed when the gate does not accept payments in
// its current state, CodeInvalidInput for non-positive amounts or payments
// exceeding the remaining balance. Overpayment against the revenue authority
// is never clamped.
func (g *ComplianceGate) CanRecordPayment(amount money.Money) error {
	if g.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"payment cannot be recorded once the gate is %s", g.Status)
	}
	if g.Status != GateAssessed && g.Status != GatePartiallyPaid {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"payment cannot be recorded while the gate is %s", g.Status)
	}
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "payment amount must be positive")
	}
	if amount.Currency != g.Currency {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"payment currency %s does not match gate currency %s", amount.Currency, g.Currency)
	}
	if exceeds, _ := amount.GreaterThan(g.Balance()); exceeds {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"payment %s exceeds remaining liability %s", amount, g.Balance())
	}
	return nil
}

// ApplyPayment records the payment.
func (g *ComplianceGate) ApplyPayment(amount money.Money, reference, actor string, now time.Time) {
	g.TotalPaid, _ = g.TotalPaid.Add(amount)
	g.Status = GatePartiallyPaid
	message := "payment recorded: " + amount.String()
	if reference != "" {
		message += " (" + reference + ")"
	}
	g.AuditLog = g.AuditLog.Append(now, actor, message)
	g.UpdatedAt = now
}

// CanMarkCleared checks the clearance preconditions: a certificate reference
// and an exactly zero balance. A positive balance is a hard legal failure,
// never coerced.
func (g *ComplianceGate) CanMarkCleared(certificateNumber string) error {
	if strings.TrimSpace(certificateNumber) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "clearance requires a certificate reference")
	}
	if !g.Status.CanTransitionTo(GateCleared) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"gate cannot be cleared from status %s", g.Status)
	}
	if !g.Balance().IsZero() {
		return dErrors.Newf(dErrors.CodeLegalRuleViolation,
			"gate cannot be cleared with outstanding liability %s", g.Balance())
	}
	return nil
}

// ApplyMarkCleared records the clearance certificate.
func (g *ComplianceGate) ApplyMarkCleared(certificateNumber, actor string, now time.Time) {
	g.Status = GateCleared
	g.CertificateNumber = strings.TrimSpace(certificateNumber)
	g.AuditLog = g.AuditLog.Append(now, actor, "cleared under certificate "+g.CertificateNumber)
	g.UpdatedAt = now
}

// CanMarkExempt checks the small-estate exemption: total liability strictly
// below the threshold, a stated reason, and a gate that has not cleared.
func (g *ComplianceGate) CanMarkExempt(threshold money.Money, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "exemption requires a stated reason")
	}
	if !g.Status.CanTransitionTo(GateExempt) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"gate cannot be exempted from status %s", g.Status)
	}
	below, err := g.Assessment.Total().LessThan(threshold)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "threshold currency mismatch")
	}
	if !below {
		return dErrors.Newf(dErrors.CodeLegalRuleViolation,
			"liability %s is not below the small-estate threshold %s", g.Assessment.Total(), threshold)
	}
	return nil
}

// ApplyMarkExempt records the exemption.
func (g *ComplianceGate) ApplyMarkExempt(reason, actor string, now time.Time) {
	g.Status = GateExempt
	g.ExemptionReason = strings.TrimSpace(reason)
	g.AuditLog = g.AuditLog.Append(now, actor, "exempted: "+g.ExemptionReason)
	g.UpdatedAt = now
}

// CanDispute checks that the liability can move into dispute.
func (g *ComplianceGate) CanDispute(reason string) error {
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"dispute reason must be at least %d characters", minReasonLength)
	}
	if !g.Status.CanTransitionTo(GateDisputed) {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"gate cannot be disputed from status %s", g.Status)
	}
	return nil
}

// ApplyDispute moves the gate into dispute.
func (g *ComplianceGate) ApplyDispute(reason, actor string, now time.Time) {
	g.Status = GateDisputed
	g.AuditLog = g.AuditLog.Append(now, actor, "liability disputed: "+strings.TrimSpace(reason))
	g.UpdatedAt = now
}

// CanResolveDispute checks that a dispute is open.
func (g *ComplianceGate) CanResolveDispute() error {
	if g.Status != GateDisputed {
		return dErrors.Newf(dErrors.CodePreconditionFailed,
			"no dispute is open on a gate in status %s", g.Status)
	}
	return nil
}

// ApplyDisputeResolution returns the gate to the payment path.
func (g *ComplianceGate) ApplyDisputeResolution(resolution, actor string, now time.Time) {
	g.Status = GatePartiallyPaid
	g.AuditLog = g.AuditLog.Append(now, actor, "dispute resolved: "+strings.TrimSpace(resolution))
	g.UpdatedAt = now
}

const minReasonLength = 10
