package models

// DebtStatus tracks a liability's payment lifecycle.
//
// Transitions:
//
//	OUTSTANDING → PARTIALLY_PAID | DISPUTED | WRITTEN_OFF | STATUTE_BARRED | SETTLED
//	PARTIALLY_PAID → PARTIALLY_PAID | SETTLED | DISPUTED | WRITTEN_OFF | STATUTE_BARRED
//	DISPUTED → OUTSTANDING | SETTLED | WRITTEN_OFF | STATUTE_BARRED
//	SETTLED, WRITTEN_OFF, STATUTE_BARRED → (terminal)
type DebtStatus string

const (
	DebtOutstanding   DebtStatus = "OUTSTANDING"
	DebtPartiallyPaid DebtStatus = "PARTIALLY_PAID"
	DebtSettled       DebtStatus = "SETTLED"
	DebtDisputed      DebtStatus = "DISPUTED"
	DebtWrittenOff    DebtStatus = "WRITTEN_OFF"
	DebtStatuteBarred DebtStatus = "STATUTE_BARRED"
)

var debtTransitions = map[DebtStatus][]DebtStatus{
	DebtOutstanding:   {DebtPartiallyPaid, DebtSettled, DebtDisputed, DebtWrittenOff, DebtStatuteBarred},
	DebtPartiallyPaid: {DebtPartiallyPaid, DebtSettled, DebtDisputed, DebtWrittenOff, DebtStatuteBarred},
	DebtDisputed:      {DebtOutstanding, DebtSettled, DebtWrittenOff, DebtStatuteBarred},
	DebtSettled:       {},
	DebtWrittenOff:    {},
	DebtStatuteBarred: {},
}

// CanTransitionTo reports whether the edge from s to target is legal.
func (s DebtStatus) CanTransitionTo(target DebtStatus) bool {
	for _, t := range debtTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the debt accepts no further mutation.
func (s DebtStatus) IsTerminal() bool {
	return len(debtTransitions[s]) == 0
}

// VerificationStatus tracks whether the executor has verified the claim.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "UNVERIFIED"
	VerificationVerified   VerificationStatus = "VERIFIED"
	VerificationRejected   VerificationStatus = "REJECTED"
)

// DisputeOutcome is the resolution of a creditor dispute.
type DisputeOutcome string

const (
	// DisputeUpheld: the estate's objection stands, but the debt itself
	// remains owing pending renegotiation.
	DisputeUpheld DisputeOutcome = "UPHELD"
	// DisputeDismissed: the objection failed, the debt remains owing.
	DisputeDismissed DisputeOutcome = "DISMISSED"
	// DisputeSettled: the parties settled; the balance is discharged.
	DisputeSettled DisputeOutcome = "SETTLED"
)

// OverpaymentPolicy decides what happens when a payment exceeds the
// outstanding balance. The statute is silent here, so it is a policy flag
// rather than a rule: clamping adjusts the payment down with an audit
// entry, rejecting refuses the payment outright.
type OverpaymentPolicy string

const (
	OverpaymentClamp  OverpaymentPolicy = "clamp"
	OverpaymentReject OverpaymentPolicy = "reject"
)
