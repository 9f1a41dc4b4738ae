package models

// HotchpotStatus tracks a gift's statutory claw-back treatment.
//
// Transitions:
//
//	PENDING → CALCULATION_PENDING | EXCLUDED | RECLAIMED
//	CALCULATION_PENDING → INCLUDED | EXCLUDED | RECLAIMED
//	INCLUDED → RECLAIMED
//	EXCLUDED → RECLAIMED
//	NOT_APPLICABLE, RECLAIMED → (terminal)
//
// NOT_APPLICABLE is set at creation for gifts outside hotchpot (not subject,
// or customarily exempt) and never leaves. RECLAIMED is reachable from any
// non-terminal state when a failed condition or fraud reverts the gift to
// the estate.
type HotchpotStatus string

const (
	HotchpotNotApplicable      HotchpotStatus = "NOT_APPLICABLE"
	HotchpotPending            HotchpotStatus = "PENDING"
	HotchpotCalculationPending HotchpotStatus = "CALCULATION_PENDING"
	HotchpotIncluded           HotchpotStatus = "INCLUDED"
	HotchpotExcluded           HotchpotStatus = "EXCLUDED"
	HotchpotReclaimed          HotchpotStatus = "RECLAIMED"
)

// hotchpotTransitions is the single source of truth for legal edges.
// Everything not listed is rejected.
var hotchpotTransitions = map[HotchpotStatus][]HotchpotStatus{
	HotchpotPending:            {HotchpotCalculationPending, HotchpotExcluded, HotchpotReclaimed},
	HotchpotCalculationPending: {HotchpotIncluded, HotchpotExcluded, HotchpotReclaimed},
	HotchpotIncluded:           {HotchpotReclaimed},
	HotchpotExcluded:           {HotchpotReclaimed},
	HotchpotNotApplicable:      {},
	HotchpotReclaimed:          {},
}

// CanTransitionTo reports whether the edge from s to target is legal.
func (s HotchpotStatus) CanTransitionTo(target HotchpotStatus) bool {
	for _, t := range hotchpotTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edges leave s.
func (s HotchpotStatus) IsTerminal() bool {
	return len(hotchpotTransitions[s]) == 0
}

// ConditionStatus tracks the gift's attached condition, independent of the
// hotchpot machine: NONE → PENDING → {MET | FAILED | WAIVED | TIME_EXPIRED}.
type ConditionStatus string

const (
	ConditionNone        ConditionStatus = "NONE"
	ConditionPending     ConditionStatus = "PENDING"
	ConditionMet         ConditionStatus = "MET"
	ConditionFailed      ConditionStatus = "FAILED"
	ConditionWaived      ConditionStatus = "WAIVED"
	ConditionTimeExpired ConditionStatus = "TIME_EXPIRED"
)

var conditionTransitions = map[ConditionStatus][]ConditionStatus{
	ConditionNone:        {ConditionPending},
	ConditionPending:     {ConditionMet, ConditionFailed, ConditionWaived, ConditionTimeExpired},
	ConditionMet:         {},
	ConditionFailed:      {},
	ConditionWaived:      {},
	ConditionTimeExpired: {},
}

// CanTransitionTo reports whether the edge from c to target is legal.
func (c ConditionStatus) CanTransitionTo(target ConditionStatus) bool {
	for _, t := range conditionTransitions[c] {
		if t == target {
			return true
		}
	}
	return false
}

// IsResolved reports whether the condition reached a terminal outcome.
func (c ConditionStatus) IsResolved() bool {
	return len(conditionTransitions[c]) == 0
}
