// Package events defines the facts the succession engine emits and the
// publisher port that delivers them. The engine only emits; transport,
// outbox and delivery guarantees belong to the hosting application.
package events

import (
	"time"

	"github.com/google/uuid"

	id "urithi/pkg/domain"
)

// Category classifies emitted facts by their significance.
// This enables different delivery semantics and retention downstream.
type Category string

const (
	// CategoryCompliance covers facts with legal significance. Publishers
	// handling these must be fail-closed: if the fact cannot be recorded,
	// the operation that produced it must fail.
	// Examples: estate frozen, tax cleared.
	CategoryCompliance Category = "compliance"

	// CategoryOperations covers facts useful for visibility and downstream
	// recomputation triggers. Best-effort delivery is acceptable.
	// Examples: hotchpot calculated, conflict report generated.
	CategoryOperations Category = "operations"
)

// Kind names one emitted fact.
type Kind string

const (
	KindEstateFrozen            Kind = "estate.frozen"
	KindEstateUnfrozen          Kind = "estate.unfrozen"
	KindGiftHotchpotCalculated  Kind = "gift.hotchpot_calculated"
	KindGiftReclaimed           Kind = "gift.reclaimed"
	KindDebtReclassified        Kind = "debt.reclassified"
	KindDebtStatuteBarred       Kind = "debt.statute_barred"
	KindTaxCleared              Kind = "tax.cleared"
	KindTaxExempted             Kind = "tax.exempted"
	KindConflictReportGenerated Kind = "estate.conflict_report_generated"
)

// kindCategories maps each fact to its category.
var kindCategories = map[Kind]Category{
	KindEstateFrozen:            CategoryCompliance,
	KindEstateUnfrozen:          CategoryCompliance,
	KindTaxCleared:              CategoryCompliance,
	KindTaxExempted:             CategoryCompliance,
	KindGiftReclaimed:           CategoryCompliance,
	KindGiftHotchpotCalculated:  CategoryOperations,
	KindDebtReclassified:        CategoryOperations,
	KindDebtStatuteBarred:       CategoryOperations,
	KindConflictReportGenerated: CategoryOperations,
}

// CategoryOf returns the category for a kind, defaulting to operations for
// unknown kinds so a missing map entry never silently upgrades semantics.
func CategoryOf(kind Kind) Category {
	if c, ok := kindCategories[kind]; ok {
		return c
	}
	return CategoryOperations
}

// Event is one emitted fact: a flat record of the estate it belongs to, when
// it occurred, who triggered it, and kind-specific attributes. Keep it
// transport-agnostic so publishers can fan out.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Kind       Kind              `json:"kind"`
	EstateID   id.EstateID       `json:"estate_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Actor      string            `json:"actor"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// New constructs an Event with a fresh ID.
func New(kind Kind, estateID id.EstateID, occurredAt time.Time, actor string, attrs map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		EstateID:   estateID,
		OccurredAt: occurredAt,
		Actor:      actor,
		Attributes: attrs,
	}
}

// Category returns the event's delivery category.
func (e Event) Category() Category { return CategoryOf(e.Kind) }
