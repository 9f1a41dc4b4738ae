package service

import (
	"context"

	"urithi/internal/gift/models"
	id "urithi/pkg/domain"
	"urithi/pkg/requestcontext"
)

// AttachCondition moves a gift's condition machine NONE → PENDING.
func (s *Service) AttachCondition(ctx context.Context, giftID id.GiftID) (*models.GiftLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	gift, err := s.gifts.Execute(ctx, giftID,
		func(g *models.GiftLedgerEntry) error { return g.CanAttachCondition() },
		func(g *models.GiftLedgerEntry) { g.ApplyAttachCondition(actor, now) },
	)
	if err != nil {
		return nil, wrapGiftErr(err)
	}
	return gift, nil
}

// ResolveCondition records the condition outcome, then applies the
// reversion rule. The rule is a named, testable function invoked here after
// the transition rather than a side effect hidden inside the mutator.
func (s *Service) ResolveCondition(ctx context.Context, giftID id.GiftID, outcome models.ConditionStatus) (*models.GiftLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	gift, err := s.gifts.Execute(ctx, giftID,
		func(g *models.GiftLedgerEntry) error { return g.CanResolveCondition(outcome) },
		func(g *models.GiftLedgerEntry) { g.ApplyConditionResolution(outcome, actor, now) },
	)
	if err != nil {
		return nil, wrapGiftErr(err)
	}

	if ReversionRequired(gift) {
		return s.Reclaim(ctx, giftID, "condition failed on gift flagged to revert to estate")
	}
	return gift, nil
}

// ReversionRequired is the domain rule connecting the condition machine to
// the hotchpot machine: a FAILED condition on a gift flagged to revert
// triggers reclamation. Keeping it a standalone predicate makes the rule
// set enumerable and testable in isolation.
func ReversionRequired(g *models.GiftLedgerEntry) bool {
	return g.ConditionStatus == models.ConditionFailed &&
		g.RevertsToEstate &&
		g.HotchpotStatus.CanTransitionTo(models.HotchpotReclaimed)
}
