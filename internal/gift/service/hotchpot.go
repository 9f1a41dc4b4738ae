package service

import (
	"context"
	"math"
	"time"

	"urithi/internal/gift/models"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
	"urithi/pkg/requestcontext"
)

// millisPerYear uses the 365.25-day year the limitation rules use, so
// fractional years reflect calendar elapsed time including leap days.
const millisPerYear = 365.25 * 24 * 60 * 60 * 1000

// yearsBetween returns the fractional years between two instants.
func yearsBetween(from, to time.Time) float64 {
	return float64(to.Sub(from).Milliseconds()) / millisPerYear
}

// CalculateHotchpotValue computes the inflation-adjusted claw-back value of
// a gift as at the date of death and records it on the entry, moving the
// gift to CALCULATION_PENDING. The value is not yet part of the estate
// total; inclusion is a separate executor decision.
//
// The adjustment compounds over the fractional years elapsed:
//
//	adjusted = valueAtGiftTime × (1 + rate)^years
//
// Preconditions: the gift is subject to hotchpot, undecided, and the death
// date falls strictly after the gift date.
func (s *Service) CalculateHotchpotValue(ctx context.Context, giftID id.GiftID, dateOfDeath time.Time, annualInflationRate float64) (*models.GiftLedgerEntry, error) {
	if annualInflationRate < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "inflation rate cannot be negative")
	}
	if dateOfDeath.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "date of death is required")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	var adjusted money.Money
	gift, err := s.gifts.Execute(ctx, giftID,
		func(g *models.GiftLedgerEntry) error {
			if err := g.CanCalculateHotchpot(dateOfDeath); err != nil {
				return err
			}
			years := yearsBetween(g.DateOfGift, dateOfDeath)
			factor := math.Pow(1+annualInflationRate, years)
			var mErr error
			adjusted, mErr = g.ValueAtGiftTime.MultiplyFloat(factor)
			return mErr
		},
		func(g *models.GiftLedgerEntry) {
			g.ApplyHotchpotCalculation(adjusted, actor, now)
		},
	)
	if err != nil {
		return nil, wrapGiftErr(err)
	}

	s.publishOps(ctx, events.New(events.KindGiftHotchpotCalculated, gift.EstateID, now, actor, map[string]string{
		"gift_id":        gift.ID.String(),
		"adjusted_value": adjusted.String(),
	}))
	s.observeCalculation()
	return gift, nil
}

// IncludeInHotchpot confirms the calculated value counts toward the estate.
// Requires a prior inflation calculation.
func (s *Service) IncludeInHotchpot(ctx context.Context, giftID id.GiftID) (*models.GiftLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	gift, err := s.gifts.Execute(ctx, giftID,
		func(g *models.GiftLedgerEntry) error { return g.CanInclude() },
		func(g *models.GiftLedgerEntry) { g.ApplyInclude(actor, now) },
	)
	if err != nil {
		return nil, wrapGiftErr(err)
	}
	s.countTransition(string(models.HotchpotIncluded))
	return gift, nil
}

// ExcludeFromHotchpot removes the gift from claw-back with a recorded
// reason of at least ten characters.
func (s *Service) ExcludeFromHotchpot(ctx context.Context, giftID id.GiftID, reason string) (*models.GiftLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	gift, err := s.gifts.Execute(ctx, giftID,
		func(g *models.GiftLedgerEntry) error { return g.CanExclude(reason) },
		func(g *models.GiftLedgerEntry) { g.ApplyExclude(reason, actor, now) },
	)
	if err != nil {
		return nil, wrapGiftErr(err)
	}
	s.countTransition(string(models.HotchpotExcluded))
	return gift, nil
}

// Reclaim reverts the gift to the estate (failed condition, fraud). This is
// a compliance fact: if it cannot be recorded the reclamation fails.
func (s *Service) Reclaim(ctx context.Context, giftID id.GiftID, reason string) (*models.GiftLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	gift, err := s.gifts.Execute(ctx, giftID,
		func(g *models.GiftLedgerEntry) error { return g.CanReclaim() },
		func(g *models.GiftLedgerEntry) { g.ApplyReclaim(reason, actor, now) },
	)
	if err != nil {
		return nil, wrapGiftErr(err)
	}

	if err := s.publishCompliance(ctx, events.New(events.KindGiftReclaimed, gift.EstateID, now, actor, map[string]string{
		"gift_id": gift.ID.String(),
		"reason":  reason,
	})); err != nil {
		return nil, err
	}
	s.countTransition(string(models.HotchpotReclaimed))
	return gift, nil
}

func (s *Service) observeCalculation() {
	if s.metrics != nil {
		s.metrics.IncrementCalculations()
	}
}

func (s *Service) countTransition(to string) {
	if s.metrics != nil {
		s.metrics.IncrementTransition(to)
	}
}
