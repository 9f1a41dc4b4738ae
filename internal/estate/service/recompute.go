package service

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"hash/fnv"
	"sort"
	"strconv"
	"time"

	"urithi/internal/bequest/conflict"
	bequestmodels "urithi/internal/bequest/models"
	debtmodels "urithi/internal/debt/models"
	"urithi/internal/estate/models"
	giftmodels "urithi/internal/gift/models"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
	"urithi/pkg/requestcontext"
)

// RunHotchpot calculates the inflation-adjusted claw-back value of every
// undecided subject gift, as at the recorded date of death. Gifts that are
// exempt or already decided are left alone. Returns the updated entries.
func (s *Service) RunHotchpot(ctx context.Context, estateID id.EstateID, annualInflationRate float64) ([]*giftmodels.GiftLedgerEntry, error) {
	estate, err := s.GetEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}
	if estate.DateOfDeath == nil {
		return nil, dErrors.New(dErrors.CodePreconditionFailed,
			"hotchpot requires a recorded date of death")
	}

	gifts, err := s.gifts.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}

	var updated []*giftmodels.GiftLedgerEntry
	for _, gift := range gifts {
		if gift.CanCalculateHotchpot(*estate.DateOfDeath) != nil {
			continue
		}
		entry, err := s.gifts.CalculateHotchpotValue(ctx, gift.ID, *estate.DateOfDeath, annualInflationRate)
		if err != nil {
			return updated, err
		}
		updated = append(updated, entry)
	}
	return updated, nil
}

// ReviewDebts runs the statute-of-limitations check over every debt as of
// the given date and returns the entries barred by it.
func (s *Service) ReviewDebts(ctx context.Context, estateID id.EstateID, asOf time.Time) ([]*debtmodels.DebtLedgerEntry, error) {
	if asOf.IsZero() {
		asOf = requestcontext.Now(ctx)
	}
	debts, err := s.debts.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}

	var barred []*debtmodels.DebtLedgerEntry
	for _, debt := range debts {
		isBarred, entry, err := s.debts.CheckStatuteBarred(ctx, debt.ID, asOf)
		if err != nil {
			return barred, err
		}
		if isBarred {
			barred = append(barred, entry)
		}
	}
	return barred, nil
}

// ValidateBequests runs the conflict detector over the estate's bequest
// graph. Reports are cached against a fingerprint of the detector's exact
// input: the estate revision, the assignment snapshot and the supplied
// facts. The detector is pure, so an unchanged fingerprint always yields the
// same report, and any bequest mutation changes the fingerprint. Cache
// failures degrade to a fresh run.
func (s *Service) ValidateBequests(ctx context.Context, estateID id.EstateID, facts conflict.Facts) (*conflict.Report, error) {
	estate, err := s.GetEstate(ctx, estateID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.bequests.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bequests")
	}

	fingerprint, fpErr := reportFingerprint(estate.Revision, assignments, facts)
	if fpErr != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "conflict report fingerprint failed",
			"estate_id", estateID, "error", fpErr)
	}

	if s.reports != nil && fpErr == nil {
		cached, err := s.reports.Get(ctx, estateID, fingerprint)
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "conflict report cache read failed",
				"estate_id", estateID, "error", err)
		}
		if cached != nil {
			if s.metrics != nil {
				s.metrics.ReportCacheHits.Inc()
			}
			return cached, nil
		}
	}

	now := requestcontext.Now(ctx)
	report := s.detector.Detect(estateID, assignments, facts, now)

	if s.reports != nil && fpErr == nil {
		if err := s.reports.Put(ctx, estateID, fingerprint, report); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "conflict report cache write failed",
				"estate_id", estateID, "error", err)
		}
	}

	s.publishOps(ctx, events.New(events.KindConflictReportGenerated, estateID, now, requestcontext.Actor(ctx), map[string]string{
		"risk_score": strconv.Itoa(report.RiskScore),
		"conflicts":  strconv.Itoa(len(report.Conflicts)),
	}))
	if s.metrics != nil {
		s.metrics.ConflictReports.Inc()
		s.metrics.RiskScore.Observe(float64(report.RiskScore))
	}
	return &report, nil
}

// reportFingerprint hashes the detector input so the cache key covers every
// fact the report was derived from. The store gives no ordering guarantee,
// so assignments are hashed in ID order.
func reportFingerprint(revision uint64, assignments []*bequestmodels.BequestAssignment, facts conflict.Facts) (uint64, error) {
	ordered := make([]*bequestmodels.BequestAssignment, len(assignments))
	copy(ordered, assignments)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	h := fnv.New64a()
	var rev [8]byte
	binary.BigEndian.PutUint64(rev[:], revision)
	_, _ = h.Write(rev[:])

	enc := json.NewEncoder(h)
	for _, assignment := range ordered {
		if err := enc.Encode(assignment); err != nil {
			return 0, err
		}
	}
	if err := enc.Encode(facts); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// NetDistributableValue computes gross declared asset value, plus gifts
// included in hotchpot, minus outstanding enforceable debts. An insolvent
// estate reports zero rather than a negative value.
func (s *Service) NetDistributableValue(ctx context.Context, estateID id.EstateID) (money.Money, error) {
	estate, err := s.GetEstate(ctx, estateID)
	if err != nil {
		return money.Money{}, err
	}

	total := estate.GrossAssetValue()

	gifts, err := s.gifts.ListByEstate(ctx, estateID)
	if err != nil {
		return money.Money{}, err
	}
	for _, gift := range gifts {
		total, err = total.Add(gift.HotchpotContribution(estate.Currency))
		if err != nil {
			return money.Money{}, err
		}
	}

	owed, err := s.debts.OutstandingByEstate(ctx, estateID, estate.Currency)
	if err != nil {
		return money.Money{}, err
	}
	net, err := total.Subtract(owed)
	if err != nil {
		return money.Zero(estate.Currency), nil
	}
	return net, nil
}

// AuthorizeDistribution composes the two distribution preconditions
// explicitly: the estate's own CanDistribute, then the tax compliance gate.
// Returns the net distributable value the authorization covers.
func (s *Service) AuthorizeDistribution(ctx context.Context, estateID id.EstateID) (money.Money, error) {
	estate, err := s.GetEstate(ctx, estateID)
	if err != nil {
		return money.Money{}, err
	}
	net, err := s.NetDistributableValue(ctx, estateID)
	if err != nil {
		return money.Money{}, err
	}
	if err := estate.CanDistribute(net); err != nil {
		return money.Money{}, err
	}

	cleared, err := s.taxes.IsClearedForDistribution(ctx, estateID)
	if err != nil {
		return money.Money{}, err
	}
	if !cleared {
		return money.Money{}, dErrors.New(dErrors.CodeLegalRuleViolation,
			"tax compliance gate has not reached CLEARED or EXEMPT")
	}
	return net, nil
}

// MarkDistributed advances the estate once assets have been released.
func (s *Service) MarkDistributed(ctx context.Context, estateID id.EstateID) (*models.Estate, error) {
	return s.Advance(ctx, estateID, models.EstateDistributed)
}

// Close ends the estate lifecycle after distribution.
func (s *Service) Close(ctx context.Context, estateID id.EstateID) (*models.Estate, error) {
	return s.Advance(ctx, estateID, models.EstateClosed)
}
