// Package service implements the estate orchestrator: the freeze lifecycle,
// membership, and the recomputation flows it alone is allowed to trigger
// across the gift, debt, bequest and tax modules.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"urithi/internal/bequest/conflict"
	bequestmodels "urithi/internal/bequest/models"
	debtmodels "urithi/internal/debt/models"
	estatemetrics "urithi/internal/estate/metrics"
	"urithi/internal/estate/models"
	giftmodels "urithi/internal/gift/models"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
	"urithi/pkg/platform/sentinel"
	"urithi/pkg/requestcontext"
)

// EstateStore persists estate aggregates. AddMember and RemoveMember enforce
// exclusive ownership: a reference claimed by one estate cannot join another.
type EstateStore interface {
	Create(ctx context.Context, estate *models.Estate) error
	FindByID(ctx context.Context, estateID id.EstateID) (*models.Estate, error)
	Execute(ctx context.Context, estateID id.EstateID,
		validate func(*models.Estate) error,
		mutate func(*models.Estate)) (*models.Estate, error)
	AddMember(ctx context.Context, estateID id.EstateID, member models.Member, actor string, now time.Time) (*models.Estate, error)
	RemoveMember(ctx context.Context, estateID id.EstateID, kind models.MemberKind, refID string, actor string, now time.Time) (*models.Estate, error)
}

// HotchpotEngine is the gift module surface the orchestrator drives.
type HotchpotEngine interface {
	ListByEstate(ctx context.Context, estateID id.EstateID) ([]*giftmodels.GiftLedgerEntry, error)
	CalculateHotchpotValue(ctx context.Context, giftID id.GiftID, dateOfDeath time.Time, annualInflationRate float64) (*giftmodels.GiftLedgerEntry, error)
}

// DebtClassifier is the debt module surface the orchestrator drives.
type DebtClassifier interface {
	ListByEstate(ctx context.Context, estateID id.EstateID) ([]*debtmodels.DebtLedgerEntry, error)
	CheckStatuteBarred(ctx context.Context, debtID id.DebtID, asOf time.Time) (bool, *debtmodels.DebtLedgerEntry, error)
	OutstandingByEstate(ctx context.Context, estateID id.EstateID, currency string) (money.Money, error)
}

// TaxGate is the compliance predicate composed into distribution.
type TaxGate interface {
	IsClearedForDistribution(ctx context.Context, estateID id.EstateID) (bool, error)
}

// BequestReader supplies the assignment snapshot the detector reads.
type BequestReader interface {
	ListByEstate(ctx context.Context, estateID id.EstateID) ([]*bequestmodels.BequestAssignment, error)
}

// ReportCache caches conflict reports keyed by a fingerprint of the
// detector input. A nil miss is (nil, nil); the orchestrator treats cache
// failures as misses.
type ReportCache interface {
	Get(ctx context.Context, estateID id.EstateID, fingerprint uint64) (*conflict.Report, error)
	Put(ctx context.Context, estateID id.EstateID, fingerprint uint64, report conflict.Report) error
}

// Service is the estate orchestrator.
type Service struct {
	estates   EstateStore
	gifts     HotchpotEngine
	debts     DebtClassifier
	taxes     TaxGate
	bequests  BequestReader
	detector  *conflict.Detector
	reports   ReportCache
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *estatemetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *estatemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithReportCache enables conflict report caching.
func WithReportCache(cache ReportCache) Option {
	return func(s *Service) { s.reports = cache }
}

// New constructs the orchestrator over its module collaborators.
func New(estates EstateStore, gifts HotchpotEngine, debts DebtClassifier, taxes TaxGate, bequests BequestReader, opts ...Option) *Service {
	s := &Service{
		estates:  estates,
		gifts:    gifts,
		debts:    debts,
		taxes:    taxes,
		bequests: bequests,
		detector: conflict.NewDetector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NewMemoryPublisher()
	}
	return s
}

// CreateEstate opens a planning-stage estate for a deceased person.
func (s *Service) CreateEstate(ctx context.Context, estateID id.EstateID, deceasedID id.PersonID, currency string) (*models.Estate, error) {
	estate, err := models.NewEstate(estateID, deceasedID, currency, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.estates.Create(ctx, estate); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "estate already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create estate")
	}
	return estate, nil
}

// GetEstate loads one estate aggregate.
func (s *Service) GetEstate(ctx context.Context, estateID id.EstateID) (*models.Estate, error) {
	estate, err := s.estates.FindByID(ctx, estateID)
	if err != nil {
		return nil, wrapEstateErr(err)
	}
	return estate, nil
}

// Activate opens the estate for membership changes.
func (s *Service) Activate(ctx context.Context, estateID id.EstateID) (*models.Estate, error) {
	now := requestcontext.Now(ctx)
	estate, err := s.estates.Execute(ctx, estateID,
		func(e *models.Estate) error {
			if !e.Status.CanTransitionTo(models.EstateActive) {
				return dErrors.Newf(dErrors.CodePreconditionFailed,
					"estate cannot be activated from status %s", e.Status)
			}
			return nil
		},
		func(e *models.Estate) { _ = e.Activate(now) },
	)
	if err != nil {
		return nil, wrapEstateErr(err)
	}
	return estate, nil
}

// AddMember claims a reference for the estate. Fails when the estate is
// frozen or when another estate already owns the reference.
func (s *Service) AddMember(ctx context.Context, estateID id.EstateID, member models.Member) (*models.Estate, error) {
	estate, err := s.estates.AddMember(ctx, estateID, member, requestcontext.Actor(ctx), requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyOwned) {
			return nil, dErrors.Newf(dErrors.CodeConflict,
				"%s %s already belongs to another estate", member.Kind, member.RefID)
		}
		return nil, wrapEstateErr(err)
	}
	return estate, nil
}

// RemoveMember releases a reference from the estate.
func (s *Service) RemoveMember(ctx context.Context, estateID id.EstateID, kind models.MemberKind, refID string) (*models.Estate, error) {
	estate, err := s.estates.RemoveMember(ctx, estateID, kind, refID, requestcontext.Actor(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, wrapEstateErr(err)
	}
	return estate, nil
}

// RecordDeath freezes the estate as at the date of death and emits the
// compliance fact. The freeze is fail-closed: if the fact cannot be
// recorded the operation fails.
func (s *Service) RecordDeath(ctx context.Context, estateID id.EstateID, dateOfDeath time.Time) (*models.Estate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	estate, err := s.estates.Execute(ctx, estateID,
		func(e *models.Estate) error { return e.CanRecordDeath(dateOfDeath) },
		func(e *models.Estate) { e.ApplyRecordDeath(dateOfDeath, actor, now) },
	)
	if err != nil {
		return nil, wrapEstateErr(err)
	}

	event := events.New(events.KindEstateFrozen, estateID, now, actor, map[string]string{
		"date_of_death": dateOfDeath.Format("2006-01-02"),
	})
	if err := s.publishCompliance(ctx, event); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Freezes.Inc()
	}
	return estate, nil
}

// Unfreeze reopens a frozen estate with a recorded reason. A correction, not
// a lifecycle stage: the death date is cleared and membership reopens.
func (s *Service) Unfreeze(ctx context.Context, estateID id.EstateID, reason string) (*models.Estate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	estate, err := s.estates.Execute(ctx, estateID,
		func(e *models.Estate) error { return e.CanUnfreeze(reason) },
		func(e *models.Estate) { e.ApplyUnfreeze(reason, actor, now) },
	)
	if err != nil {
		return nil, wrapEstateErr(err)
	}

	event := events.New(events.KindEstateUnfrozen, estateID, now, actor, map[string]string{
		"reason": reason,
	})
	if err := s.publishCompliance(ctx, event); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Unfreezes.Inc()
	}
	return estate, nil
}

// Advance moves the estate to the next lifecycle stage past the freeze.
func (s *Service) Advance(ctx context.Context, estateID id.EstateID, target models.EstateStatus) (*models.Estate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	estate, err := s.estates.Execute(ctx, estateID,
		func(e *models.Estate) error { return e.CanAdvance(target) },
		func(e *models.Estate) { e.ApplyAdvance(target, actor, now) },
	)
	if err != nil {
		return nil, wrapEstateErr(err)
	}
	return estate, nil
}

func wrapEstateErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "estate not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "estate store failure")
}

func (s *Service) publishOps(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "event publish failed",
			"kind", event.Kind, "estate_id", event.EstateID, "error", err)
	}
}

func (s *Service) publishCompliance(ctx context.Context, event events.Event) error {
	if err := s.publisher.Publish(ctx, event); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "CRITICAL: compliance event publish failed",
				"kind", event.Kind, "estate_id", event.EstateID, "error", err)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "compliance event could not be recorded")
	}
	return nil
}
