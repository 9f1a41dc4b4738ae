// Package service implements the hotchpot engine: inflation-adjusted
// claw-back of lifetime gifts into the estate, the include/exclude decisions
// around it, and condition-driven reclamation.
package service

import (
	"context"
	"errors"
	"log/slog"

	giftmetrics "urithi/internal/gift/metrics"
	"urithi/internal/gift/models"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/platform/events"
	"urithi/pkg/platform/sentinel"
)

// GiftStore persists gift ledger entries. Execute holds the store's lock
// (mutex or FOR UPDATE) across validation and mutation so transitions are
// atomic against one consistent entry.
type GiftStore interface {
	Create(ctx context.Context, gift *models.GiftLedgerEntry) error
	FindByID(ctx context.Context, giftID id.GiftID) (*models.GiftLedgerEntry, error)
	ListByEstate(ctx context.Context, estateID id.EstateID) ([]*models.GiftLedgerEntry, error)
	Execute(ctx context.Context, giftID id.GiftID,
		validate func(*models.GiftLedgerEntry) error,
		mutate func(*models.GiftLedgerEntry)) (*models.GiftLedgerEntry, error)
}

// Service orchestrates gift ledger mutations.
type Service struct {
	gifts     GiftStore
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *giftmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *giftmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(gifts GiftStore, opts ...Option) *Service {
	s := &Service{gifts: gifts}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NewMemoryPublisher()
	}
	return s
}

// RecordGift validates and stores a new gift ledger entry.
func (s *Service) RecordGift(ctx context.Context, gift *models.GiftLedgerEntry) error {
	if err := s.gifts.Create(ctx, gift); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "gift entry already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record gift")
	}
	return nil
}

// GetGift loads one gift ledger entry.
func (s *Service) GetGift(ctx context.Context, giftID id.GiftID) (*models.GiftLedgerEntry, error) {
	gift, err := s.gifts.FindByID(ctx, giftID)
	if err != nil {
		return nil, wrapGiftErr(err)
	}
	return gift, nil
}

// ListByEstate returns all gift entries for one estate.
func (s *Service) ListByEstate(ctx context.Context, estateID id.EstateID) ([]*models.GiftLedgerEntry, error) {
	gifts, err := s.gifts.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list gifts")
	}
	return gifts, nil
}

func wrapGiftErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "gift not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "gift store failure")
}

// publishOps emits a best-effort operations fact: failures are logged, the
// business operation proceeds.
func (s *Service) publishOps(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "event publish failed",
			"kind", event.Kind, "estate_id", event.EstateID, "error", err)
	}
}

// publishCompliance emits a fail-closed compliance fact: a publish failure
// fails the operation that produced it.
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
