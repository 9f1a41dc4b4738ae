// Package service implements the tax compliance gate operations: assessment,
// payment, clearance and the small-estate exemption.
package service

import (
	"context"
	"errors"
	"log/slog"

	taxmetrics "urithi/internal/tax/metrics"
	"urithi/internal/tax/models"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
	"urithi/pkg/platform/sentinel"
	"urithi/pkg/requestcontext"
)

// GateStore persists compliance gates, one per estate.
type GateStore interface {
	Create(ctx context.Context, gate *models.ComplianceGate) error
	FindByEstate(ctx context.Context, estateID id.EstateID) (*models.ComplianceGate, error)
	Execute(ctx context.Context, estateID id.EstateID,
		validate func(*models.ComplianceGate) error,
		mutate func(*models.ComplianceGate)) (*models.ComplianceGate, error)
}

// Service orchestrates compliance gate mutations. The small-estate threshold
// is fixed at construction; it is statutory, not per-request.
type Service struct {
	gates     GateStore
	threshold money.Money
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *taxmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *taxmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service with the given small-estate exemption threshold.
func New(gates GateStore, threshold money.Money, opts ...Option) *Service {
	s := &Service{gates: gates, threshold: threshold}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NewMemoryPublisher()
	}
	return s
}

// OpenGate creates the pending gate for an estate.
func (s *Service) OpenGate(ctx context.Context, estateID id.EstateID) (*models.ComplianceGate, error) {
	gate, err := models.NewComplianceGate(estateID, s.threshold.Currency, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.gates.Create(ctx, gate); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "estate already has a compliance gate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open compliance gate")
	}
	return gate, nil
}

// GetGate loads the estate's compliance gate.
func (s *Service) GetGate(ctx context.Context, estateID id.EstateID) (*models.ComplianceGate, error) {
	gate, err := s.gates.FindByEstate(ctx, estateID)
	if err != nil {
		return nil, wrapGateErr(err)
	}
	return gate, nil
}

// RecordAssessment overwrites the four tax-head liabilities.
func (s *Service) RecordAssessment(ctx context.Context, estateID id.EstateID, assessment models.Assessment) (*models.ComplianceGate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	gate, err := s.gates.Execute(ctx, estateID,
		func(g *models.ComplianceGate) error { return g.CanRecordAssessment(assessment) },
		func(g *models.ComplianceGate) { g.ApplyAssessment(assessment, actor, now) },
	)
	if err != nil {
		return nil, wrapGateErr(err)
	}
	return gate, nil
}

// RecordPayment records a tax payment against the assessed liability.
func (s *Service) RecordPayment(ctx context.Context, estateID id.EstateID, amount money.Money, reference string) (*models.ComplianceGate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	gate, err := s.gates.Execute(ctx, estateID,
		func(g *models.ComplianceGate) error { return g.CanRecordPayment(amount) },
		func(g *models.ComplianceGate) { g.ApplyPayment(amount, reference, actor, now) },
	)
	if err != nil {
		return nil, wrapGateErr(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementPayments()
	}
	return gate, nil
}

// MarkCleared records the clearance certificate and emits the compliance
// fact. Clearance is fail-closed: if the fact cannot be recorded the
// clearance does not stand.
func (s *Service) MarkCleared(ctx context.Context, estateID id.EstateID, certificateNumber string) (*models.ComplianceGate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	gate, err := s.gates.Execute(ctx, estateID,
		func(g *models.ComplianceGate) error { return g.CanMarkCleared(certificateNumber) },
		func(g *models.ComplianceGate) { g.ApplyMarkCleared(certificateNumber, actor, now) },
	)
	if err != nil {
		return nil, wrapGateErr(err)
	}

	event := events.New(events.KindTaxCleared, estateID, now, actor, map[string]string{
		"certificate_number": gate.CertificateNumber,
	})
	if err := s.publishCompliance(ctx, event); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementClearances()
	}
	return gate, nil
}

// MarkExempt grants the small-estate exemption and emits the compliance fact.
func (s *Service) MarkExempt(ctx context.Context, estateID id.EstateID, reason string) (*models.ComplianceGate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	gate, err := s.gates.Execute(ctx, estateID,
		func(g *models.ComplianceGate) error { return g.CanMarkExempt(s.threshold, reason) },
		func(g *models.ComplianceGate) { g.ApplyMarkExempt(reason, actor, now) },
	)
	if err != nil {
		return nil, wrapGateErr(err)
	}

	event := events.New(events.KindTaxExempted, estateID, now, actor, map[string]string{
		"reason":    gate.ExemptionReason,
		"liability": gate.Assessment.Total().String(),
	})
	if err := s.publishCompliance(ctx, event); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementExemptions()
	}
	return gate, nil
}

// Dispute moves the assessed liability into dispute.
func (s *Service) Dispute(ctx context.Context, estateID id.EstateID, reason string) (*models.ComplianceGate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	gate, err := s.gates.Execute(ctx, estateID,
		func(g *models.ComplianceGate) error { return g.CanDispute(reason) },
		func(g *models.ComplianceGate) { g.ApplyDispute(reason, actor, now) },
	)
	if err != nil {
		return nil, wrapGateErr(err)
	}
	return gate, nil
}

// ResolveDispute returns a disputed gate to the payment path.
func (s *Service) ResolveDispute(ctx context.Context, estateID id.EstateID, resolution string) (*models.ComplianceGate, error) {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	gate, err := s.gates.Execute(ctx, estateID,
		func(g *models.ComplianceGate) error { return g.CanResolveDispute() },
		func(g *models.ComplianceGate) { g.ApplyDisputeResolution(resolution, actor, now) },
	)
	if err != nil {
		return nil, wrapGateErr(err)
	}
	return gate, nil
}

// IsClearedForDistribution reports whether the estate's gate permits
// distribution. A missing gate means not cleared.
func (s *Service) IsClearedForDistribution(ctx context.Context, estateID id.EstateID) (bool, error) {
	gate, err := s.gates.FindByEstate(ctx, estateID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapGateErr(err)
	}
	return gate.IsClearedForDistribution(), nil
}

func wrapGateErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "compliance gate not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "compliance gate store failure")
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
