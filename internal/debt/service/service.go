// Package service implements the debt priority classifier: recording
// liabilities, payments against them, statute-of-limitations checks, and
// the dispute, write-off and reclassification flows.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	debtmetrics "urithi/internal/debt/metrics"
	"urithi/internal/debt/models"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
	"urithi/pkg/platform/sentinel"
	"urithi/pkg/requestcontext"
)

// DebtStore persists debt ledger entries. Execute holds the store's lock
// across validation and mutation.
type DebtStore interface {
	Create(ctx context.Context, debt *models.DebtLedgerEntry) error
	FindByID(ctx context.Context, debtID id.DebtID) (*models.DebtLedgerEntry, error)
	ListByEstate(ctx context.Context, estateID id.EstateID) ([]*models.DebtLedgerEntry, error)
	Execute(ctx context.Context, debtID id.DebtID,
		validate func(*models.DebtLedgerEntry) error,
		mutate func(*models.DebtLedgerEntry)) (*models.DebtLedgerEntry, error)
}

// Service orchestrates debt ledger mutations.
type Service struct {
	debts             DebtStore
	publisher         events.Publisher
	logger            *slog.Logger
	metrics           *debtmetrics.Metrics
	overpaymentPolicy models.OverpaymentPolicy
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *debtmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithOverpaymentPolicy overrides the default clamp-with-audit behavior.
func WithOverpaymentPolicy(policy models.OverpaymentPolicy) Option {
	return func(s *Service) { s.overpaymentPolicy = policy }
}

// New constructs a Service. The overpayment policy defaults to clamping
// with an audit entry.
func New(debts DebtStore, opts ...Option) *Service {
	s := &Service{debts: debts, overpaymentPolicy: models.OverpaymentClamp}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NewMemoryPublisher()
	}
	return s
}

// RecordDebt validates and stores a new liability.
func (s *Service) RecordDebt(ctx context.Context, debt *models.DebtLedgerEntry) error {
	if err := s.debts.Create(ctx, debt); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "debt entry already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record debt")
	}
	return nil
}

// GetDebt loads one debt ledger entry.
func (s *Service) GetDebt(ctx context.Context, debtID id.DebtID) (*models.DebtLedgerEntry, error) {
	debt, err := s.debts.FindByID(ctx, debtID)
	if err != nil {
		return nil, wrapDebtErr(err)
	}
	return debt, nil
}

// RecordPayment applies a payment under the configured overpayment policy
// and returns the updated entry.
func (s *Service) RecordPayment(ctx context.Context, debtID id.DebtID, amount money.Money, details string) (*models.DebtLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	debt, err := s.debts.Execute(ctx, debtID,
		func(d *models.DebtLedgerEntry) error { return d.CanRecordPayment(amount, s.overpaymentPolicy) },
		func(d *models.DebtLedgerEntry) { d.ApplyPayment(amount, details, actor, now) },
	)
	if err != nil {
		return nil, wrapDebtErr(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementPayments()
	}
	return debt, nil
}

// ListByEstate returns all debt entries for one estate.
func (s *Service) ListByEstate(ctx context.Context, estateID id.EstateID) ([]*models.DebtLedgerEntry, error) {
	debts, err := s.debts.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list debts")
	}
	return debts, nil
}

// CheckStatuteBarred evaluates the limitation window as of the given date,
// barring the debt terminally when it has elapsed. Returns whether the debt
// is now barred.
func (s *Service) CheckStatuteBarred(ctx context.Context, debtID id.DebtID, asOf time.Time) (bool, *models.DebtLedgerEntry, error) {
	debt, err := s.debts.FindByID(ctx, debtID)
	if err != nil {
		return false, nil, wrapDebtErr(err)
	}
	if debt.Status == models.DebtStatuteBarred {
		return true, debt, nil
	}
	if debt.Status.IsTerminal() || !debt.IsStatuteBarred(asOf) {
		return false, debt, nil
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	debt, err = s.debts.Execute(ctx, debtID,
		func(d *models.DebtLedgerEntry) error { return d.CanBar(asOf) },
		func(d *models.DebtLedgerEntry) { d.ApplyBar(asOf, actor, now) },
	)
	if err != nil {
		return false, nil, wrapDebtErr(err)
	}

	s.publishOps(ctx, events.New(events.KindDebtStatuteBarred, debt.EstateID, now, actor, map[string]string{
		"debt_id": debt.ID.String(),
		"as_of":   asOf.Format("2006-01-02"),
	}))
	return true, debt, nil
}

// Dispute moves the debt to DISPUTED with a recorded reason.
func (s *Service) Dispute(ctx context.Context, debtID id.DebtID, reason string) (*models.DebtLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	debt, err := s.debts.Execute(ctx, debtID,
		func(d *models.DebtLedgerEntry) error { return d.CanDispute(reason) },
		func(d *models.DebtLedgerEntry) { d.ApplyDispute(reason, actor, now) },
	)
	if err != nil {
		return nil, wrapDebtErr(err)
	}
	return debt, nil
}

// ResolveDispute maps the outcome onto the status machine.
func (s *Service) ResolveDispute(ctx context.Context, debtID id.DebtID, outcome models.DisputeOutcome) (*models.DebtLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	debt, err := s.debts.Execute(ctx, debtID,
		func(d *models.DebtLedgerEntry) error { return d.CanResolveDispute(outcome) },
		func(d *models.DebtLedgerEntry) { d.ApplyDisputeResolution(outcome, actor, now) },
	)
	if err != nil {
		return nil, wrapDebtErr(err)
	}
	return debt, nil
}

// WriteOff moves the debt to WRITTEN_OFF subject to the statutory rules.
func (s *Service) WriteOff(ctx context.Context, debtID id.DebtID, reason string) (*models.DebtLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	debt, err := s.debts.Execute(ctx, debtID,
		func(d *models.DebtLedgerEntry) error { return d.CanWriteOff(reason) },
		func(d *models.DebtLedgerEntry) { d.ApplyWriteOff(reason, actor, now) },
	)
	if err != nil {
		return nil, wrapDebtErr(err)
	}
	return debt, nil
}

// Reclassify moves the debt to a different statutory tier and emits the
// reclassification fact.
func (s *Service) Reclassify(ctx context.Context, debtID id.DebtID, newTier models.StatutoryTier, reason string) (*models.DebtLedgerEntry, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	debt, err := s.debts.Execute(ctx, debtID,
		func(d *models.DebtLedgerEntry) error { return d.CanReclassify(newTier, reason) },
		func(d *models.DebtLedgerEntry) { d.ApplyReclassify(newTier, reason, actor, now) },
	)
	if err != nil {
		return nil, wrapDebtErr(err)
	}

	s.publishOps(ctx, events.New(events.KindDebtReclassified, debt.EstateID, now, actor, map[string]string{
		"debt_id": debt.ID.String(),
		"tier":    strconv.Itoa(int(newTier)),
	}))
	if s.metrics != nil {
		s.metrics.IncrementReclassifications()
	}
	return debt, nil
}

// PaymentSchedule returns the estate's debts ordered for payment: tier
// ascending, then incurred date ascending within a tier. Terminal debts are
// excluded.
func (s *Service) PaymentSchedule(ctx context.Context, estateID id.EstateID) ([]*models.DebtLedgerEntry, error) {
	debts, err := s.debts.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list debts")
	}
	var open []*models.DebtLedgerEntry
	for _, d := range debts {
		if !d.Status.IsTerminal() {
			open = append(open, d)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].StatutoryTier != open[j].StatutoryTier {
			return open[i].StatutoryTier < open[j].StatutoryTier
		}
		return open[i].IncurredDate.Before(open[j].IncurredDate)
	})
	return open, nil
}

// OutstandingByEstate sums the enforceable balance of all debts for an
// estate in the given currency.
func (s *Service) OutstandingByEstate(ctx context.Context, estateID id.EstateID, currency string) (money.Money, error) {
	debts, err := s.debts.ListByEstate(ctx, estateID)
	if err != nil {
		return money.Money{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list debts")
	}
	total := money.Zero(currency)
	for _, d := range debts {
		total, err = total.Add(d.EnforceableBalance())
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

func (s *Service) publishOps(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "event publish failed",
			"kind", event.Kind, "estate_id", event.EstateID, "error", err)
	}
}

func wrapDebtErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "debt not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "debt store failure")
}
