package service

import (
	"context"
	"sync"
	"time"

	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/rs/zerolog"
)

// SweepService runs the periodic billing jobs: flipping past-due invoices to
// overdue and auto-reconciling unlinked payments. Each sweep is single-flight
// per process; a second trigger while one is running is rejected as a
// retryable conflict rather than queued.
type SweepService struct {
	invoiceRepo    repository.InvoiceRepository
	reconciliation *ReconciliationService
	publisher      event.Publisher
	logger         zerolog.Logger

	overdueMu   sync.Mutex
	reconcileMu sync.Mutex
}

// NewSweepService creates a new sweep service
func NewSweepService(
	invoiceRepo repository.InvoiceRepository,
	reconciliation *ReconciliationService,
	publisher event.Publisher,
	logger zerolog.Logger,
) *SweepService {
	return &SweepService{
		invoiceRepo:    invoiceRepo,
		reconciliation: reconciliation,
		publisher:      publisher,
		logger:         logger.With().Str("component", "sweeps").Logger(),
	}
}

// OverdueReport summarizes one overdue sweep run
type OverdueReport struct {
	Examined    int `json:"examined"`
	MarkedCount int `json:"marked_overdue"`
}

// RunOverdueSweep marks every sent invoice with a due date before now as
// overdue. Each flip is guarded by the current status, so re-running the
// sweep or racing with a concurrent settlement never double-transitions an
// invoice.
func (s *SweepService) RunOverdueSweep(ctx context.Context, now time.Time) (*OverdueReport, error) {
	if !s.overdueMu.TryLock() {
		return nil, apperror.NewTransientError("Overdue sweep already running")
	}
	defer s.overdueMu.Unlock()

	invoices, err := s.invoiceRepo.ListSentDueBefore(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &OverdueReport{Examined: len(invoices)}
	var events []event.BillingEvent

	for i := range invoices {
		inv := &invoices[i]
		flipped, err := s.invoiceRepo.TransitionStatus(ctx, inv.ID, enum.InvoiceStatusSent, enum.InvoiceStatusOverdue)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("invoice_id", inv.ID.String()).
				Msg("overdue transition failed, skipping")
			continue
		}
		if !flipped {
			// Someone settled or canceled it between the list and the flip
			continue
		}

		report.MarkedCount++
		events = append(events, event.NewInvoiceOverdue(
			inv.CompanyID, inv.ID, inv.IssuedTo, inv.TotalAmount, inv.InvoiceNumber))
	}

	s.publisher.Publish(events...)

	s.logger.Info().
		Int("examined", report.Examined).
		Int("marked_overdue", report.MarkedCount).
		Msg("overdue sweep completed")

	return report, nil
}

// RunReconcileSweep triggers one auto-reconciliation pass
func (s *SweepService) RunReconcileSweep(ctx context.Context) (*ReconcileReport, error) {
	if !s.reconcileMu.TryLock() {
		return nil, apperror.NewTransientError("Reconcile sweep already running")
	}
	defer s.reconcileMu.Unlock()

	return s.reconciliation.AutoReconcile(ctx)
}
