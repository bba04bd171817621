package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReconciliationService links payments to invoices and settles invoices once
// enough money has been received. All mutations for one link happen inside a
// single transaction with a row lock on the invoice, so two payments racing
// toward the same invoice serialize instead of both settling it.
type ReconciliationService struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	tx          repository.TransactionManager
	publisher   event.Publisher
	logger      zerolog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	tx repository.TransactionManager,
	publisher event.Publisher,
	logger zerolog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		tx:          tx,
		publisher:   publisher,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
	}
}

// LinkResult is the outcome of linking a payment to an invoice
type LinkResult struct {
	Payment     *entity.Payment `json:"payment"`
	Invoice     *entity.Invoice `json:"invoice"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	IsFullyPaid bool            `json:"is_fully_paid"`
}

// LinkPayment associates a payment with an invoice and marks the invoice
// paid when settled payments cover its total. Events fire only after the
// transaction commits.
func (s *ReconciliationService) LinkPayment(ctx context.Context, paymentID, invoiceID uuid.UUID) (*LinkResult, error) {
	var result *LinkResult
	var events []event.BillingEvent

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		result, events, err = s.linkPaymentLocked(ctx, paymentID, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events...)
	return result, nil
}

// linkPaymentLocked runs inside a transaction. It returns the events to
// publish after commit.
func (s *ReconciliationService) linkPaymentLocked(ctx context.Context, paymentID, invoiceID uuid.UUID) (*LinkResult, []event.BillingEvent, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, apperror.NewNotFoundError("Payment")
	}

	// Lock the invoice row for the rest of the transaction
	invoice, err := s.invoiceRepo.GetByIDForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, apperror.NewNotFoundError("Invoice")
	}

	// Cross-company links must look like the invoice does not exist
	if payment.CompanyID != invoice.CompanyID {
		return nil, nil, apperror.NewNotFoundError("Invoice")
	}

	if payment.TenantID != invoice.IssuedTo {
		return nil, nil, apperror.NewBadRequestError("Payment and invoice belong to different tenants")
	}

	// No conversion happens anywhere, so mixed currencies never reconcile
	if payment.Currency != invoice.Currency {
		return nil, nil, apperror.NewBadRequestError("Payment and invoice currencies do not match")
	}

	if payment.Status == enum.PaymentStatusRejected {
		return nil, nil, apperror.NewInvalidStateError("Rejected payments cannot be linked")
	}

	// Re-linking the same pair is a no-op, even after the invoice settled
	if payment.IsLinkedTo(invoiceID) {
		totalPaid, err := s.paymentRepo.SumSettledForInvoice(ctx, invoiceID)
		if err != nil {
			return nil, nil, err
		}
		return &LinkResult{
			Payment:     payment,
			Invoice:     invoice,
			TotalPaid:   totalPaid,
			IsFullyPaid: totalPaid.GreaterThanOrEqual(invoice.TotalAmount),
		}, nil, nil
	}

	if invoice.Status == enum.InvoiceStatusPaid {
		return nil, nil, apperror.NewConflictError("Invoice is already marked as paid")
	}
	if invoice.Status == enum.InvoiceStatusDraft || invoice.Status == enum.InvoiceStatusCanceled {
		return nil, nil, apperror.NewInvalidStateError("Payments can only be linked to sent or overdue invoices")
	}

	if err := payment.LinkTo(invoiceID); err != nil {
		return nil, nil, err
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, nil, err
	}

	events := []event.BillingEvent{
		event.NewPaymentLinked(payment.CompanyID, payment.ID, invoice.ID, payment.TenantID, payment.Amount),
	}

	// Sum counts approved and completed payments, including the link above
	totalPaid, err := s.paymentRepo.SumSettledForInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	isFullyPaid := totalPaid.GreaterThanOrEqual(invoice.TotalAmount)
	if isFullyPaid {
		reference := payment.ReceiptNumber
		changed, err := invoice.MarkPaid(payment.Method, reference, time.Now())
		if err != nil {
			return nil, nil, err
		}
		if changed {
			if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
				return nil, nil, err
			}
			events = append(events, event.NewInvoicePaid(
				invoice.CompanyID, invoice.ID, invoice.IssuedTo, invoice.TotalAmount, invoice.InvoiceNumber))
		}
	}

	return &LinkResult{
		Payment:     payment,
		Invoice:     invoice,
		TotalPaid:   totalPaid,
		IsFullyPaid: isFullyPaid,
	}, events, nil
}

// AutoMatch tries to link the payment to the tenant's open invoice with an
// exactly equal total. When several qualify the earliest due date wins.
// Runs in its own transaction and publishes after commit. Returns nil
// without error when nothing matches.
func (s *ReconciliationService) AutoMatch(ctx context.Context, payment *entity.Payment) (*LinkResult, error) {
	var result *LinkResult
	var events []event.BillingEvent

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		result, events, err = s.AutoMatchInTx(ctx, payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events...)
	return result, nil
}

// AutoMatchInTx is AutoMatch for callers that already hold a transaction,
// such as payment approval, where the match must commit or roll back with
// the caller's own writes. The returned events are the caller's to publish
// after commit. Conflict and not-found candidates fail before any write, so
// skipping them leaves the transaction clean.
func (s *ReconciliationService) AutoMatchInTx(ctx context.Context, payment *entity.Payment) (*LinkResult, []event.BillingEvent, error) {
	if payment.InvoiceID != nil {
		return nil, nil, nil
	}

	invoices, err := s.invoiceRepo.ListOpenByTenant(ctx, payment.TenantID)
	if err != nil {
		return nil, nil, err
	}

	for _, invoice := range invoices {
		if !invoice.TotalAmount.Equal(payment.Amount) {
			continue
		}

		result, events, err := s.linkPaymentLocked(ctx, payment.ID, invoice.ID)
		if err != nil {
			if apperror.IsConflict(err) || apperror.IsNotFound(err) {
				s.logger.Warn().Err(err).
					Str("payment_id", payment.ID.String()).
					Str("invoice_id", invoice.ID.String()).
					Msg("auto-match candidate skipped")
				continue
			}
			return nil, nil, err
		}
		return result, events, nil
	}

	return nil, nil, nil
}

// ReconcileReport summarizes one auto-reconciliation run
type ReconcileReport struct {
	PaymentsExamined int `json:"payments_examined"`
	PaymentsLinked   int `json:"payments_linked"`
	InvoicesSettled  int `json:"invoices_settled"`
	Skipped          int `json:"skipped"`
}

// AutoReconcile walks every unlinked approved payment, newest first, and
// matches each against open invoices by exact amount, oldest due first.
// Each link runs in its own transaction; a conflict on one pair is logged
// and skipped so the rest of the run proceeds.
func (s *ReconciliationService) AutoReconcile(ctx context.Context) (*ReconcileReport, error) {
	payments, err := s.paymentRepo.ListUnlinkedApproved(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{PaymentsExamined: len(payments)}

	for i := range payments {
		result, err := s.AutoMatch(ctx, &payments[i])
		if err != nil {
			if apperror.IsConflict(err) || apperror.IsNotFound(err) {
				s.logger.Warn().Err(err).
					Str("payment_id", payments[i].ID.String()).
					Msg("auto-reconcile pair skipped")
				report.Skipped++
				continue
			}
			return nil, err
		}
		if result == nil {
			continue
		}

		report.PaymentsLinked++
		if result.IsFullyPaid {
			report.InvoicesSettled++
		}
	}

	s.logger.Info().
		Int("examined", report.PaymentsExamined).
		Int("linked", report.PaymentsLinked).
		Int("settled", report.InvoicesSettled).
		Int("skipped", report.Skipped).
		Msg("auto-reconcile run completed")

	return report, nil
}
