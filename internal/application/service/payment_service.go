package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	infraRepo "github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/email"
	"github.com/kodisha/kodisha-api/pkg/mpesa"
	"github.com/kodisha/kodisha-api/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentService handles the payment ledger: recording money in, moving it
// through the pending/approved lifecycle, and handing approved payments to
// the reconciliation engine.
type PaymentService struct {
	paymentRepo    repository.PaymentRepository
	tenantRepo     repository.TenantRepository
	companyRepo    repository.CompanyRepository
	numbering      *NumberingService
	reconciliation *ReconciliationService
	tx             repository.TransactionManager
	publisher      event.Publisher
	mailer         *email.EmailService
	verifier       mpesa.Verifier
	logger         zerolog.Logger
}

// NewPaymentService creates a new payment service. mailer and verifier may
// be nil when the deployment has no SMTP or gateway credentials.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	tenantRepo repository.TenantRepository,
	companyRepo repository.CompanyRepository,
	numbering *NumberingService,
	reconciliation *ReconciliationService,
	tx repository.TransactionManager,
	publisher event.Publisher,
	mailer *email.EmailService,
	verifier mpesa.Verifier,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		tenantRepo:     tenantRepo,
		companyRepo:    companyRepo,
		numbering:      numbering,
		reconciliation: reconciliation,
		tx:             tx,
		publisher:      publisher,
		mailer:         mailer,
		verifier:       verifier,
		logger:         logger.With().Str("component", "payments").Logger(),
	}
}

// CreatePaymentInput represents the create payment input
type CreatePaymentInput struct {
	TenantID        uuid.UUID
	PropertyID      *uuid.UUID
	UnitID          *uuid.UUID
	LeaseID         *uuid.UUID
	Amount          decimal.Decimal
	Method          enum.PaymentMethod
	Type            enum.PaymentType
	PaymentPeriod   *string
	ReferenceNumber *string
	PaymentDate     *time.Time
	RecordedBy      uuid.UUID
}

// CreatePayment records a new pending payment. A gateway reference that was
// already recorded is rejected, which makes webhook retries harmless.
func (s *PaymentService) CreatePayment(ctx context.Context, input *CreatePaymentInput) (*entity.Payment, error) {
	companyID, ok := infraRepo.GetCompanyID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Company context required")
	}

	tenant, err := s.tenantRepo.GetByID(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.NewNotFoundError("Tenant")
	}

	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, apperror.NewNotFoundError("Company")
	}

	// Payments take the company currency, same as invoices, so the two
	// sides of a link always agree
	currency := company.Settings.Currency
	if currency == "" {
		currency = "KES"
	}

	if input.ReferenceNumber != nil && *input.ReferenceNumber != "" {
		existing, err := s.paymentRepo.GetByReference(ctx, *input.ReferenceNumber)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewConflictError("A payment with this reference already exists")
		}
	}

	// Gateway payments carry a transaction reference we can confirm upstream
	if input.Method.IsGateway() && s.verifier != nil && s.verifier.IsConfigured() {
		if input.ReferenceNumber == nil || *input.ReferenceNumber == "" {
			return nil, apperror.NewBadRequestError("Gateway payments require a transaction reference")
		}
		if _, err := s.verifier.VerifyTransaction(ctx, *input.ReferenceNumber); err != nil {
			switch {
			case errors.Is(err, mpesa.ErrTransactionNotFound):
				return nil, apperror.NewBadRequestError("Transaction reference was not found at the gateway")
			case errors.Is(err, mpesa.ErrGatewayUnavailable):
				return nil, apperror.NewTransientError("Payment gateway is unavailable, retry shortly")
			default:
				return nil, err
			}
		}
	}

	paymentDate := time.Now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	payment := &entity.Payment{
		CompanyID:       companyID,
		TenantID:        input.TenantID,
		PropertyID:      input.PropertyID,
		UnitID:          input.UnitID,
		LeaseID:         input.LeaseID,
		Amount:          input.Amount,
		Currency:        currency,
		Method:          input.Method,
		Type:            input.Type,
		PaymentPeriod:   input.PaymentPeriod,
		ReferenceNumber: input.ReferenceNumber,
		Status:          enum.PaymentStatusPending,
		PaymentDate:     paymentDate,
		RecordedBy:      input.RecordedBy,
	}

	if err := payment.ValidateAmount(); err != nil {
		return nil, err
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		number, err := s.numbering.NextReceiptNumber(ctx, companyID)
		if err != nil {
			return err
		}
		payment.ReceiptNumber = number
		return s.paymentRepo.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// ApproveResult is the outcome of approving a payment, including the
// reconciliation outcome when the payment auto-matched an invoice
type ApproveResult struct {
	Payment *entity.Payment `json:"payment"`
	Link    *LinkResult     `json:"link,omitempty"`
}

// ApprovePayment moves a pending payment to approved and attempts to match
// it against the tenant's open invoices. The approval and any settlement it
// triggers share one transaction; events, email, and the completed stamp
// happen after commit.
func (s *PaymentService) ApprovePayment(ctx context.Context, id uuid.UUID) (*ApproveResult, error) {
	var payment *entity.Payment
	var link *LinkResult
	var events []event.BillingEvent

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.paymentRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return apperror.NewNotFoundError("Payment")
		}
		if err := payment.Approve(time.Now()); err != nil {
			return err
		}
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return err
		}
		events = append(events, event.NewPaymentApproved(
			payment.CompanyID, payment.ID, payment.TenantID, payment.Amount, payment.ReceiptNumber))

		// No candidate is fine and an unlinkable candidate is skipped
		// inside AutoMatchInTx; any other failure rolls the approval back
		var linkEvents []event.BillingEvent
		link, linkEvents, err = s.reconciliation.AutoMatchInTx(ctx, payment)
		if err != nil {
			return err
		}
		events = append(events, linkEvents...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events...)
	s.sendReceipt(ctx, payment)

	// Side effects dispatched; park the payment in its durable end state
	if err := payment.Complete(); err == nil {
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, enum.PaymentStatusCompleted); err != nil {
			s.logger.Warn().Err(err).
				Str("payment_id", payment.ID.String()).
				Msg("failed to stamp payment completed")
		}
	}

	return &ApproveResult{Payment: payment, Link: link}, nil
}

// RejectPayment moves a pending payment to rejected
func (s *PaymentService) RejectPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}

	if err := payment.Reject(time.Now()); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// LinkPayment manually links a payment to a specific invoice
func (s *PaymentService) LinkPayment(ctx context.Context, paymentID, invoiceID uuid.UUID) (*LinkResult, error) {
	return s.reconciliation.LinkPayment(ctx, paymentID, invoiceID)
}

// GetPayment retrieves a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return payment, nil
}

// ListPayments lists payments with filtering
func (s *PaymentService) ListPayments(ctx context.Context, params *repository.PaymentFilterParams) (*pagination.PaginatedResult[entity.Payment], error) {
	payments, total, err := s.paymentRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(payments, pag), nil
}

// DeletePayment removes a pending payment from the ledger
func (s *PaymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if payment == nil {
		return apperror.NewNotFoundError("Payment")
	}

	if err := payment.CanDelete(); err != nil {
		return err
	}

	return s.paymentRepo.Delete(ctx, id)
}

// sendReceipt emails a receipt to the tenant, fire-and-forget
func (s *PaymentService) sendReceipt(ctx context.Context, payment *entity.Payment) {
	if s.mailer == nil {
		return
	}

	tenant, err := s.tenantRepo.GetByID(ctx, payment.TenantID)
	if err != nil || tenant == nil || tenant.Email == nil || *tenant.Email == "" {
		return
	}

	details := email.ReceiptDetails{
		TenantName:    tenant.FullName(),
		ReceiptNumber: payment.ReceiptNumber,
		Amount:        payment.Amount.StringFixed(2),
		Currency:      payment.Currency,
		Method:        payment.Method.String(),
		PaymentDate:   payment.PaymentDate.Format("02 Jan 2006"),
	}
	toEmail := *tenant.Email

	go func() {
		if err := s.mailer.SendPaymentReceiptEmail(toEmail, details); err != nil {
			s.logger.Warn().Err(err).
				Str("payment_id", payment.ID.String()).
				Msg("failed to send receipt email")
		}
	}()
}
