package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	infraRepo "github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// InvoiceService handles invoice lifecycle operations
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	tenantRepo  repository.TenantRepository
	companyRepo repository.CompanyRepository
	numbering   *NumberingService
	tx          repository.TransactionManager
	publisher   event.Publisher
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	tenantRepo repository.TenantRepository,
	companyRepo repository.CompanyRepository,
	numbering *NumberingService,
	tx repository.TransactionManager,
	publisher event.Publisher,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		tenantRepo:  tenantRepo,
		companyRepo: companyRepo,
		numbering:   numbering,
		tx:          tx,
		publisher:   publisher,
	}
}

// LineItemInput represents a line item on a new invoice
type LineItemInput struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Kind        enum.LineItemKind
	UtilityType string
}

// CreateInvoiceInput represents the create invoice input
type CreateInvoiceInput struct {
	IssuedBy   uuid.UUID
	TenantID   uuid.UUID
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	IssueDate  *time.Time
	DueDate    *time.Time
	Discount   decimal.Decimal
	Items      []LineItemInput
}

// CreateInvoice creates a draft invoice. The invoice number comes from the
// company's counter inside the same transaction as the insert, so a failed
// insert never leaves a number pointing at nothing.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
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
	settings := company.Settings

	if len(input.Items) == 0 {
		return nil, apperror.NewBadRequestError("Invoice requires at least one line item")
	}

	// Compute header amounts from line items
	subtotal := decimal.Zero
	lineItems := make([]entity.InvoiceLineItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperror.NewBadRequestError("Line item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, apperror.NewBadRequestError("Line item unit price cannot be negative")
		}
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		lineItems = append(lineItems, entity.InvoiceLineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  lineTotal,
			Meta: entity.LineItemMeta{
				Kind:        item.Kind,
				UtilityType: item.UtilityType,
			},
		})
	}

	taxRate := decimal.NewFromFloat(settings.TaxRate).Div(decimal.NewFromInt(100))
	taxAmount := subtotal.Mul(taxRate).Round(2)
	discount := input.Discount
	if discount.IsNegative() {
		return nil, apperror.NewBadRequestError("Discount cannot be negative")
	}
	total := subtotal.Add(taxAmount).Sub(discount)

	issueDate := time.Now()
	if input.IssueDate != nil {
		issueDate = *input.IssueDate
	}
	dueDate := issueDate.AddDate(0, 0, settings.DefaultDueInDays)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}
	if dueDate.Before(issueDate) {
		return nil, apperror.NewBadRequestError("Due date cannot be before issue date")
	}

	currency := settings.Currency
	if currency == "" {
		currency = "KES"
	}

	invoice := &entity.Invoice{
		CompanyID:   companyID,
		IssuedBy:    input.IssuedBy,
		IssuedTo:    input.TenantID,
		PropertyID:  input.PropertyID,
		UnitID:      input.UnitID,
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		Discount:    discount,
		TotalAmount: total,
		Currency:    currency,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Status:      enum.InvoiceStatusDraft,
		LineItems:   lineItems,
	}

	if err := invoice.ValidateTotals(); err != nil {
		return nil, err
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		number, err := s.numbering.NextInvoiceNumber(ctx, companyID)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
		return s.invoiceRepo.Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	return s.invoiceRepo.GetWithLineItems(ctx, invoice.ID)
}

// GetInvoice retrieves an invoice with its line items
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetWithLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, params *repository.InvoiceFilterParams) (*pagination.PaginatedResult[entity.Invoice], error) {
	invoices, total, err := s.invoiceRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// SendInvoice transitions a draft invoice to sent, making it payable
func (s *InvoiceService) SendInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}

	if err := invoice.Send(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// MarkInvoicePaidInput represents the manual settle input
type MarkInvoicePaidInput struct {
	InvoiceID uuid.UUID
	Method    enum.PaymentMethod
	Reference string
	PaidDate  *time.Time
}

// MarkInvoicePaid settles an invoice directly, for money received outside
// the payment ledger. An already paid invoice is returned unchanged so
// duplicate triggers are harmless.
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, input *MarkInvoicePaidInput) (*entity.Invoice, error) {
	var invoice *entity.Invoice
	var changed bool

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.GetByIDForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return apperror.NewNotFoundError("Invoice")
		}

		paidDate := time.Now()
		if input.PaidDate != nil {
			paidDate = *input.PaidDate
		}

		changed, err = invoice.MarkPaid(input.Method, input.Reference, paidDate)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.invoiceRepo.Update(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publisher.Publish(event.NewInvoicePaid(
			invoice.CompanyID, invoice.ID, invoice.IssuedTo, invoice.TotalAmount, invoice.InvoiceNumber))
	}

	return invoice, nil
}

// CancelInvoice voids a draft or sent invoice
func (s *InvoiceService) CancelInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}

	if err := invoice.Cancel(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// DeleteInvoice removes an invoice. Paid invoices are never deleted.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return apperror.NewNotFoundError("Invoice")
	}

	if err := invoice.CanDelete(); err != nil {
		return err
	}

	return s.invoiceRepo.Delete(ctx, id)
}
