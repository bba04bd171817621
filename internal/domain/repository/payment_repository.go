package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create persists a new payment
	Create(ctx context.Context, payment *entity.Payment) error

	// GetByID retrieves a payment by ID within the company scope
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)

	// GetByReference retrieves a payment by its external transaction
	// reference within the company scope
	GetByReference(ctx context.Context, reference string) (*entity.Payment, error)

	// Update saves all payment fields
	Update(ctx context.Context, payment *entity.Payment) error

	// UpdateStatus sets only the payment status
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus) error

	// Delete soft-deletes a payment
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns payments matching the filter with pagination
	List(ctx context.Context, params *PaymentFilterParams) ([]entity.Payment, int64, error)

	// ListUnlinkedApproved returns approved payments with no invoice link,
	// ordered by payment date descending, for the auto-reconciliation sweep
	ListUnlinkedApproved(ctx context.Context) ([]entity.Payment, error)

	// SumSettledForInvoice returns the sum of amounts over payments linked
	// to the invoice with status approved or completed. Must observe writes
	// made earlier in the same transaction.
	SumSettledForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
}

// PaymentFilterParams contains filtering parameters for payment queries
type PaymentFilterParams struct {
	Pagination       *pagination.PaginationParams
	Search           string
	Status           *enum.PaymentStatus
	TenantID         *uuid.UUID
	InvoiceID        *uuid.UUID
	Method           *enum.PaymentMethod
	StartDate        *time.Time
	EndDate          *time.Time
	SortBy           string
	SortOrder        string
	SkipCompanyScope bool // If true, returns payments across companies (platform operator)
}
