package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create persists an invoice together with its line items atomically
	Create(ctx context.Context, invoice *entity.Invoice) error

	// GetByID retrieves an invoice by ID within the company scope
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)

	// GetByIDForUpdate retrieves an invoice with a row lock, for use inside
	// a transaction so concurrent settlements serialize on the invoice row
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)

	// GetWithLineItems retrieves an invoice with its line items preloaded
	GetWithLineItems(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)

	// Update saves all invoice fields
	Update(ctx context.Context, invoice *entity.Invoice) error

	// Delete soft-deletes an invoice and its line items
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns invoices matching the filter with pagination
	List(ctx context.Context, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)

	// ListOpenByTenant returns sent/overdue invoices for a tenant ordered by
	// due date ascending (oldest obligation first)
	ListOpenByTenant(ctx context.Context, tenantID uuid.UUID) ([]entity.Invoice, error)

	// ListSentDueBefore returns sent invoices whose due date has passed,
	// for the overdue sweep
	ListSentDueBefore(ctx context.Context, now time.Time) ([]entity.Invoice, error)

	// TransitionStatus flips the status only when the invoice is currently
	// in the expected state. Returns true when a row was updated.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enum.InvoiceStatus) (bool, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination       *pagination.PaginationParams
	Search           string
	Status           *enum.InvoiceStatus
	TenantID         *uuid.UUID
	PropertyID       *uuid.UUID
	StartDate        *time.Time
	EndDate          *time.Time
	SortBy           string
	SortOrder        string
	SkipCompanyScope bool // If true, returns invoices across companies (platform operator)
}
