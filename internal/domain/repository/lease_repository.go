package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// LeaseRepository defines the interface for lease data operations
type LeaseRepository interface {
	Create(ctx context.Context, lease *entity.Lease) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Lease, error)
	Update(ctx context.Context, lease *entity.Lease) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.Lease, int64, error)
	// GetActiveByTenant returns the tenant's current active lease, nil when none
	GetActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*entity.Lease, error)
	// ListActive returns all active leases in scope, for invoice generation
	ListActive(ctx context.Context) ([]entity.Lease, error)
}
