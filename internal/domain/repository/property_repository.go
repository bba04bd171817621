package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// PropertyRepository defines the interface for property data operations
type PropertyRepository interface {
	Create(ctx context.Context, property *entity.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Property, error)
	GetWithUnits(ctx context.Context, id uuid.UUID) (*entity.Property, error)
	Update(ctx context.Context, property *entity.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Property, int64, error)
}

// UnitRepository defines the interface for unit data operations
type UnitRepository interface {
	Create(ctx context.Context, unit *entity.Unit) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Unit, error)
	Update(ctx context.Context, unit *entity.Unit) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]entity.Unit, error)
}
