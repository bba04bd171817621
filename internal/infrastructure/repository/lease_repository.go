package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	domainRepo "github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/pkg/pagination"
	"gorm.io/gorm"
)

type leaseRepository struct {
	db *gorm.DB
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db *gorm.DB) domainRepo.LeaseRepository {
	return &leaseRepository{db: db}
}

func (r *leaseRepository) Create(ctx context.Context, lease *entity.Lease) error {
	return dbFor(ctx, r.db).WithContext(ctx).Create(lease).Error
}

func (r *leaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Lease, error) {
	var lease entity.Lease
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Preload("Tenant").
		First(&lease, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &lease, err
}

func (r *leaseRepository) Update(ctx context.Context, lease *entity.Lease) error {
	return dbFor(ctx, r.db).WithContext(ctx).Save(lease).Error
}

func (r *leaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFor(ctx, r.db).WithContext(ctx).Delete(&entity.Lease{}, "id = ?", id).Error
}

func (r *leaseRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.Lease, int64, error) {
	var leases []entity.Lease
	var total int64

	query := dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Lease{}).Scopes(CompanyScope(ctx))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Preload("Tenant").
		Order("start_date DESC").
		Find(&leases).Error

	return leases, total, err
}

func (r *leaseRepository) GetActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*entity.Lease, error) {
	var lease entity.Lease
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("start_date DESC").
		First(&lease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &lease, err
}

func (r *leaseRepository) ListActive(ctx context.Context) ([]entity.Lease, error) {
	var leases []entity.Lease
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Where("active = ?", true).
		Preload("Tenant").
		Find(&leases).Error
	return leases, err
}
