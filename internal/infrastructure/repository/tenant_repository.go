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

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant (renter) repository
func NewTenantRepository(db *gorm.DB) domainRepo.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	return dbFor(ctx, r.db).WithContext(ctx).Create(tenant).Error
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	var tenant entity.Tenant
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &tenant, err
}

func (r *tenantRepository) GetByEmail(ctx context.Context, email string) (*entity.Tenant, error) {
	var tenant entity.Tenant
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		First(&tenant, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &tenant, err
}

func (r *tenantRepository) Update(ctx context.Context, tenant *entity.Tenant) error {
	return dbFor(ctx, r.db).WithContext(ctx).Save(tenant).Error
}

func (r *tenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFor(ctx, r.db).WithContext(ctx).Delete(&entity.Tenant{}, "id = ?", id).Error
}

func (r *tenantRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Tenant, int64, error) {
	var tenants []entity.Tenant
	var total int64

	query := dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Tenant{}).Scopes(CompanyScope(ctx))

	if search != "" {
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&tenants).Error

	return tenants, total, err
}
