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

type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) domainRepo.PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *entity.Property) error {
	return dbFor(ctx, r.db).WithContext(ctx).Create(property).Error
}

func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	var property entity.Property
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		First(&property, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &property, err
}

func (r *propertyRepository) GetWithUnits(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	var property entity.Property
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Preload("Units").
		First(&property, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &property, err
}

func (r *propertyRepository) Update(ctx context.Context, property *entity.Property) error {
	return dbFor(ctx, r.db).WithContext(ctx).Save(property).Error
}

func (r *propertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFor(ctx, r.db).WithContext(ctx).Delete(&entity.Property{}, "id = ?", id).Error
}

func (r *propertyRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Property, int64, error) {
	var properties []entity.Property
	var total int64

	query := dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Property{}).Scopes(CompanyScope(ctx))

	if search != "" {
		query = query.Where("name ILIKE ? OR address ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&properties).Error

	return properties, total, err
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *gorm.DB) domainRepo.UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) Create(ctx context.Context, unit *entity.Unit) error {
	return dbFor(ctx, r.db).WithContext(ctx).Create(unit).Error
}

func (r *unitRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Unit, error) {
	var unit entity.Unit
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		First(&unit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &unit, err
}

func (r *unitRepository) Update(ctx context.Context, unit *entity.Unit) error {
	return dbFor(ctx, r.db).WithContext(ctx).Save(unit).Error
}

func (r *unitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFor(ctx, r.db).WithContext(ctx).Delete(&entity.Unit{}, "id = ?", id).Error
}

func (r *unitRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]entity.Unit, error) {
	var units []entity.Unit
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Where("property_id = ?", propertyID).
		Order("unit_number ASC").
		Find(&units).Error
	return units, err
}
