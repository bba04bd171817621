package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	infraRepo "github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// PropertyService handles properties and their units
type PropertyService struct {
	propertyRepo repository.PropertyRepository
	unitRepo     repository.UnitRepository
}

// NewPropertyService creates a new property service
func NewPropertyService(
	propertyRepo repository.PropertyRepository,
	unitRepo repository.UnitRepository,
) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
	}
}

// CreatePropertyInput represents the create property input
type CreatePropertyInput struct {
	Name    string
	Address string
	City    *string
	Notes   *string
}

// CreateProperty registers a new property under the current company
func (s *PropertyService) CreateProperty(ctx context.Context, input *CreatePropertyInput) (*entity.Property, error) {
	companyID, ok := infraRepo.GetCompanyID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Company context required")
	}

	property := &entity.Property{
		CompanyID: companyID,
		Name:      input.Name,
		Address:   input.Address,
		City:      input.City,
		Notes:     input.Notes,
	}

	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// GetProperty retrieves a property with its units
func (s *PropertyService) GetProperty(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	property, err := s.propertyRepo.GetWithUnits(ctx, id)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, apperror.NewNotFoundError("Property")
	}
	return property, nil
}

// ListProperties lists properties with optional search
func (s *PropertyService) ListProperties(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Property], error) {
	properties, total, err := s.propertyRepo.List(ctx, params, search)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(properties, pag), nil
}

// UpdatePropertyInput represents the update property input
type UpdatePropertyInput struct {
	Name    *string
	Address *string
	City    *string
	Notes   *string
}

// UpdateProperty updates a property record
func (s *PropertyService) UpdateProperty(ctx context.Context, id uuid.UUID, input *UpdatePropertyInput) (*entity.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, apperror.NewNotFoundError("Property")
	}

	if input.Name != nil {
		property.Name = *input.Name
	}
	if input.Address != nil {
		property.Address = *input.Address
	}
	if input.City != nil {
		property.City = input.City
	}
	if input.Notes != nil {
		property.Notes = input.Notes
	}

	if err := s.propertyRepo.Update(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// DeleteProperty removes a property and its units
func (s *PropertyService) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if property == nil {
		return apperror.NewNotFoundError("Property")
	}

	return s.propertyRepo.Delete(ctx, id)
}

// CreateUnitInput represents the create unit input
type CreateUnitInput struct {
	PropertyID  uuid.UUID
	UnitNumber  string
	Bedrooms    int
	MonthlyRent decimal.Decimal
}

// CreateUnit adds a unit to a property
func (s *PropertyService) CreateUnit(ctx context.Context, input *CreateUnitInput) (*entity.Unit, error) {
	companyID, ok := infraRepo.GetCompanyID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Company context required")
	}

	property, err := s.propertyRepo.GetByID(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, apperror.NewNotFoundError("Property")
	}

	if input.MonthlyRent.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.NewBadRequestError("Monthly rent must be greater than zero")
	}

	unit := &entity.Unit{
		CompanyID:   companyID,
		PropertyID:  input.PropertyID,
		UnitNumber:  input.UnitNumber,
		Bedrooms:    input.Bedrooms,
		MonthlyRent: input.MonthlyRent,
	}

	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// ListUnits lists the units of a property
func (s *PropertyService) ListUnits(ctx context.Context, propertyID uuid.UUID) ([]entity.Unit, error) {
	return s.unitRepo.ListByProperty(ctx, propertyID)
}

// DeleteUnit removes a unit. Occupied units cannot be deleted.
func (s *PropertyService) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	unit, err := s.unitRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if unit == nil {
		return apperror.NewNotFoundError("Unit")
	}
	if unit.Occupied {
		return apperror.NewConflictError("Unit is currently occupied")
	}

	return s.unitRepo.Delete(ctx, id)
}
