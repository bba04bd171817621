package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	infraRepo "github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// TenantService handles renter records
type TenantService struct {
	tenantRepo repository.TenantRepository
	leaseRepo  repository.LeaseRepository
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenantRepo repository.TenantRepository,
	leaseRepo repository.LeaseRepository,
) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		leaseRepo:  leaseRepo,
	}
}

// CreateTenantInput represents the create tenant input
type CreateTenantInput struct {
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	IDNumber  *string
	KRAPin    *string
	MovedInAt *time.Time
	Notes     *string
}

// CreateTenant registers a new renter under the current company
func (s *TenantService) CreateTenant(ctx context.Context, input *CreateTenantInput) (*entity.Tenant, error) {
	companyID, ok := infraRepo.GetCompanyID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Company context required")
	}

	if input.Email != nil && *input.Email != "" {
		existing, err := s.tenantRepo.GetByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewConflictError("A tenant with this email already exists")
		}
	}

	tenant := &entity.Tenant{
		CompanyID: companyID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		IDNumber:  input.IDNumber,
		KRAPin:    input.KRAPin,
		MovedInAt: input.MovedInAt,
		Notes:     input.Notes,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// GetTenant retrieves a tenant by ID
func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.NewNotFoundError("Tenant")
	}
	return tenant, nil
}

// ListTenants lists tenants with optional search
func (s *TenantService) ListTenants(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Tenant], error) {
	tenants, total, err := s.tenantRepo.List(ctx, params, search)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(tenants, pag), nil
}

// UpdateTenantInput represents the update tenant input
type UpdateTenantInput struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	IDNumber   *string
	KRAPin     *string
	MovedInAt  *time.Time
	MovedOutAt *time.Time
	Notes      *string
}

// UpdateTenant updates a tenant record
func (s *TenantService) UpdateTenant(ctx context.Context, id uuid.UUID, input *UpdateTenantInput) (*entity.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.NewNotFoundError("Tenant")
	}

	if input.FirstName != nil {
		tenant.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		tenant.LastName = *input.LastName
	}
	if input.Email != nil {
		tenant.Email = input.Email
	}
	if input.Phone != nil {
		tenant.Phone = input.Phone
	}
	if input.IDNumber != nil {
		tenant.IDNumber = input.IDNumber
	}
	if input.KRAPin != nil {
		tenant.KRAPin = input.KRAPin
	}
	if input.MovedInAt != nil {
		tenant.MovedInAt = input.MovedInAt
	}
	if input.MovedOutAt != nil {
		tenant.MovedOutAt = input.MovedOutAt
	}
	if input.Notes != nil {
		tenant.Notes = input.Notes
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// DeleteTenant removes a tenant. Tenants with an active lease cannot be
// deleted.
func (s *TenantService) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tenant == nil {
		return apperror.NewNotFoundError("Tenant")
	}

	lease, err := s.leaseRepo.GetActiveByTenant(ctx, id)
	if err != nil {
		return err
	}
	if lease != nil {
		return apperror.NewConflictError("Tenant has an active lease")
	}

	return s.tenantRepo.Delete(ctx, id)
}
