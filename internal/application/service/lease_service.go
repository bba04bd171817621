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
	"github.com/shopspring/decimal"
)

// LeaseService handles lease agreements between tenants and units
type LeaseService struct {
	leaseRepo  repository.LeaseRepository
	tenantRepo repository.TenantRepository
	unitRepo   repository.UnitRepository
	tx         repository.TransactionManager
}

// NewLeaseService creates a new lease service
func NewLeaseService(
	leaseRepo repository.LeaseRepository,
	tenantRepo repository.TenantRepository,
	unitRepo repository.UnitRepository,
	tx repository.TransactionManager,
) *LeaseService {
	return &LeaseService{
		leaseRepo:  leaseRepo,
		tenantRepo: tenantRepo,
		unitRepo:   unitRepo,
		tx:         tx,
	}
}

// CreateLeaseInput represents the create lease input
type CreateLeaseInput struct {
	TenantID      uuid.UUID
	UnitID        uuid.UUID
	RentAmount    decimal.Decimal
	DepositAmount decimal.Decimal
	StartDate     time.Time
	EndDate       *time.Time
}

// CreateLease signs a tenant onto a unit and marks the unit occupied
func (s *LeaseService) CreateLease(ctx context.Context, input *CreateLeaseInput) (*entity.Lease, error) {
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

	unit, err := s.unitRepo.GetByID(ctx, input.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, apperror.NewNotFoundError("Unit")
	}
	if unit.Occupied {
		return nil, apperror.NewConflictError("Unit is already occupied")
	}

	existing, err := s.leaseRepo.GetActiveByTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Tenant already has an active lease")
	}

	if input.RentAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.NewBadRequestError("Rent amount must be greater than zero")
	}
	if input.DepositAmount.IsNegative() {
		return nil, apperror.NewBadRequestError("Deposit amount cannot be negative")
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, apperror.NewBadRequestError("Lease end date cannot be before start date")
	}

	lease := &entity.Lease{
		CompanyID:     companyID,
		TenantID:      input.TenantID,
		PropertyID:    unit.PropertyID,
		UnitID:        input.UnitID,
		RentAmount:    input.RentAmount,
		DepositAmount: input.DepositAmount,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Active:        true,
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.leaseRepo.Create(ctx, lease); err != nil {
			return err
		}
		unit.Occupied = true
		return s.unitRepo.Update(ctx, unit)
	})
	if err != nil {
		return nil, err
	}

	return lease, nil
}

// GetLease retrieves a lease by ID
func (s *LeaseService) GetLease(ctx context.Context, id uuid.UUID) (*entity.Lease, error) {
	lease, err := s.leaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lease == nil {
		return nil, apperror.NewNotFoundError("Lease")
	}
	return lease, nil
}

// ListLeases lists leases for the current company
func (s *LeaseService) ListLeases(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Lease], error) {
	leases, total, err := s.leaseRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(leases, pag), nil
}

// TerminateLease ends a lease and frees the unit
func (s *LeaseService) TerminateLease(ctx context.Context, id uuid.UUID, endDate time.Time) (*entity.Lease, error) {
	lease, err := s.leaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lease == nil {
		return nil, apperror.NewNotFoundError("Lease")
	}
	if !lease.Active {
		return nil, apperror.NewInvalidStateError("Lease is not active")
	}

	unit, err := s.unitRepo.GetByID(ctx, lease.UnitID)
	if err != nil {
		return nil, err
	}

	lease.Active = false
	lease.EndDate = &endDate

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.leaseRepo.Update(ctx, lease); err != nil {
			return err
		}
		if unit != nil {
			unit.Occupied = false
			return s.unitRepo.Update(ctx, unit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lease, nil
}

// DeleteLease removes a lease record. Active leases must be terminated first.
func (s *LeaseService) DeleteLease(ctx context.Context, id uuid.UUID) error {
	lease, err := s.leaseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lease == nil {
		return apperror.NewNotFoundError("Lease")
	}
	if lease.Active {
		return apperror.NewConflictError("Active leases cannot be deleted")
	}

	return s.leaseRepo.Delete(ctx, id)
}
