package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/pagination"
	"github.com/kodisha/kodisha-api/pkg/utils"
)

// CompanyService handles company (SaaS tenancy) operations
type CompanyService struct {
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
	tx          repository.TransactionManager
}

// NewCompanyService creates a new company service
func NewCompanyService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	tx repository.TransactionManager,
) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		tx:          tx,
	}
}

// CreateCompanyInput represents the create company input
type CreateCompanyInput struct {
	Name    string
	OwnerID uuid.UUID
}

// CreateCompany creates a new company with the creator as owner member
func (s *CompanyService) CreateCompany(ctx context.Context, input *CreateCompanyInput) (*entity.Company, error) {
	slug := utils.Slugify(input.Name)
	if slug == "" {
		return nil, apperror.NewBadRequestError("Company name must contain letters or digits")
	}

	// Append a short suffix until the slug is free
	base := slug
	for i := 2; ; i++ {
		exists, err := s.companyRepo.SlugExists(ctx, slug)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	company := &entity.Company{
		Name:     input.Name,
		Slug:     slug,
		OwnerID:  input.OwnerID,
		Settings: entity.DefaultCompanySettings(),
	}

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.companyRepo.Create(ctx, company); err != nil {
			return err
		}
		return s.companyRepo.AddMember(ctx, &entity.CompanyMembership{
			CompanyID: company.ID,
			UserID:    input.OwnerID,
			Role:      "owner",
		})
	})
	if err != nil {
		return nil, err
	}

	return company, nil
}

// GetCompany retrieves a company by ID
func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, apperror.NewNotFoundError("Company")
	}
	return company, nil
}

// GetUserCompanies lists the companies a user belongs to
func (s *CompanyService) GetUserCompanies(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Company], error) {
	companies, total, err := s.companyRepo.GetUserCompanies(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(companies, pag), nil
}

// UpdateSettingsInput represents the update settings input
type UpdateSettingsInput struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	Settings  entity.CompanySettings
}

// UpdateSettings replaces the company settings. Only owners and admins may
// change them.
func (s *CompanyService) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*entity.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, apperror.NewNotFoundError("Company")
	}

	membership, err := s.companyRepo.GetMembership(ctx, input.CompanyID, input.UserID)
	if err != nil {
		return nil, err
	}
	if membership == nil || (membership.Role != "owner" && membership.Role != "admin") {
		return nil, apperror.ErrForbidden
	}

	company.Settings = input.Settings
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// AddMemberInput represents the add member input
type AddMemberInput struct {
	CompanyID uuid.UUID
	ActorID   uuid.UUID
	Email     string
	Role      string
}

// AddMember adds an existing user to the company
func (s *CompanyService) AddMember(ctx context.Context, input *AddMemberInput) (*entity.CompanyMembership, error) {
	membership, err := s.companyRepo.GetMembership(ctx, input.CompanyID, input.ActorID)
	if err != nil {
		return nil, err
	}
	if membership == nil || (membership.Role != "owner" && membership.Role != "admin") {
		return nil, apperror.ErrForbidden
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}

	isMember, err := s.companyRepo.IsMember(ctx, input.CompanyID, user.ID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, apperror.NewConflictError("User is already a member of this company")
	}

	role := input.Role
	if role == "" {
		role = "member"
	}

	newMembership := &entity.CompanyMembership{
		CompanyID: input.CompanyID,
		UserID:    user.ID,
		Role:      role,
	}
	if err := s.companyRepo.AddMember(ctx, newMembership); err != nil {
		return nil, err
	}
	return newMembership, nil
}

// RemoveMember removes a user from the company. The owner cannot be removed.
func (s *CompanyService) RemoveMember(ctx context.Context, companyID, actorID, userID uuid.UUID) error {
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return apperror.NewNotFoundError("Company")
	}
	if company.OwnerID == userID {
		return apperror.NewBadRequestError("The company owner cannot be removed")
	}

	membership, err := s.companyRepo.GetMembership(ctx, companyID, actorID)
	if err != nil {
		return err
	}
	if membership == nil || (membership.Role != "owner" && membership.Role != "admin") {
		return apperror.ErrForbidden
	}

	return s.companyRepo.RemoveMember(ctx, companyID, userID)
}

// GetMembers lists company members with user details populated
func (s *CompanyService) GetMembers(ctx context.Context, companyID uuid.UUID) ([]entity.CompanyMembership, error) {
	members, err := s.companyRepo.GetMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].PopulateUserDetails()
	}
	return members, nil
}

// IsMember reports whether the user belongs to the company
func (s *CompanyService) IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	return s.companyRepo.IsMember(ctx, companyID, userID)
}
