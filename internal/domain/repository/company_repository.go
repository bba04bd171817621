package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/pkg/pagination"
)

// CompanyRepository defines the interface for company data operations
type CompanyRepository interface {
	// Create creates a new company
	Create(ctx context.Context, company *entity.Company) error

	// GetByID retrieves a company by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error)

	// GetBySlug retrieves a company by slug (subdomain identifier)
	GetBySlug(ctx context.Context, slug string) (*entity.Company, error)

	// Update updates an existing company
	Update(ctx context.Context, company *entity.Company) error

	// Delete soft-deletes a company
	Delete(ctx context.Context, id uuid.UUID) error

	// GetUserCompanies retrieves all companies a user belongs to with pagination
	GetUserCompanies(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams) ([]entity.Company, int64, error)

	// AddMember adds a user as a member of a company
	AddMember(ctx context.Context, membership *entity.CompanyMembership) error

	// RemoveMember removes a user from a company
	RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error

	// GetMembers retrieves all members of a company
	GetMembers(ctx context.Context, companyID uuid.UUID) ([]entity.CompanyMembership, error)

	// IsMember checks if a user is a member of a company
	IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error)

	// GetMembership retrieves a specific membership
	GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*entity.CompanyMembership, error)

	// UpdateMemberRole updates a member's role in a company
	UpdateMemberRole(ctx context.Context, companyID, userID uuid.UUID, role string) error

	// SlugExists checks if a slug is already taken
	SlugExists(ctx context.Context, slug string) (bool, error)

	// ListAll retrieves all companies (for super admin use)
	ListAll(ctx context.Context, params *pagination.PaginationParams) ([]entity.Company, int64, error)

	// Count returns the total number of companies
	Count(ctx context.Context) (int64, error)
}
