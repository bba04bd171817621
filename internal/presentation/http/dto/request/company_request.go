package request

import "github.com/kodisha/kodisha-api/internal/domain/entity"

// CreateCompanyRequest represents a create company request
type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}

// UpdateSettingsRequest represents a company settings update request
type UpdateSettingsRequest struct {
	Settings entity.CompanySettings `json:"settings" binding:"required"`
}

// AddMemberRequest represents a request to add a member to a company
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}
