package request

import "time"

// CreateTenantRequest represents a create tenant request
type CreateTenantRequest struct {
	FirstName string     `json:"first_name" binding:"required,min=2,max=255"`
	LastName  string     `json:"last_name" binding:"required,min=2,max=255"`
	Email     *string    `json:"email" binding:"omitempty,email"`
	Phone     *string    `json:"phone"`
	IDNumber  *string    `json:"id_number"`
	KRAPin    *string    `json:"kra_pin"`
	MovedInAt *time.Time `json:"moved_in_at"`
	Notes     *string    `json:"notes"`
}

// UpdateTenantRequest represents an update tenant request
type UpdateTenantRequest struct {
	FirstName  *string    `json:"first_name"`
	LastName   *string    `json:"last_name"`
	Email      *string    `json:"email" binding:"omitempty,email"`
	Phone      *string    `json:"phone"`
	IDNumber   *string    `json:"id_number"`
	KRAPin     *string    `json:"kra_pin"`
	MovedInAt  *time.Time `json:"moved_in_at"`
	MovedOutAt *time.Time `json:"moved_out_at"`
	Notes      *string    `json:"notes"`
}
