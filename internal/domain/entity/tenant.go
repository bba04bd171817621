package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents a renter occupying a unit. Not to be confused with the
// SaaS tenancy boundary, which is the Company.
type Tenant struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	FirstName  string         `gorm:"size:255;not null" json:"first_name"`
	LastName   string         `gorm:"size:255;not null" json:"last_name"`
	Email      *string        `gorm:"size:255" json:"email,omitempty"`
	Phone      *string        `gorm:"size:50" json:"phone,omitempty"`
	IDNumber   *string        `gorm:"size:50;column:id_number" json:"id_number,omitempty"`
	KRAPin     *string        `gorm:"size:50;column:kra_pin" json:"kra_pin,omitempty"`
	Notes      *string        `gorm:"type:text" json:"notes,omitempty"`
	MovedInAt  *time.Time     `json:"moved_in_at,omitempty"`
	MovedOutAt *time.Time     `json:"moved_out_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
	Leases  []Lease `gorm:"foreignKey:TenantID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new tenant
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// FullName returns the tenant's display name
func (t *Tenant) FullName() string {
	return t.FirstName + " " + t.LastName
}
