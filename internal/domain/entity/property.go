package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Property represents a rental property managed by a company
type Property struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Address   string         `gorm:"type:text;not null" json:"address"`
	City      *string        `gorm:"size:100" json:"city,omitempty"`
	Notes     *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
	Units   []Unit  `gorm:"foreignKey:PropertyID" json:"units,omitempty"`
}

// BeforeCreate generates a UUID before creating a new property
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Property model
func (Property) TableName() string {
	return "properties"
}

// Unit represents a rentable unit within a property
type Unit struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	PropertyID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"property_id"`
	UnitNumber  string          `gorm:"size:50;not null" json:"unit_number"`
	Bedrooms    int             `gorm:"default:0" json:"bedrooms"`
	MonthlyRent decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"monthly_rent"`
	Occupied    bool            `gorm:"default:false" json:"occupied"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Property Property `gorm:"foreignKey:PropertyID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new unit
func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Unit model
func (Unit) TableName() string {
	return "units"
}
