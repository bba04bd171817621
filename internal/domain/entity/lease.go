package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Lease represents a rental agreement between a tenant and a unit
type Lease struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"property_id"`
	UnitID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	RentAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"rent_amount"`
	DepositAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"deposit_amount"`
	StartDate     time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate       *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	Active        bool            `gorm:"default:true" json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Tenant   Tenant   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Property Property `gorm:"foreignKey:PropertyID" json:"-"`
	Unit     Unit     `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}

// BeforeCreate generates a UUID before creating a new lease
func (l *Lease) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Lease model
func (Lease) TableName() string {
	return "leases"
}
