package entity

import (
	"time"

	"github.com/google/uuid"
)

// NumberSequence is a named, monotonically increasing counter scoped to a
// company. Used for invoice and receipt numbers. Increments happen through
// an atomic upsert so concurrent callers never observe the same value.
type NumberSequence struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sequences_company_name" json:"company_id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex:idx_sequences_company_name" json:"name"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the NumberSequence model
func (NumberSequence) TableName() string {
	return "number_sequences"
}

// Well-known sequence names
const (
	SequenceInvoice = "invoice"
	SequenceReceipt = "receipt"
)
