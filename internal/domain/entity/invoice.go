package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice represents a billing obligation issued to a tenant.
// Status transitions: draft -> sent -> {overdue, paid, canceled}; overdue -> paid.
// Paid and canceled are terminal.
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID     uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_company_number" json:"company_id"`
	InvoiceNumber string             `gorm:"size:100;not null;uniqueIndex:idx_invoices_company_number" json:"invoice_number"`
	IssuedBy      uuid.UUID          `gorm:"type:uuid;not null;index" json:"issued_by"`
	IssuedTo      uuid.UUID          `gorm:"type:uuid;not null;index" json:"issued_to"`
	PropertyID    *uuid.UUID         `gorm:"type:uuid;index" json:"property_id,omitempty"`
	UnitID        *uuid.UUID         `gorm:"type:uuid;index" json:"unit_id,omitempty"`
	Subtotal      decimal.Decimal    `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	TaxAmount     decimal.Decimal    `gorm:"type:numeric(12,2);default:0" json:"tax_amount"`
	Discount      decimal.Decimal    `gorm:"type:numeric(12,2);default:0" json:"discount_amount"`
	TotalAmount   decimal.Decimal    `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Currency      string             `gorm:"size:3;not null;default:'KES'" json:"currency"`
	IssueDate     time.Time          `gorm:"type:date;not null" json:"issue_date"`
	DueDate       time.Time          `gorm:"type:date;not null" json:"due_date"`
	PaidDate      *time.Time         `json:"paid_date,omitempty"`
	Status        enum.InvoiceStatus `gorm:"default:0;index" json:"status"`

	// Payment summary fields populated on settlement
	PaymentMethod    *enum.PaymentMethod `json:"payment_method,omitempty"`
	PaymentReference *string             `gorm:"size:100" json:"payment_reference,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Company   Company           `gorm:"foreignKey:CompanyID" json:"-"`
	Tenant    Tenant            `gorm:"foreignKey:IssuedTo" json:"tenant,omitempty"`
	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// ValidateTotals checks the header arithmetic at creation time.
// Line items are advisory and are not required to sum to the total.
func (i *Invoice) ValidateTotals() error {
	if i.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return apperror.NewBadRequestError("Invoice total must be greater than zero")
	}
	if i.Subtotal.IsNegative() || i.TaxAmount.IsNegative() || i.Discount.IsNegative() {
		return apperror.NewBadRequestError("Invoice amounts cannot be negative")
	}
	expected := i.Subtotal.Add(i.TaxAmount).Sub(i.Discount)
	if !i.TotalAmount.Equal(expected) {
		return apperror.NewBadRequestError("Invoice total must equal subtotal plus tax minus discount")
	}
	return nil
}

// Send transitions the invoice from draft to sent
func (i *Invoice) Send() error {
	if i.Status != enum.InvoiceStatusDraft {
		return apperror.NewInvalidStateError("Only draft invoices can be sent")
	}
	i.Status = enum.InvoiceStatusSent
	return nil
}

// MarkOverdue transitions a sent invoice to overdue. Returns false without
// error when the invoice is already overdue, so sweeps can re-run safely.
func (i *Invoice) MarkOverdue() (bool, error) {
	switch i.Status {
	case enum.InvoiceStatusSent:
		i.Status = enum.InvoiceStatusOverdue
		return true, nil
	case enum.InvoiceStatusOverdue:
		return false, nil
	default:
		return false, apperror.NewInvalidStateError("Only sent invoices can be marked overdue")
	}
}

// MarkPaid settles the invoice. Returns false without error when the invoice
// is already paid, so duplicate reconciliation triggers are tolerated.
func (i *Invoice) MarkPaid(method enum.PaymentMethod, reference string, paidDate time.Time) (bool, error) {
	switch i.Status {
	case enum.InvoiceStatusPaid:
		return false, nil
	case enum.InvoiceStatusSent, enum.InvoiceStatusOverdue:
		i.Status = enum.InvoiceStatusPaid
		i.PaidDate = &paidDate
		i.PaymentMethod = &method
		i.PaymentReference = &reference
		return true, nil
	default:
		return false, apperror.NewInvalidStateError("Only sent or overdue invoices can be marked paid")
	}
}

// Cancel voids the invoice. Only draft and sent invoices can be canceled.
func (i *Invoice) Cancel() error {
	switch i.Status {
	case enum.InvoiceStatusDraft, enum.InvoiceStatusSent:
		i.Status = enum.InvoiceStatusCanceled
		return nil
	case enum.InvoiceStatusPaid:
		return apperror.NewInvalidStateError("Cannot cancel a paid invoice")
	default:
		return apperror.NewInvalidStateError("Only draft or sent invoices can be canceled")
	}
}

// CanDelete reports whether the invoice may be physically deleted.
// Paid invoices are never deleted.
func (i *Invoice) CanDelete() error {
	if i.Status == enum.InvoiceStatusPaid {
		return apperror.NewConflictError("Cannot delete a paid invoice")
	}
	return nil
}

// InvoiceLineItem represents a line item on an invoice
type InvoiceLineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Meta        LineItemMeta    `gorm:"type:jsonb" json:"meta"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relationships
	Invoice Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new line item
func (li *InvoiceLineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceLineItem model
func (InvoiceLineItem) TableName() string {
	return "invoice_line_items"
}

// LineItemMeta classifies a line item by kind with a utility type for
// utility charges and an opaque key/value map for anything else.
type LineItemMeta struct {
	Kind        enum.LineItemKind `json:"kind"`
	UtilityType string            `json:"utility_type,omitempty"` // water, electricity, garbage, ...
	Extra       map[string]string `json:"extra,omitempty"`
}

// Scan implements the sql.Scanner interface for LineItemMeta
func (m *LineItemMeta) Scan(value interface{}) error {
	if value == nil {
		*m = LineItemMeta{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItemMeta: unsupported type")
	}

	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for LineItemMeta
func (m LineItemMeta) Value() (driver.Value, error) {
	return json.Marshal(m)
}
