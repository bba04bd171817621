package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment represents money received from a tenant, optionally linked to one
// invoice. Status transitions: pending -> {approved, rejected};
// approved -> completed. Rejected payments never count toward settlement.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_payments_company_receipt;uniqueIndex:idx_payments_company_reference" json:"company_id"`
	ReceiptNumber string     `gorm:"size:100;not null;uniqueIndex:idx_payments_company_receipt" json:"receipt_number"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PropertyID    *uuid.UUID `gorm:"type:uuid;index" json:"property_id,omitempty"`
	UnitID        *uuid.UUID `gorm:"type:uuid;index" json:"unit_id,omitempty"`
	LeaseID       *uuid.UUID `gorm:"type:uuid;index" json:"lease_id,omitempty"`

	// Nullable link to the invoice this payment settles. Set exactly once;
	// associations are never silently re-pointed.
	InvoiceID *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id,omitempty"`

	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency string          `gorm:"size:3;not null;default:'KES'" json:"currency"`

	Method        enum.PaymentMethod `gorm:"default:0" json:"payment_method"`
	Type          enum.PaymentType   `gorm:"default:0" json:"payment_type"`
	PaymentPeriod *string            `gorm:"size:100" json:"payment_period,omitempty"` // free-text billing period label

	// Gateway-supplied external reference, unique per company when present.
	// Used as the idempotency key against retried webhooks; NULLs are
	// distinct so manual payments without a reference never collide.
	ReferenceNumber *string `gorm:"size:255;uniqueIndex:idx_payments_company_reference" json:"reference_number,omitempty"`

	Status      enum.PaymentStatus `gorm:"default:0;index" json:"status"`
	PaymentDate time.Time          `gorm:"type:date;not null" json:"payment_date"`
	ProcessedAt *time.Time         `json:"processed_at,omitempty"`
	RecordedBy  uuid.UUID          `gorm:"type:uuid;not null" json:"recorded_by"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Company Company  `gorm:"foreignKey:CompanyID" json:"-"`
	Tenant  Tenant   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// ValidateAmount checks the payment amount at creation time
func (p *Payment) ValidateAmount() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return apperror.NewBadRequestError("Payment amount must be greater than zero")
	}
	return nil
}

// Approve transitions a pending payment to approved and stamps processed_at
func (p *Payment) Approve(now time.Time) error {
	if p.Status != enum.PaymentStatusPending {
		return apperror.NewInvalidStateError("Only pending payments can be approved")
	}
	p.Status = enum.PaymentStatusApproved
	p.ProcessedAt = &now
	return nil
}

// Reject transitions a pending payment to rejected
func (p *Payment) Reject(now time.Time) error {
	if p.Status != enum.PaymentStatusPending {
		return apperror.NewInvalidStateError("Only pending payments can be rejected")
	}
	p.Status = enum.PaymentStatusRejected
	p.ProcessedAt = &now
	return nil
}

// Complete transitions an approved payment to completed, the durable end
// state once post-approval side effects have been dispatched
func (p *Payment) Complete() error {
	if p.Status != enum.PaymentStatusApproved {
		return apperror.NewInvalidStateError("Only approved payments can be completed")
	}
	p.Status = enum.PaymentStatusCompleted
	return nil
}

// CanDelete reports whether the payment may be deleted. Only pending
// payments can be removed from the ledger.
func (p *Payment) CanDelete() error {
	if p.Status != enum.PaymentStatusPending {
		return apperror.NewInvalidStateError("Only pending payments can be deleted")
	}
	return nil
}

// LinkTo associates the payment with an invoice. Linking is idempotent when
// pointed at the same invoice and a hard conflict otherwise.
func (p *Payment) LinkTo(invoiceID uuid.UUID) error {
	if p.InvoiceID != nil {
		if *p.InvoiceID == invoiceID {
			return nil
		}
		return apperror.NewConflictError("Payment is already linked to another invoice")
	}
	p.InvoiceID = &invoiceID
	return nil
}

// IsLinkedTo reports whether the payment is already linked to the invoice
func (p *Payment) IsLinkedTo(invoiceID uuid.UUID) bool {
	return p.InvoiceID != nil && *p.InvoiceID == invoiceID
}
