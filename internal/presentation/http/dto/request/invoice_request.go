package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// LineItemRequest represents a single line item on a new invoice
type LineItemRequest struct {
	Description string            `json:"description" binding:"required,max=255"`
	Quantity    int               `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal   `json:"unit_price" binding:"required"`
	Kind        enum.LineItemKind `json:"kind"`
	UtilityType string            `json:"utility_type"`
}

// CreateInvoiceRequest represents a create invoice request
type CreateInvoiceRequest struct {
	TenantID   uuid.UUID         `json:"tenant_id" binding:"required"`
	PropertyID *uuid.UUID        `json:"property_id"`
	UnitID     *uuid.UUID        `json:"unit_id"`
	IssueDate  *time.Time        `json:"issue_date"`
	DueDate    *time.Time        `json:"due_date"`
	Discount   decimal.Decimal   `json:"discount"`
	Items      []LineItemRequest `json:"items" binding:"required,min=1,dive"`
}

// MarkInvoicePaidRequest represents a manual settle request for money
// received outside the payment ledger
type MarkInvoicePaidRequest struct {
	Method    enum.PaymentMethod `json:"payment_method"`
	Reference string             `json:"payment_reference" binding:"required,max=100"`
	PaidDate  *time.Time         `json:"paid_date"`
}

// LinkPaymentRequest represents a request to link a payment to an invoice
type LinkPaymentRequest struct {
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
}
