package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest represents a create payment request
type CreatePaymentRequest struct {
	TenantID        uuid.UUID          `json:"tenant_id" binding:"required"`
	PropertyID      *uuid.UUID         `json:"property_id"`
	UnitID          *uuid.UUID         `json:"unit_id"`
	LeaseID         *uuid.UUID         `json:"lease_id"`
	Amount          decimal.Decimal    `json:"amount" binding:"required"`
	Method          enum.PaymentMethod `json:"method"`
	Type            enum.PaymentType   `json:"type"`
	PaymentPeriod   *string            `json:"payment_period"`
	ReferenceNumber *string            `json:"reference_number"`
	PaymentDate     *time.Time         `json:"payment_date"`
}

// LinkInvoiceRequest represents a request to link a payment to an invoice
type LinkInvoiceRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}
