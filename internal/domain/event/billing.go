package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event names consumed by the notification collaborator
const (
	InvoicePaid     = "invoice.paid"
	InvoiceOverdue  = "invoice.overdue"
	PaymentApproved = "payment.approved"
	PaymentLinked   = "payment.linked"
)

// BillingEvent is an outbound event emitted after a ledger mutation commits.
// Delivery is fire-and-forget; failures never roll back the mutation.
type BillingEvent struct {
	Name       string          `json:"name"`
	CompanyID  uuid.UUID       `json:"company_id"`
	InvoiceID  *uuid.UUID      `json:"invoice_id,omitempty"`
	PaymentID  *uuid.UUID      `json:"payment_id,omitempty"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference,omitempty"` // invoice or receipt number
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewInvoicePaid builds an invoice.paid event
func NewInvoicePaid(companyID, invoiceID, tenantID uuid.UUID, total decimal.Decimal, invoiceNumber string) BillingEvent {
	return BillingEvent{
		Name:       InvoicePaid,
		CompanyID:  companyID,
		InvoiceID:  &invoiceID,
		TenantID:   tenantID,
		Amount:     total,
		Reference:  invoiceNumber,
		OccurredAt: time.Now(),
	}
}

// NewInvoiceOverdue builds an invoice.overdue event
func NewInvoiceOverdue(companyID, invoiceID, tenantID uuid.UUID, total decimal.Decimal, invoiceNumber string) BillingEvent {
	return BillingEvent{
		Name:       InvoiceOverdue,
		CompanyID:  companyID,
		InvoiceID:  &invoiceID,
		TenantID:   tenantID,
		Amount:     total,
		Reference:  invoiceNumber,
		OccurredAt: time.Now(),
	}
}

// NewPaymentApproved builds a payment.approved event
func NewPaymentApproved(companyID, paymentID, tenantID uuid.UUID, amount decimal.Decimal, receiptNumber string) BillingEvent {
	return BillingEvent{
		Name:       PaymentApproved,
		CompanyID:  companyID,
		PaymentID:  &paymentID,
		TenantID:   tenantID,
		Amount:     amount,
		Reference:  receiptNumber,
		OccurredAt: time.Now(),
	}
}

// NewPaymentLinked builds a payment.linked event
func NewPaymentLinked(companyID, paymentID, invoiceID, tenantID uuid.UUID, amount decimal.Decimal) BillingEvent {
	return BillingEvent{
		Name:       PaymentLinked,
		CompanyID:  companyID,
		PaymentID:  &paymentID,
		InvoiceID:  &invoiceID,
		TenantID:   tenantID,
		Amount:     amount,
		OccurredAt: time.Now(),
	}
}

// Publisher delivers billing events to the notification collaborator.
// Implementations must be safe for concurrent use and must never block
// the caller on delivery.
type Publisher interface {
	Publish(events ...BillingEvent)
}
