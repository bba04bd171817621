package event

import (
	"github.com/kodisha/kodisha-api/internal/domain/event"
	"github.com/rs/zerolog"
)

// LogPublisher emits billing events as structured log lines. It stands in
// for a message broker; consumers tail the event stream. Publishing is
// fire-and-forget, a failed delivery never affects the ledger write that
// produced the event.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that writes events to the given logger
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "billing_events").Logger()}
}

// Publish delivers events asynchronously. Callers invoke it after commit;
// it returns immediately.
func (p *LogPublisher) Publish(events ...event.BillingEvent) {
	if len(events) == 0 {
		return
	}
	go func(events []event.BillingEvent) {
		for _, e := range events {
			evt := p.logger.Info().
				Str("event", e.Name).
				Str("company_id", e.CompanyID.String()).
				Str("tenant_id", e.TenantID.String()).
				Str("amount", e.Amount.String()).
				Time("occurred_at", e.OccurredAt)
			if e.InvoiceID != nil {
				evt = evt.Str("invoice_id", e.InvoiceID.String())
			}
			if e.PaymentID != nil {
				evt = evt.Str("payment_id", e.PaymentID.String())
			}
			if e.Reference != "" {
				evt = evt.Str("reference", e.Reference)
			}
			evt.Msg("billing event")
		}
	}(events)
}
