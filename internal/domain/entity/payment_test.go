package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"positive amount", "25000.00", false},
		{"zero amount", "0", true},
		{"negative amount", "-100.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Amount: decimal.RequireFromString(tt.amount)}

			err := p.ValidateAmount()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPaymentApprove(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("pending approves and stamps processed_at", func(t *testing.T) {
		p := &Payment{Status: enum.PaymentStatusPending}

		require.NoError(t, p.Approve(now))
		assert.Equal(t, enum.PaymentStatusApproved, p.Status)
		require.NotNil(t, p.ProcessedAt)
		assert.Equal(t, now, *p.ProcessedAt)
	})

	for _, status := range []enum.PaymentStatus{
		enum.PaymentStatusApproved,
		enum.PaymentStatusCompleted,
		enum.PaymentStatusRejected,
	} {
		t.Run("rejects "+status.String(), func(t *testing.T) {
			p := &Payment{Status: status}

			err := p.Approve(now)
			require.Error(t, err)
			assert.Equal(t, status, p.Status)
		})
	}
}

func TestPaymentReject(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("pending rejects", func(t *testing.T) {
		p := &Payment{Status: enum.PaymentStatusPending}

		require.NoError(t, p.Reject(now))
		assert.Equal(t, enum.PaymentStatusRejected, p.Status)
		require.NotNil(t, p.ProcessedAt)
		assert.Equal(t, now, *p.ProcessedAt)
	})

	t.Run("approved cannot be rejected", func(t *testing.T) {
		p := &Payment{Status: enum.PaymentStatusApproved}
		assert.Error(t, p.Reject(now))
	})
}

func TestPaymentComplete(t *testing.T) {
	t.Run("approved completes", func(t *testing.T) {
		p := &Payment{Status: enum.PaymentStatusApproved}

		require.NoError(t, p.Complete())
		assert.Equal(t, enum.PaymentStatusCompleted, p.Status)
	})

	for _, status := range []enum.PaymentStatus{
		enum.PaymentStatusPending,
		enum.PaymentStatusCompleted,
		enum.PaymentStatusRejected,
	} {
		t.Run("rejects "+status.String(), func(t *testing.T) {
			p := &Payment{Status: status}
			assert.Error(t, p.Complete())
		})
	}
}

func TestPaymentCanDelete(t *testing.T) {
	t.Run("pending is deletable", func(t *testing.T) {
		p := &Payment{Status: enum.PaymentStatusPending}
		assert.NoError(t, p.CanDelete())
	})

	for _, status := range []enum.PaymentStatus{
		enum.PaymentStatusApproved,
		enum.PaymentStatusCompleted,
		enum.PaymentStatusRejected,
	} {
		t.Run("protected when "+status.String(), func(t *testing.T) {
			p := &Payment{Status: status}
			assert.Error(t, p.CanDelete())
		})
	}
}

func TestPaymentLinkTo(t *testing.T) {
	invoiceID := uuid.New()
	otherID := uuid.New()

	t.Run("unlinked payment links", func(t *testing.T) {
		p := &Payment{}

		require.NoError(t, p.LinkTo(invoiceID))
		require.NotNil(t, p.InvoiceID)
		assert.Equal(t, invoiceID, *p.InvoiceID)
		assert.True(t, p.IsLinkedTo(invoiceID))
	})

	t.Run("re-linking the same invoice is idempotent", func(t *testing.T) {
		p := &Payment{InvoiceID: &invoiceID}

		require.NoError(t, p.LinkTo(invoiceID))
		assert.Equal(t, invoiceID, *p.InvoiceID)
	})

	t.Run("linking a different invoice conflicts", func(t *testing.T) {
		p := &Payment{InvoiceID: &invoiceID}

		err := p.LinkTo(otherID)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
		assert.Equal(t, invoiceID, *p.InvoiceID)
	})

	t.Run("is linked to reports false for other invoices", func(t *testing.T) {
		p := &Payment{InvoiceID: &invoiceID}
		assert.False(t, p.IsLinkedTo(otherID))

		unlinked := &Payment{}
		assert.False(t, unlinked.IsLinkedTo(invoiceID))
	})
}
