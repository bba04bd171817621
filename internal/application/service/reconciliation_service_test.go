package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconEnv struct {
	invoices  *fakeInvoiceRepo
	payments  *fakePaymentRepo
	publisher *capturingPublisher
	svc       *ReconciliationService

	companyID uuid.UUID
	tenantID  uuid.UUID
}

func newReconEnv() *reconEnv {
	env := &reconEnv{
		invoices:  newFakeInvoiceRepo(),
		payments:  newFakePaymentRepo(),
		publisher: &capturingPublisher{},
		companyID: uuid.New(),
		tenantID:  uuid.New(),
	}
	env.svc = NewReconciliationService(env.invoices, env.payments, passthroughTx{}, env.publisher, zerolog.Nop())
	return env
}

var invoiceSeq int

func (e *reconEnv) openInvoice(total string, due time.Time) entity.Invoice {
	invoiceSeq++
	return e.invoices.add(entity.Invoice{
		CompanyID:     e.companyID,
		InvoiceNumber: fmt.Sprintf("INV-%06d", invoiceSeq),
		IssuedBy:      uuid.New(),
		IssuedTo:      e.tenantID,
		Subtotal:      decimal.RequireFromString(total),
		TotalAmount:   decimal.RequireFromString(total),
		Currency:      "KES",
		IssueDate:     due.AddDate(0, 0, -5),
		DueDate:       due,
		Status:        enum.InvoiceStatusSent,
	})
}

func (e *reconEnv) invoiceWithStatus(total string, due time.Time, status enum.InvoiceStatus) entity.Invoice {
	inv := e.openInvoice(total, due)
	inv.Status = status
	return e.invoices.add(inv)
}

var receiptSeq int

func (e *reconEnv) approvedPayment(amount string, date time.Time) entity.Payment {
	receiptSeq++
	processed := date
	return e.payments.add(entity.Payment{
		CompanyID:     e.companyID,
		ReceiptNumber: fmt.Sprintf("RCP-%06d", receiptSeq),
		TenantID:      e.tenantID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "KES",
		Method:        enum.PaymentMethodMpesa,
		Status:        enum.PaymentStatusApproved,
		PaymentDate:   date,
		ProcessedAt:   &processed,
		RecordedBy:    uuid.New(),
	})
}

func TestLinkPaymentPartial(t *testing.T) {
	env := newReconEnv()
	due := time.Now().AddDate(0, 0, 7)
	invoice := env.openInvoice("10000.00", due)
	payment := env.approvedPayment("4000.00", time.Now())

	result, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
	require.NoError(t, err)

	assert.True(t, result.TotalPaid.Equal(decimal.RequireFromString("4000.00")))
	assert.False(t, result.IsFullyPaid)

	stored, _ := env.payments.GetByID(context.Background(), payment.ID)
	require.NotNil(t, stored.InvoiceID)
	assert.Equal(t, invoice.ID, *stored.InvoiceID)

	storedInv, _ := env.invoices.GetByID(context.Background(), invoice.ID)
	assert.Equal(t, enum.InvoiceStatusSent, storedInv.Status)

	assert.Equal(t, []string{event.PaymentLinked}, env.publisher.names())
}

func TestLinkPaymentSettlesInvoice(t *testing.T) {
	env := newReconEnv()
	invoice := env.openInvoice("10000.00", time.Now().AddDate(0, 0, 7))
	payment := env.approvedPayment("10000.00", time.Now())

	result, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
	require.NoError(t, err)

	assert.True(t, result.IsFullyPaid)
	assert.True(t, result.TotalPaid.Equal(invoice.TotalAmount))

	storedInv, _ := env.invoices.GetByID(context.Background(), invoice.ID)
	assert.Equal(t, enum.InvoiceStatusPaid, storedInv.Status)
	require.NotNil(t, storedInv.PaidDate)
	require.NotNil(t, storedInv.PaymentReference)
	assert.Equal(t, payment.ReceiptNumber, *storedInv.PaymentReference)
	require.NotNil(t, storedInv.PaymentMethod)
	assert.Equal(t, enum.PaymentMethodMpesa, *storedInv.PaymentMethod)

	assert.Equal(t, []string{event.PaymentLinked, event.InvoicePaid}, env.publisher.names())
}

func TestLinkPaymentCumulativeSettlement(t *testing.T) {
	env := newReconEnv()
	invoice := env.openInvoice("10000.00", time.Now().AddDate(0, 0, 7))
	first := env.approvedPayment("4000.00", time.Now())
	second := env.approvedPayment("6000.00", time.Now())

	result, err := env.svc.LinkPayment(context.Background(), first.ID, invoice.ID)
	require.NoError(t, err)
	assert.False(t, result.IsFullyPaid)

	result, err = env.svc.LinkPayment(context.Background(), second.ID, invoice.ID)
	require.NoError(t, err)
	assert.True(t, result.IsFullyPaid)
	assert.True(t, result.TotalPaid.Equal(decimal.RequireFromString("10000.00")))

	storedInv, _ := env.invoices.GetByID(context.Background(), invoice.ID)
	assert.Equal(t, enum.InvoiceStatusPaid, storedInv.Status)

	assert.Equal(t, 2, env.publisher.count(event.PaymentLinked))
	assert.Equal(t, 1, env.publisher.count(event.InvoicePaid))
}

func TestLinkPaymentNotFoundCases(t *testing.T) {
	t.Run("unknown payment", func(t *testing.T) {
		env := newReconEnv()
		invoice := env.openInvoice("5000.00", time.Now())

		_, err := env.svc.LinkPayment(context.Background(), uuid.New(), invoice.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
		assert.Equal(t, "Payment not found", err.Error())
	})

	t.Run("unknown invoice", func(t *testing.T) {
		env := newReconEnv()
		payment := env.approvedPayment("5000.00", time.Now())

		_, err := env.svc.LinkPayment(context.Background(), payment.ID, uuid.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
		assert.Equal(t, "Invoice not found", err.Error())
	})

	t.Run("invoice of another company looks missing", func(t *testing.T) {
		env := newReconEnv()
		invoice := env.openInvoice("5000.00", time.Now())
		invoice.CompanyID = uuid.New()
		env.invoices.add(invoice)
		payment := env.approvedPayment("5000.00", time.Now())

		_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
		assert.Equal(t, "Invoice not found", err.Error())
	})
}

func TestLinkPaymentTenantMismatch(t *testing.T) {
	env := newReconEnv()
	invoice := env.openInvoice("5000.00", time.Now())
	payment := env.approvedPayment("5000.00", time.Now())
	payment.TenantID = uuid.New()
	env.payments.add(payment)

	_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
	require.Error(t, err)
	assert.Equal(t, "Payment and invoice belong to different tenants", err.Error())
	assert.Empty(t, env.publisher.names())
}

func TestLinkPaymentCurrencyMismatch(t *testing.T) {
	env := newReconEnv()
	invoice := env.openInvoice("5000.00", time.Now())
	payment := env.approvedPayment("5000.00", time.Now())
	payment.Currency = "USD"
	env.payments.add(payment)

	_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
	require.Error(t, err)
	assert.Equal(t, "Payment and invoice currencies do not match", err.Error())
}

func TestLinkPaymentRejectedPayment(t *testing.T) {
	env := newReconEnv()
	invoice := env.openInvoice("5000.00", time.Now())
	payment := env.approvedPayment("5000.00", time.Now())
	payment.Status = enum.PaymentStatusRejected
	env.payments.add(payment)

	_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
	require.Error(t, err)
	assert.Equal(t, "Rejected payments cannot be linked", err.Error())

	stored, _ := env.payments.GetByID(context.Background(), payment.ID)
	assert.Nil(t, stored.InvoiceID)
}

func TestLinkPaymentIdempotentRelink(t *testing.T) {
	t.Run("partial link repeats without new events", func(t *testing.T) {
		env := newReconEnv()
		invoice := env.openInvoice("10000.00", time.Now())
		payment := env.approvedPayment("4000.00", time.Now())

		_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
		require.NoError(t, err)

		result, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
		require.NoError(t, err)
		assert.True(t, result.TotalPaid.Equal(decimal.RequireFromString("4000.00")))
		assert.False(t, result.IsFullyPaid)

		assert.Equal(t, 1, env.publisher.count(event.PaymentLinked))
	})

	t.Run("relink after settlement stays settled", func(t *testing.T) {
		env := newReconEnv()
		invoice := env.openInvoice("10000.00", time.Now())
		payment := env.approvedPayment("10000.00", time.Now())

		_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
		require.NoError(t, err)

		result, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
		require.NoError(t, err)
		assert.True(t, result.IsFullyPaid)

		assert.Equal(t, 1, env.publisher.count(event.PaymentLinked))
		assert.Equal(t, 1, env.publisher.count(event.InvoicePaid))
	})
}

func TestLinkPaymentAlreadyLinkedElsewhere(t *testing.T) {
	env := newReconEnv()
	first := env.openInvoice("5000.00", time.Now())
	second := env.openInvoice("5000.00", time.Now())
	payment := env.approvedPayment("5000.00", time.Now())

	_, err := env.svc.LinkPayment(context.Background(), payment.ID, first.ID)
	require.NoError(t, err)

	_, err = env.svc.LinkPayment(context.Background(), payment.ID, second.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, "Payment is already linked to another invoice", err.Error())

	stored, _ := env.payments.GetByID(context.Background(), payment.ID)
	assert.Equal(t, first.ID, *stored.InvoiceID)
}

func TestLinkPaymentInvoiceAlreadyPaid(t *testing.T) {
	env := newReconEnv()
	invoice := env.invoiceWithStatus("5000.00", time.Now(), enum.InvoiceStatusPaid)
	payment := env.approvedPayment("5000.00", time.Now())

	_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, "Invoice is already marked as paid", err.Error())

	stored, _ := env.payments.GetByID(context.Background(), payment.ID)
	assert.Nil(t, stored.InvoiceID)
}

func TestLinkPaymentInvoiceNotPayable(t *testing.T) {
	for _, status := range []enum.InvoiceStatus{
		enum.InvoiceStatusDraft,
		enum.InvoiceStatusCanceled,
	} {
		t.Run(status.String(), func(t *testing.T) {
			env := newReconEnv()
			invoice := env.invoiceWithStatus("5000.00", time.Now(), status)
			payment := env.approvedPayment("5000.00", time.Now())

			_, err := env.svc.LinkPayment(context.Background(), payment.ID, invoice.ID)
			require.Error(t, err)
			assert.Equal(t, "Payments can only be linked to sent or overdue invoices", err.Error())
		})
	}
}

func TestAutoMatchPicksEarliestDueExactAmount(t *testing.T) {
	env := newReconEnv()
	now := time.Now()
	later := env.openInvoice("7500.00", now.AddDate(0, 0, 20))
	earlier := env.openInvoice("7500.00", now.AddDate(0, 0, 5))
	env.openInvoice("3000.00", now.AddDate(0, 0, 1)) // wrong amount, never matched
	payment := env.approvedPayment("7500.00", now)

	result, err := env.svc.AutoMatch(context.Background(), &payment)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, earlier.ID, result.Invoice.ID)
	assert.True(t, result.IsFullyPaid)

	storedLater, _ := env.invoices.GetByID(context.Background(), later.ID)
	assert.Equal(t, enum.InvoiceStatusSent, storedLater.Status)
}

func TestAutoMatchNoCandidate(t *testing.T) {
	env := newReconEnv()
	env.openInvoice("3000.00", time.Now())
	payment := env.approvedPayment("7500.00", time.Now())

	result, err := env.svc.AutoMatch(context.Background(), &payment)
	require.NoError(t, err)
	assert.Nil(t, result)

	stored, _ := env.payments.GetByID(context.Background(), payment.ID)
	assert.Nil(t, stored.InvoiceID)
	assert.Empty(t, env.publisher.names())
}

func TestAutoMatchSkipsAlreadyLinkedPayment(t *testing.T) {
	env := newReconEnv()
	env.openInvoice("7500.00", time.Now())
	payment := env.approvedPayment("7500.00", time.Now())
	linked := uuid.New()
	payment.InvoiceID = &linked

	result, err := env.svc.AutoMatch(context.Background(), &payment)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAutoMatchSkipsFailingCandidate(t *testing.T) {
	env := newReconEnv()
	now := time.Now()

	// Earliest-due candidate belongs to another company, so the link fails
	// as not-found and the next candidate is tried
	foreign := env.openInvoice("7500.00", now.AddDate(0, 0, 1))
	foreign.CompanyID = uuid.New()
	env.invoices.add(foreign)
	local := env.openInvoice("7500.00", now.AddDate(0, 0, 10))
	payment := env.approvedPayment("7500.00", now)

	result, err := env.svc.AutoMatch(context.Background(), &payment)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, local.ID, result.Invoice.ID)
}

func TestAutoReconcile(t *testing.T) {
	env := newReconEnv()
	now := time.Now()

	rent := env.openInvoice("25000.00", now.AddDate(0, 0, 3))
	water := env.openInvoice("1200.00", now.AddDate(0, 0, 8))
	env.openInvoice("900.00", now.AddDate(0, 0, 9)) // stays open

	env.approvedPayment("25000.00", now.AddDate(0, 0, -1))
	env.approvedPayment("1200.00", now.AddDate(0, 0, -2))
	env.approvedPayment("450.00", now.AddDate(0, 0, -3)) // no invoice fits

	report, err := env.svc.AutoReconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.PaymentsExamined)
	assert.Equal(t, 2, report.PaymentsLinked)
	assert.Equal(t, 2, report.InvoicesSettled)
	assert.Equal(t, 0, report.Skipped)

	for _, id := range []uuid.UUID{rent.ID, water.ID} {
		inv, _ := env.invoices.GetByID(context.Background(), id)
		assert.Equal(t, enum.InvoiceStatusPaid, inv.Status)
	}

	assert.Equal(t, 2, env.publisher.count(event.PaymentLinked))
	assert.Equal(t, 2, env.publisher.count(event.InvoicePaid))
}

func TestAutoReconcileNothingToDo(t *testing.T) {
	env := newReconEnv()

	report, err := env.svc.AutoReconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.PaymentsExamined)
	assert.Equal(t, 0, report.PaymentsLinked)
	assert.Empty(t, env.publisher.names())
}
