package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	infraRepo "github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/mpesa"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentEnv struct {
	invoices  *fakeInvoiceRepo
	payments  *fakePaymentRepo
	tenants   *fakeTenantRepo
	companies *fakeCompanyRepo
	publisher *capturingPublisher
	svc       *PaymentService

	companyID uuid.UUID
	tenant    entity.Tenant
}

func newPaymentEnv(verifier mpesa.Verifier) *paymentEnv {
	env := &paymentEnv{
		invoices:  newFakeInvoiceRepo(),
		payments:  newFakePaymentRepo(),
		tenants:   newFakeTenantRepo(),
		companies: newFakeCompanyRepo(),
		publisher: &capturingPublisher{},
	}
	company := env.companies.add(entity.Company{Name: "Acme Rentals", Slug: "acme"})
	env.companyID = company.ID
	env.tenant = env.tenants.add(entity.Tenant{
		CompanyID: company.ID,
		FirstName: "Wanjiku",
		LastName:  "Kamau",
	})

	numbering := NewNumberingService(newFakeSequenceRepo(), env.companies)
	reconciliation := NewReconciliationService(env.invoices, env.payments, passthroughTx{}, env.publisher, zerolog.Nop())
	env.svc = NewPaymentService(
		env.payments, env.tenants, env.companies, numbering, reconciliation,
		passthroughTx{}, env.publisher, nil, verifier, zerolog.Nop())
	return env
}

func (e *paymentEnv) ctx() context.Context {
	return infraRepo.WithCompany(context.Background(), e.companyID)
}

func (e *paymentEnv) pendingPayment(amount string) entity.Payment {
	return e.payments.add(entity.Payment{
		CompanyID:     e.companyID,
		ReceiptNumber: "RCP-000900",
		TenantID:      e.tenant.ID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "KES",
		Method:        enum.PaymentMethodCash,
		Status:        enum.PaymentStatusPending,
		PaymentDate:   time.Now(),
		RecordedBy:    uuid.New(),
	})
}

func (e *paymentEnv) openInvoice(number, total string, due time.Time) entity.Invoice {
	return e.invoices.add(entity.Invoice{
		CompanyID:     e.companyID,
		InvoiceNumber: number,
		IssuedBy:      uuid.New(),
		IssuedTo:      e.tenant.ID,
		Subtotal:      decimal.RequireFromString(total),
		TotalAmount:   decimal.RequireFromString(total),
		Currency:      "KES",
		IssueDate:     due.AddDate(0, 0, -5),
		DueDate:       due,
		Status:        enum.InvoiceStatusSent,
	})
}

func TestCreatePayment(t *testing.T) {
	env := newPaymentEnv(nil)

	payment, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
		TenantID:   env.tenant.ID,
		Amount:     decimal.RequireFromString("5000.00"),
		Method:     enum.PaymentMethodCash,
		Type:       enum.PaymentTypeRent,
		RecordedBy: uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, env.companyID, payment.CompanyID)
	assert.Equal(t, "RCP-000001", payment.ReceiptNumber)
	assert.Equal(t, "KES", payment.Currency)
	assert.Equal(t, enum.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.InvoiceID)

	stored, _ := env.payments.GetByID(env.ctx(), payment.ID)
	require.NotNil(t, stored)
}

func TestCreatePaymentUsesCompanyCurrency(t *testing.T) {
	env := newPaymentEnv(nil)
	company, err := env.companies.GetByID(context.Background(), env.companyID)
	require.NoError(t, err)
	company.Settings.Currency = "USD"
	require.NoError(t, env.companies.Update(context.Background(), company))

	payment, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
		TenantID:   env.tenant.ID,
		Amount:     decimal.RequireFromString("450.00"),
		Method:     enum.PaymentMethodBank,
		Type:       enum.PaymentTypeRent,
		RecordedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", payment.Currency)

	// Payment and invoice currencies agree, so reconciliation works for a
	// company billing in something other than the default currency
	invoice := env.invoices.add(entity.Invoice{
		CompanyID:     env.companyID,
		InvoiceNumber: "INV-000406",
		IssuedBy:      uuid.New(),
		IssuedTo:      env.tenant.ID,
		Subtotal:      decimal.RequireFromString("450.00"),
		TotalAmount:   decimal.RequireFromString("450.00"),
		Currency:      "USD",
		IssueDate:     time.Now(),
		DueDate:       time.Now().AddDate(0, 0, 5),
		Status:        enum.InvoiceStatusSent,
	})

	result, err := env.svc.ApprovePayment(env.ctx(), payment.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Link)
	assert.Equal(t, invoice.ID, result.Link.Invoice.ID)
	assert.True(t, result.Link.IsFullyPaid)
}

func TestCreatePaymentRequiresCompanyContext(t *testing.T) {
	env := newPaymentEnv(nil)

	_, err := env.svc.CreatePayment(context.Background(), &CreatePaymentInput{
		TenantID: env.tenant.ID,
		Amount:   decimal.RequireFromString("5000.00"),
	})
	require.Error(t, err)
	assert.Equal(t, "Company context required", err.Error())
}

func TestCreatePaymentUnknownTenant(t *testing.T) {
	env := newPaymentEnv(nil)

	_, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
		TenantID: uuid.New(),
		Amount:   decimal.RequireFromString("5000.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreatePaymentDuplicateReference(t *testing.T) {
	env := newPaymentEnv(nil)
	ref := "SBK12XYZ9"
	existing := env.pendingPayment("5000.00")
	existing.ReferenceNumber = &ref
	env.payments.add(existing)

	_, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
		TenantID:        env.tenant.ID,
		Amount:          decimal.RequireFromString("5000.00"),
		ReferenceNumber: &ref,
		RecordedBy:      uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, "A payment with this reference already exists", err.Error())
}

func TestCreatePaymentRejectsNonPositiveAmount(t *testing.T) {
	env := newPaymentEnv(nil)

	_, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
		TenantID: env.tenant.ID,
		Amount:   decimal.Zero,
	})
	require.Error(t, err)
	assert.Equal(t, "Payment amount must be greater than zero", err.Error())
}

type fakeVerifier struct {
	err  error
	info *mpesa.TransactionInfo
}

func (v *fakeVerifier) IsConfigured() bool { return true }

func (v *fakeVerifier) VerifyTransaction(ctx context.Context, reference string) (*mpesa.TransactionInfo, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.info, nil
}

func TestCreatePaymentGatewayVerification(t *testing.T) {
	t.Run("verified gateway payment is recorded", func(t *testing.T) {
		env := newPaymentEnv(&fakeVerifier{info: &mpesa.TransactionInfo{TransactionID: "SBK12XYZ9"}})
		ref := "SBK12XYZ9"

		payment, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
			TenantID:        env.tenant.ID,
			Amount:          decimal.RequireFromString("5000.00"),
			Method:          enum.PaymentMethodMpesa,
			ReferenceNumber: &ref,
			RecordedBy:      uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, enum.PaymentStatusPending, payment.Status)
	})

	t.Run("gateway payment without reference is rejected", func(t *testing.T) {
		env := newPaymentEnv(&fakeVerifier{})

		_, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
			TenantID: env.tenant.ID,
			Amount:   decimal.RequireFromString("5000.00"),
			Method:   enum.PaymentMethodMpesa,
		})
		require.Error(t, err)
		assert.Equal(t, "Gateway payments require a transaction reference", err.Error())
	})

	t.Run("unknown transaction is rejected", func(t *testing.T) {
		env := newPaymentEnv(&fakeVerifier{err: mpesa.ErrTransactionNotFound})
		ref := "BOGUS0000"

		_, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
			TenantID:        env.tenant.ID,
			Amount:          decimal.RequireFromString("5000.00"),
			Method:          enum.PaymentMethodMpesa,
			ReferenceNumber: &ref,
		})
		require.Error(t, err)
		assert.Equal(t, "Transaction reference was not found at the gateway", err.Error())
	})

	t.Run("gateway outage is retryable", func(t *testing.T) {
		env := newPaymentEnv(&fakeVerifier{err: mpesa.ErrGatewayUnavailable})
		ref := "SBK12XYZ9"

		_, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
			TenantID:        env.tenant.ID,
			Amount:          decimal.RequireFromString("5000.00"),
			Method:          enum.PaymentMethodMpesa,
			ReferenceNumber: &ref,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsRetryable(err))
	})

	t.Run("cash payments skip verification", func(t *testing.T) {
		env := newPaymentEnv(&fakeVerifier{err: mpesa.ErrGatewayUnavailable})

		_, err := env.svc.CreatePayment(env.ctx(), &CreatePaymentInput{
			TenantID:   env.tenant.ID,
			Amount:     decimal.RequireFromString("5000.00"),
			Method:     enum.PaymentMethodCash,
			RecordedBy: uuid.New(),
		})
		assert.NoError(t, err)
	})
}

func TestApprovePaymentAutoMatches(t *testing.T) {
	env := newPaymentEnv(nil)
	invoice := env.openInvoice("INV-000401", "7500.00", time.Now().AddDate(0, 0, 3))
	payment := env.pendingPayment("7500.00")

	result, err := env.svc.ApprovePayment(env.ctx(), payment.ID)
	require.NoError(t, err)

	require.NotNil(t, result.Link)
	assert.True(t, result.Link.IsFullyPaid)
	assert.Equal(t, invoice.ID, result.Link.Invoice.ID)
	require.NotNil(t, result.Payment.ProcessedAt)

	storedInv, _ := env.invoices.GetByID(env.ctx(), invoice.ID)
	assert.Equal(t, enum.InvoiceStatusPaid, storedInv.Status)

	// After side effects the payment is parked in its durable end state
	storedPay, _ := env.payments.GetByID(env.ctx(), payment.ID)
	assert.Equal(t, enum.PaymentStatusCompleted, storedPay.Status)

	assert.Equal(t, 1, env.publisher.count(event.PaymentApproved))
	assert.Equal(t, 1, env.publisher.count(event.PaymentLinked))
	assert.Equal(t, 1, env.publisher.count(event.InvoicePaid))
}

func TestApprovePaymentWithoutMatch(t *testing.T) {
	env := newPaymentEnv(nil)
	env.openInvoice("INV-000402", "9000.00", time.Now().AddDate(0, 0, 3))
	payment := env.pendingPayment("7500.00")

	result, err := env.svc.ApprovePayment(env.ctx(), payment.ID)
	require.NoError(t, err)

	assert.Nil(t, result.Link)

	storedPay, _ := env.payments.GetByID(env.ctx(), payment.ID)
	assert.Equal(t, enum.PaymentStatusCompleted, storedPay.Status)
	assert.Nil(t, storedPay.InvoiceID)

	assert.Equal(t, 1, env.publisher.count(event.PaymentApproved))
	assert.Equal(t, 0, env.publisher.count(event.PaymentLinked))
}

func TestApprovePaymentSettlesInOneTransaction(t *testing.T) {
	env := newPaymentEnv(nil)
	tx := &countingTx{}
	numbering := NewNumberingService(newFakeSequenceRepo(), env.companies)
	reconciliation := NewReconciliationService(env.invoices, env.payments, tx, env.publisher, zerolog.Nop())
	svc := NewPaymentService(
		env.payments, env.tenants, env.companies, numbering, reconciliation,
		tx, env.publisher, nil, nil, zerolog.Nop())

	env.openInvoice("INV-000404", "7500.00", time.Now().AddDate(0, 0, 3))
	payment := env.pendingPayment("7500.00")

	result, err := svc.ApprovePayment(env.ctx(), payment.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Link)
	assert.True(t, result.Link.IsFullyPaid)

	// The approval and the settlement it triggered shared one transaction
	assert.Equal(t, 1, tx.topLevel)
}

func TestApprovePaymentAbortsWhenSettlementFails(t *testing.T) {
	env := newPaymentEnv(nil)
	env.openInvoice("INV-000405", "7500.00", time.Now().AddDate(0, 0, 3))
	payment := env.pendingPayment("7500.00")

	env.invoices.updateErr = errors.New("connection reset by peer")

	_, err := env.svc.ApprovePayment(env.ctx(), payment.ID)
	require.Error(t, err)

	// The aborted approval published nothing
	assert.Empty(t, env.publisher.names())
}

func TestApprovePaymentInvalidStates(t *testing.T) {
	t.Run("unknown payment", func(t *testing.T) {
		env := newPaymentEnv(nil)

		_, err := env.svc.ApprovePayment(env.ctx(), uuid.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("already rejected", func(t *testing.T) {
		env := newPaymentEnv(nil)
		payment := env.pendingPayment("7500.00")
		payment.Status = enum.PaymentStatusRejected
		env.payments.add(payment)

		_, err := env.svc.ApprovePayment(env.ctx(), payment.ID)
		require.Error(t, err)
		assert.Equal(t, "Only pending payments can be approved", err.Error())
		assert.Empty(t, env.publisher.names())
	})
}

func TestRejectPayment(t *testing.T) {
	env := newPaymentEnv(nil)
	payment := env.pendingPayment("7500.00")

	rejected, err := env.svc.RejectPayment(env.ctx(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ProcessedAt)

	_, err = env.svc.RejectPayment(env.ctx(), payment.ID)
	require.Error(t, err)
	assert.Equal(t, "Only pending payments can be rejected", err.Error())
}

func TestDeletePayment(t *testing.T) {
	t.Run("pending payment deletes", func(t *testing.T) {
		env := newPaymentEnv(nil)
		payment := env.pendingPayment("7500.00")

		require.NoError(t, env.svc.DeletePayment(env.ctx(), payment.ID))

		stored, _ := env.payments.GetByID(env.ctx(), payment.ID)
		assert.Nil(t, stored)
	})

	t.Run("approved payment is protected", func(t *testing.T) {
		env := newPaymentEnv(nil)
		payment := env.pendingPayment("7500.00")
		payment.Status = enum.PaymentStatusApproved
		env.payments.add(payment)

		err := env.svc.DeletePayment(env.ctx(), payment.ID)
		require.Error(t, err)
		assert.Equal(t, "Only pending payments can be deleted", err.Error())
	})
}

func TestLinkPaymentManually(t *testing.T) {
	env := newPaymentEnv(nil)
	invoice := env.openInvoice("INV-000403", "9000.00", time.Now().AddDate(0, 0, 3))
	payment := env.pendingPayment("4000.00")

	result, err := env.svc.LinkPayment(env.ctx(), payment.ID, invoice.ID)
	require.NoError(t, err)

	assert.False(t, result.IsFullyPaid)
	assert.True(t, result.TotalPaid.Equal(decimal.Zero))

	stored, _ := env.payments.GetByID(env.ctx(), payment.ID)
	require.NotNil(t, stored.InvoiceID)
	assert.Equal(t, invoice.ID, *stored.InvoiceID)
}
