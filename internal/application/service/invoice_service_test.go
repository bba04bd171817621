package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	infraRepo "github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invoiceEnv struct {
	invoices  *fakeInvoiceRepo
	tenants   *fakeTenantRepo
	companies *fakeCompanyRepo
	publisher *capturingPublisher
	svc       *InvoiceService

	companyID uuid.UUID
	tenant    entity.Tenant
}

func newInvoiceEnv() *invoiceEnv {
	env := &invoiceEnv{
		invoices:  newFakeInvoiceRepo(),
		tenants:   newFakeTenantRepo(),
		companies: newFakeCompanyRepo(),
		publisher: &capturingPublisher{},
	}
	company := env.companies.add(entity.Company{
		Name: "Acme Rentals",
		Slug: "acme",
		Settings: entity.CompanySettings{
			Currency:         "KES",
			TaxRate:          16,
			DefaultDueInDays: 5,
		},
	})
	env.companyID = company.ID
	env.tenant = env.tenants.add(entity.Tenant{
		CompanyID: company.ID,
		FirstName: "Wanjiku",
		LastName:  "Kamau",
	})

	numbering := NewNumberingService(newFakeSequenceRepo(), env.companies)
	env.svc = NewInvoiceService(env.invoices, env.tenants, env.companies, numbering, passthroughTx{}, env.publisher)
	return env
}

func (e *invoiceEnv) ctx() context.Context {
	return infraRepo.WithCompany(context.Background(), e.companyID)
}

func rentAndWaterItems() []LineItemInput {
	return []LineItemInput{
		{
			Description: "Monthly rent",
			Quantity:    1,
			UnitPrice:   decimal.RequireFromString("25000.00"),
			Kind:        enum.LineItemKindRent,
		},
		{
			Description: "Water",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("600.00"),
			Kind:        enum.LineItemKindUtility,
			UtilityType: "water",
		},
	}
}

func TestCreateInvoice(t *testing.T) {
	env := newInvoiceEnv()
	issue := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	invoice, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
		IssuedBy:  uuid.New(),
		TenantID:  env.tenant.ID,
		IssueDate: &issue,
		Discount:  decimal.RequireFromString("200.00"),
		Items:     rentAndWaterItems(),
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", invoice.InvoiceNumber)
	assert.Equal(t, enum.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, "KES", invoice.Currency)

	// 25000 + 2*600 = 26200, 16% tax = 4192, minus 200 discount
	assert.True(t, invoice.Subtotal.Equal(decimal.RequireFromString("26200.00")))
	assert.True(t, invoice.TaxAmount.Equal(decimal.RequireFromString("4192.00")))
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("30192.00")))

	// Default due date comes from company settings
	assert.Equal(t, issue.AddDate(0, 0, 5), invoice.DueDate)

	require.Len(t, invoice.LineItems, 2)
	assert.True(t, invoice.LineItems[1].TotalPrice.Equal(decimal.RequireFromString("1200.00")))
	assert.Equal(t, "water", invoice.LineItems[1].Meta.UtilityType)
}

func TestCreateInvoiceExplicitDueDate(t *testing.T) {
	env := newInvoiceEnv()
	issue := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 0, 14)

	invoice, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
		IssuedBy:  uuid.New(),
		TenantID:  env.tenant.ID,
		IssueDate: &issue,
		DueDate:   &due,
		Items:     rentAndWaterItems(),
	})
	require.NoError(t, err)
	assert.Equal(t, due, invoice.DueDate)
}

func TestCreateInvoiceValidation(t *testing.T) {
	issue := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	pastDue := issue.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		input   CreateInvoiceInput
		wantErr string
	}{
		{
			name:    "no line items",
			input:   CreateInvoiceInput{},
			wantErr: "Invoice requires at least one line item",
		},
		{
			name: "zero quantity",
			input: CreateInvoiceInput{
				Items: []LineItemInput{{Description: "Rent", Quantity: 0, UnitPrice: decimal.RequireFromString("100.00")}},
			},
			wantErr: "Line item quantity must be positive",
		},
		{
			name: "negative unit price",
			input: CreateInvoiceInput{
				Items: []LineItemInput{{Description: "Rent", Quantity: 1, UnitPrice: decimal.RequireFromString("-100.00")}},
			},
			wantErr: "Line item unit price cannot be negative",
		},
		{
			name: "negative discount",
			input: CreateInvoiceInput{
				Discount: decimal.RequireFromString("-50.00"),
				Items:    []LineItemInput{{Description: "Rent", Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}},
			},
			wantErr: "Discount cannot be negative",
		},
		{
			name: "due date before issue date",
			input: CreateInvoiceInput{
				IssueDate: &issue,
				DueDate:   &pastDue,
				Items:     []LineItemInput{{Description: "Rent", Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}},
			},
			wantErr: "Due date cannot be before issue date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newInvoiceEnv()
			tt.input.IssuedBy = uuid.New()
			tt.input.TenantID = env.tenant.ID

			_, err := env.svc.CreateInvoice(env.ctx(), &tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestCreateInvoiceRequiresCompanyContext(t *testing.T) {
	env := newInvoiceEnv()

	_, err := env.svc.CreateInvoice(context.Background(), &CreateInvoiceInput{
		TenantID: env.tenant.ID,
		Items:    rentAndWaterItems(),
	})
	require.Error(t, err)
	assert.Equal(t, "Company context required", err.Error())
}

func TestCreateInvoiceUnknownTenant(t *testing.T) {
	env := newInvoiceEnv()

	_, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
		TenantID: uuid.New(),
		Items:    rentAndWaterItems(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSendInvoice(t *testing.T) {
	env := newInvoiceEnv()
	invoice, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
		IssuedBy: uuid.New(),
		TenantID: env.tenant.ID,
		Items:    rentAndWaterItems(),
	})
	require.NoError(t, err)

	sent, err := env.svc.SendInvoice(env.ctx(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, sent.Status)

	stored, _ := env.invoices.GetByID(env.ctx(), invoice.ID)
	assert.Equal(t, enum.InvoiceStatusSent, stored.Status)

	_, err = env.svc.SendInvoice(env.ctx(), invoice.ID)
	require.Error(t, err)
	assert.Equal(t, "Only draft invoices can be sent", err.Error())

	_, err = env.svc.SendInvoice(env.ctx(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCancelInvoice(t *testing.T) {
	env := newInvoiceEnv()
	invoice, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
		IssuedBy: uuid.New(),
		TenantID: env.tenant.ID,
		Items:    rentAndWaterItems(),
	})
	require.NoError(t, err)

	canceled, err := env.svc.CancelInvoice(env.ctx(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusCanceled, canceled.Status)

	t.Run("paid invoice cannot cancel", func(t *testing.T) {
		paid := env.invoices.add(entity.Invoice{
			CompanyID:     env.companyID,
			InvoiceNumber: "INV-000900",
			IssuedBy:      uuid.New(),
			IssuedTo:      env.tenant.ID,
			Subtotal:      decimal.RequireFromString("100.00"),
			TotalAmount:   decimal.RequireFromString("100.00"),
			Status:        enum.InvoiceStatusPaid,
		})

		_, err := env.svc.CancelInvoice(env.ctx(), paid.ID)
		require.Error(t, err)
		assert.Equal(t, "Cannot cancel a paid invoice", err.Error())
	})
}

func TestMarkInvoicePaid(t *testing.T) {
	newSentInvoice := func(env *invoiceEnv) entity.Invoice {
		invoice, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
			IssuedBy: uuid.New(),
			TenantID: env.tenant.ID,
			Items:    rentAndWaterItems(),
		})
		require.NoError(t, err)
		_, err = env.svc.SendInvoice(env.ctx(), invoice.ID)
		require.NoError(t, err)
		return *invoice
	}

	t.Run("sent invoice settles and publishes", func(t *testing.T) {
		env := newInvoiceEnv()
		invoice := newSentInvoice(env)
		paidDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

		settled, err := env.svc.MarkInvoicePaid(env.ctx(), &MarkInvoicePaidInput{
			InvoiceID: invoice.ID,
			Method:    enum.PaymentMethodBank,
			Reference: "BANK-SLIP-1188",
			PaidDate:  &paidDate,
		})
		require.NoError(t, err)

		assert.Equal(t, enum.InvoiceStatusPaid, settled.Status)
		require.NotNil(t, settled.PaidDate)
		assert.Equal(t, paidDate, *settled.PaidDate)
		require.NotNil(t, settled.PaymentReference)
		assert.Equal(t, "BANK-SLIP-1188", *settled.PaymentReference)

		stored, _ := env.invoices.GetByID(env.ctx(), invoice.ID)
		assert.Equal(t, enum.InvoiceStatusPaid, stored.Status)
		assert.Equal(t, 1, env.publisher.count(event.InvoicePaid))
	})

	t.Run("second call is a no-op without a second event", func(t *testing.T) {
		env := newInvoiceEnv()
		invoice := newSentInvoice(env)
		input := &MarkInvoicePaidInput{
			InvoiceID: invoice.ID,
			Method:    enum.PaymentMethodCash,
			Reference: "CASH-0007",
		}

		_, err := env.svc.MarkInvoicePaid(env.ctx(), input)
		require.NoError(t, err)

		again, err := env.svc.MarkInvoicePaid(env.ctx(), input)
		require.NoError(t, err)
		assert.Equal(t, enum.InvoiceStatusPaid, again.Status)
		assert.Equal(t, "CASH-0007", *again.PaymentReference)
		assert.Equal(t, 1, env.publisher.count(event.InvoicePaid))
	})

	t.Run("draft invoice cannot settle", func(t *testing.T) {
		env := newInvoiceEnv()
		invoice, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
			IssuedBy: uuid.New(),
			TenantID: env.tenant.ID,
			Items:    rentAndWaterItems(),
		})
		require.NoError(t, err)

		_, err = env.svc.MarkInvoicePaid(env.ctx(), &MarkInvoicePaidInput{
			InvoiceID: invoice.ID,
			Method:    enum.PaymentMethodCash,
			Reference: "CASH-0008",
		})
		require.Error(t, err)
		assert.Equal(t, "Only sent or overdue invoices can be marked paid", err.Error())
		assert.Empty(t, env.publisher.names())
	})

	t.Run("unknown invoice", func(t *testing.T) {
		env := newInvoiceEnv()

		_, err := env.svc.MarkInvoicePaid(env.ctx(), &MarkInvoicePaidInput{
			InvoiceID: uuid.New(),
			Method:    enum.PaymentMethodCash,
			Reference: "CASH-0009",
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestDeleteInvoice(t *testing.T) {
	env := newInvoiceEnv()
	invoice, err := env.svc.CreateInvoice(env.ctx(), &CreateInvoiceInput{
		IssuedBy: uuid.New(),
		TenantID: env.tenant.ID,
		Items:    rentAndWaterItems(),
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteInvoice(env.ctx(), invoice.ID))
	stored, _ := env.invoices.GetByID(env.ctx(), invoice.ID)
	assert.Nil(t, stored)

	t.Run("paid invoice is protected", func(t *testing.T) {
		paid := env.invoices.add(entity.Invoice{
			CompanyID:     env.companyID,
			InvoiceNumber: "INV-000901",
			IssuedBy:      uuid.New(),
			IssuedTo:      env.tenant.ID,
			Subtotal:      decimal.RequireFromString("100.00"),
			TotalAmount:   decimal.RequireFromString("100.00"),
			Status:        enum.InvoiceStatusPaid,
		})

		err := env.svc.DeleteInvoice(env.ctx(), paid.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})
}
