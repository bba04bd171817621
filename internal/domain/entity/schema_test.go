package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func uniqueIndexColumns(t *testing.T, model interface{}, name string) []string {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	idx, ok := s.ParseIndexes()[name]
	require.True(t, ok, "index %s not defined", name)
	assert.Equal(t, "UNIQUE", idx.Class)
	cols := make([]string, 0, len(idx.Fields))
	for _, f := range idx.Fields {
		cols = append(cols, f.DBName)
	}
	return cols
}

// Document numbers restart at 1 for every company, so the unique indexes
// that back them must span company_id and the number column together.
func TestInvoiceNumberUniquePerCompany(t *testing.T) {
	cols := uniqueIndexColumns(t, &Invoice{}, "idx_invoices_company_number")
	assert.ElementsMatch(t, []string{"company_id", "invoice_number"}, cols)
}

func TestReceiptNumberUniquePerCompany(t *testing.T) {
	cols := uniqueIndexColumns(t, &Payment{}, "idx_payments_company_receipt")
	assert.ElementsMatch(t, []string{"company_id", "receipt_number"}, cols)
}

// The reference index backstops concurrently retried webhooks. NULL
// references stay distinct in Postgres, so manual payments without one
// never collide.
func TestPaymentReferenceUniquePerCompany(t *testing.T) {
	cols := uniqueIndexColumns(t, &Payment{}, "idx_payments_company_reference")
	assert.ElementsMatch(t, []string{"company_id", "reference_number"}, cols)
}
