package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus int

const (
	InvoiceStatusDraft    InvoiceStatus = 0
	InvoiceStatusSent     InvoiceStatus = 1
	InvoiceStatusOverdue  InvoiceStatus = 2
	InvoiceStatusPaid     InvoiceStatus = 3
	InvoiceStatusCanceled InvoiceStatus = 4
)

func (s InvoiceStatus) String() string {
	return [...]string{"Draft", "Sent", "Overdue", "Paid", "Canceled"}[s]
}

// IsTerminal reports whether no further status writes are accepted
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCanceled
}

// IsOpen reports whether the invoice can still receive payments
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusOverdue
}

func (s InvoiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = InvoiceStatus(i)
		return nil
	}
	switch str {
	case "Draft":
		*s = InvoiceStatusDraft
	case "Sent":
		*s = InvoiceStatusSent
	case "Overdue":
		*s = InvoiceStatusOverdue
	case "Paid":
		*s = InvoiceStatusPaid
	case "Canceled":
		*s = InvoiceStatusCanceled
	}
	return nil
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *InvoiceStatus) Scan(value interface{}) error {
	if value == nil {
		*s = InvoiceStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = InvoiceStatus(v)
	case int:
		*s = InvoiceStatus(v)
	}
	return nil
}
