package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentStatus represents the lifecycle status of a payment
type PaymentStatus int

const (
	PaymentStatusPending   PaymentStatus = 0
	PaymentStatusApproved  PaymentStatus = 1
	PaymentStatusCompleted PaymentStatus = 2
	PaymentStatusRejected  PaymentStatus = 3
)

func (s PaymentStatus) String() string {
	return [...]string{"Pending", "Approved", "Completed", "Rejected"}[s]
}

// CountsTowardSettlement reports whether the payment amount contributes to
// an invoice's paid balance
func (s PaymentStatus) CountsTowardSettlement() bool {
	return s == PaymentStatusApproved || s == PaymentStatusCompleted
}

// IsTerminal reports whether the payment is in a terminal state
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusRejected
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PaymentStatus(i)
		return nil
	}
	switch str {
	case "Pending":
		*s = PaymentStatusPending
	case "Approved":
		*s = PaymentStatusApproved
	case "Completed":
		*s = PaymentStatusCompleted
	case "Rejected":
		*s = PaymentStatusRejected
	}
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	}
	return nil
}
