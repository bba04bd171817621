package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentType classifies what a payment is for
type PaymentType int

const (
	PaymentTypeRent    PaymentType = 0
	PaymentTypeDeposit PaymentType = 1
	PaymentTypeUtility PaymentType = 2
	PaymentTypeOther   PaymentType = 3
)

func (t PaymentType) String() string {
	return [...]string{"Rent", "Deposit", "Utility", "Other"}[t]
}

func (t PaymentType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *PaymentType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = PaymentType(i)
		return nil
	}
	switch str {
	case "Rent":
		*t = PaymentTypeRent
	case "Deposit":
		*t = PaymentTypeDeposit
	case "Utility":
		*t = PaymentTypeUtility
	case "Other":
		*t = PaymentTypeOther
	}
	return nil
}

func (t PaymentType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *PaymentType) Scan(value interface{}) error {
	if value == nil {
		*t = PaymentTypeRent
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = PaymentType(v)
	case int:
		*t = PaymentType(v)
	}
	return nil
}
