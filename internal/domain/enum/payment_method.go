package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentMethod represents how a payment was made
type PaymentMethod int

const (
	PaymentMethodCash  PaymentMethod = 0
	PaymentMethodBank  PaymentMethod = 1
	PaymentMethodMpesa PaymentMethod = 2
	PaymentMethodCard  PaymentMethod = 3
)

func (m PaymentMethod) String() string {
	return [...]string{"Cash", "Bank", "Mpesa", "Card"}[m]
}

// IsGateway reports whether the method settles through an online gateway
// whose transaction reference can be verified externally
func (m PaymentMethod) IsGateway() bool {
	return m == PaymentMethodMpesa || m == PaymentMethodCard
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = PaymentMethod(i)
		return nil
	}
	switch str {
	case "Cash":
		*m = PaymentMethodCash
	case "Bank":
		*m = PaymentMethodBank
	case "Mpesa":
		*m = PaymentMethodMpesa
	case "Card":
		*m = PaymentMethodCard
	}
	return nil
}

func (m PaymentMethod) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentMethodCash
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = PaymentMethod(v)
	case int:
		*m = PaymentMethod(v)
	}
	return nil
}
