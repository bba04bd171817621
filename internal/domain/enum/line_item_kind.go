package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// LineItemKind classifies an invoice line item
type LineItemKind int

const (
	LineItemKindRent    LineItemKind = 0
	LineItemKindUtility LineItemKind = 1
	LineItemKindOther   LineItemKind = 2
)

func (k LineItemKind) String() string {
	return [...]string{"Rent", "Utility", "Other"}[k]
}

func (k LineItemKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *LineItemKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*k = LineItemKind(i)
		return nil
	}
	switch str {
	case "Rent":
		*k = LineItemKindRent
	case "Utility":
		*k = LineItemKindUtility
	case "Other":
		*k = LineItemKindOther
	}
	return nil
}

func (k LineItemKind) Value() (driver.Value, error) {
	return int64(k), nil
}

func (k *LineItemKind) Scan(value interface{}) error {
	if value == nil {
		*k = LineItemKindOther
		return nil
	}
	switch v := value.(type) {
	case int64:
		*k = LineItemKind(v)
	case int:
		*k = LineItemKind(v)
	}
	return nil
}
