package request

import (
	"github.com/shopspring/decimal"
)

// CreatePropertyRequest represents a create property request
type CreatePropertyRequest struct {
	Name    string  `json:"name" binding:"required,min=2,max=255"`
	Address string  `json:"address" binding:"required,max=255"`
	City    *string `json:"city"`
	Notes   *string `json:"notes"`
}

// UpdatePropertyRequest represents an update property request
type UpdatePropertyRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	Notes   *string `json:"notes"`
}

// CreateUnitRequest represents a create unit request
type CreateUnitRequest struct {
	UnitNumber  string          `json:"unit_number" binding:"required,max=50"`
	Bedrooms    int             `json:"bedrooms"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" binding:"required"`
}
