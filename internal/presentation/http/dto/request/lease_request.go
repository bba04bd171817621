package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLeaseRequest represents a create lease request
type CreateLeaseRequest struct {
	TenantID      uuid.UUID       `json:"tenant_id" binding:"required"`
	UnitID        uuid.UUID       `json:"unit_id" binding:"required"`
	RentAmount    decimal.Decimal `json:"rent_amount" binding:"required"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	StartDate     time.Time       `json:"start_date" binding:"required"`
	EndDate       *time.Time      `json:"end_date"`
}

// TerminateLeaseRequest represents a lease termination request
type TerminateLeaseRequest struct {
	EndDate *time.Time `json:"end_date"`
}
