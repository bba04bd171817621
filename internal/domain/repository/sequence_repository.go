package repository

import (
	"context"

	"github.com/google/uuid"
)

// SequenceRepository hands out gapless per-company document numbers.
type SequenceRepository interface {
	// Next atomically increments the named sequence for the company and
	// returns the new value. Safe under concurrent callers; two callers
	// never receive the same value.
	Next(ctx context.Context, companyID uuid.UUID, name string) (int64, error)
}
