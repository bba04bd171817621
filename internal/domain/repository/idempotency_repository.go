package repository

import (
	"context"

	"github.com/kodisha/kodisha-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// Create stores a new idempotency key with its response
	Create(ctx context.Context, key *entity.IdempotencyKey) error

	// GetByKey retrieves an idempotency key by its key string
	GetByKey(ctx context.Context, key string) (*entity.IdempotencyKey, error)

	// DeleteExpired removes all expired idempotency keys
	DeleteExpired(ctx context.Context) error
}
