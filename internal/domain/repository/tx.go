package repository

import "context"

// TransactionManager runs a function inside a single storage transaction.
// Repositories called with the derived context participate in that
// transaction, so multi-entity mutations (approve + link + mark paid)
// commit or roll back as one unit.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
