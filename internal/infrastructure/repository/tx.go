package repository

import (
	"context"

	domainRepo "github.com/kodisha/kodisha-api/internal/domain/repository"
	"gorm.io/gorm"
)

const txKey ctxKey = "gorm_tx"

type txManager struct {
	db *gorm.DB
}

// NewTxManager creates a GORM-backed transaction manager
func NewTxManager(db *gorm.DB) domainRepo.TransactionManager {
	return &txManager{db: db}
}

// Do runs fn inside a database transaction. The transaction handle is
// carried in the context so repositories join it transparently. Nested
// calls reuse the outer transaction.
func (m *txManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// dbFor resolves the database handle for the current context, returning
// the active transaction when one is in flight.
func dbFor(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db
}
