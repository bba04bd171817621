package repository

import (
	"context"

	"github.com/google/uuid"
	domainRepo "github.com/kodisha/kodisha-api/internal/domain/repository"
	"gorm.io/gorm"
)

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *gorm.DB) domainRepo.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next bumps the counter with a single upsert. The unique index on
// (company_id, name) makes concurrent callers queue on the row, so every
// caller gets a distinct value and no number is handed out twice.
func (r *sequenceRepository) Next(ctx context.Context, companyID uuid.UUID, name string) (int64, error) {
	var next int64
	err := dbFor(ctx, r.db).WithContext(ctx).Raw(`
		INSERT INTO number_sequences (company_id, name, last_value, created_at, updated_at)
		VALUES (?, ?, 1, NOW(), NOW())
		ON CONFLICT (company_id, name)
		DO UPDATE SET last_value = number_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`,
		companyID, name,
	).Scan(&next).Error
	return next, err
}
