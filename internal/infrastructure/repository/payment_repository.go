package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	domainRepo "github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

// Create persists a payment. The unique index on (company_id,
// reference_number) is the backstop against concurrently retried webhooks
// that both pass the pre-insert reference check.
func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	err := dbFor(ctx, r.db).WithContext(ctx).Create(payment).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.NewConflictError("A payment with this reference already exists")
	}
	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Preload("Tenant").
		First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		First(&payment, "reference_number = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return dbFor(ctx, r.db).WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus) error {
	return dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Payment{}).
		Scopes(CompanyScope(ctx)).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFor(ctx, r.db).WithContext(ctx).Delete(&entity.Payment{}, "id = ?", id).Error
}

func (r *paymentRepository) List(ctx context.Context, params *domainRepo.PaymentFilterParams) ([]entity.Payment, int64, error) {
	var payments []entity.Payment
	var total int64

	if params.SkipCompanyScope {
		ctx = WithSkipCompanyScope(ctx, true)
	}

	query := dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Payment{}).Scopes(CompanyScope(ctx))

	if params.Search != "" {
		query = query.Where("receipt_number ILIKE ? OR reference_number ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.TenantID != nil {
		query = query.Where("tenant_id = ?", *params.TenantID)
	}

	if params.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *params.InvoiceID)
	}

	if params.Method != nil {
		query = query.Where("method = ?", *params.Method)
	}

	if params.StartDate != nil {
		query = query.Where("payment_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("payment_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "payment_date"
	sortOrder := "DESC"
	if params.SortBy != "" {
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Tenant").
		Order(sortBy + " " + sortOrder).
		Find(&payments).Error

	return payments, total, err
}

func (r *paymentRepository) ListUnlinkedApproved(ctx context.Context) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Where("status = ?", enum.PaymentStatusApproved).
		Where("invoice_id IS NULL").
		Order("payment_date DESC").
		Find(&payments).Error
	return payments, err
}

// SumSettledForInvoice runs against the context transaction when one is
// active, so a link written moments earlier is counted.
func (r *paymentRepository) SumSettledForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Where("status IN ?", []enum.PaymentStatus{enum.PaymentStatusApproved, enum.PaymentStatusCompleted}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
