package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	domainRepo "github.com/kodisha/kodisha-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	// Line items ride along through the association
	return dbFor(ctx, r.db).WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

// GetByIDForUpdate acquires a row lock so concurrent settlements against
// the same invoice serialize. Only meaningful inside a transaction.
func (r *invoiceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := dbFor(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(CompanyScope(ctx)).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) GetWithLineItems(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Preload("LineItems").
		Preload("Tenant").
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return dbFor(ctx, r.db).WithContext(ctx).Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFor(ctx, r.db).WithContext(ctx)
	if err := db.Delete(&entity.InvoiceLineItem{}, "invoice_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&entity.Invoice{}, "id = ?", id).Error
}

func (r *invoiceRepository) List(ctx context.Context, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	if params.SkipCompanyScope {
		ctx = WithSkipCompanyScope(ctx, true)
	}

	query := dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Invoice{}).Scopes(CompanyScope(ctx))

	if params.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+params.Search+"%")
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.TenantID != nil {
		query = query.Where("issued_to = ?", *params.TenantID)
	}

	if params.PropertyID != nil {
		query = query.Where("property_id = ?", *params.PropertyID)
	}

	if params.StartDate != nil {
		query = query.Where("issue_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("issue_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "created_at"
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
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) ListOpenByTenant(ctx context.Context, tenantID uuid.UUID) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Where("issued_to = ?", tenantID).
		Where("status IN ?", []enum.InvoiceStatus{enum.InvoiceStatusSent, enum.InvoiceStatusOverdue}).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListSentDueBefore(ctx context.Context, now time.Time) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFor(ctx, r.db).WithContext(ctx).
		Scopes(CompanyScope(ctx)).
		Where("status = ?", enum.InvoiceStatusSent).
		Where("due_date < ?", now).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

// TransitionStatus performs a guarded status flip. The WHERE clause on the
// current status makes the sweep idempotent under concurrent runs.
func (r *invoiceRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enum.InvoiceStatus) (bool, error) {
	result := dbFor(ctx, r.db).WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(CompanyScope(ctx)).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected > 0, result.Error
}
