package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/utils"
)

// NumberingService hands out invoice and receipt numbers. Numbers come from
// a per-company database counter, never from row counts, so two concurrent
// requests cannot be issued the same number.
type NumberingService struct {
	sequenceRepo repository.SequenceRepository
	companyRepo  repository.CompanyRepository
}

// NewNumberingService creates a new numbering service
func NewNumberingService(
	sequenceRepo repository.SequenceRepository,
	companyRepo repository.CompanyRepository,
) *NumberingService {
	return &NumberingService{
		sequenceRepo: sequenceRepo,
		companyRepo:  companyRepo,
	}
}

// NextInvoiceNumber allocates the next invoice number for the company,
// e.g. INV-000042. The company's configured prefix is honored.
func (s *NumberingService) NextInvoiceNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	prefix, err := s.prefixFor(ctx, companyID, entity.SequenceInvoice)
	if err != nil {
		return "", err
	}
	value, err := s.sequenceRepo.Next(ctx, companyID, entity.SequenceInvoice)
	if err != nil {
		return "", err
	}
	return utils.FormatDocumentNumber(prefix, value), nil
}

// NextReceiptNumber allocates the next receipt number for the company,
// e.g. RCP-000108.
func (s *NumberingService) NextReceiptNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	prefix, err := s.prefixFor(ctx, companyID, entity.SequenceReceipt)
	if err != nil {
		return "", err
	}
	value, err := s.sequenceRepo.Next(ctx, companyID, entity.SequenceReceipt)
	if err != nil {
		return "", err
	}
	return utils.FormatDocumentNumber(prefix, value), nil
}

func (s *NumberingService) prefixFor(ctx context.Context, companyID uuid.UUID, name string) (string, error) {
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return "", err
	}
	if company == nil {
		return "", apperror.NewNotFoundError("Company")
	}

	settings := company.Settings
	switch name {
	case entity.SequenceReceipt:
		if settings.ReceiptPrefix != "" {
			return settings.ReceiptPrefix, nil
		}
		return "RCP", nil
	default:
		if settings.InvoicePrefix != "" {
			return settings.InvoicePrefix, nil
		}
		return "INV", nil
	}
}
