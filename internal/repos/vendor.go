package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	pkgerrors "github.com/aksidharth04/SetuAI-sub001/internal/pkg/errors"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

type VendorRepo interface {
	Create(ctx context.Context, tx *gorm.DB, vendor *types.Vendor) (*types.Vendor, error)
	GetByID(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (*types.Vendor, error)
	UpdateComplianceScore(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, score float64, status types.ComplianceStatus) error
}

type vendorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVendorRepo(db *gorm.DB, baseLog *logger.Logger) VendorRepo {
	return &vendorRepo{db: db, log: baseLog.With("repo", "VendorRepo")}
}

func (r *vendorRepo) Create(ctx context.Context, tx *gorm.DB, vendor *types.Vendor) (*types.Vendor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

func (r *vendorRepo) GetByID(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (*types.Vendor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var vendor types.Vendor
	err := transaction.WithContext(ctx).
		Where("id = ?", vendorID).
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepo) UpdateComplianceScore(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, score float64, status types.ComplianceStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Vendor{}).
		Where("id = ?", vendorID).
		Updates(map[string]any{
			"overall_compliance_score": score,
			"compliance_status":        status,
		}).Error
}
