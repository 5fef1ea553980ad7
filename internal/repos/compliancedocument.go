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

type ComplianceDocumentRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.ComplianceDocument, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ComplianceDocument, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.ComplianceDocument, error)
}

type complianceDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComplianceDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ComplianceDocumentRepo {
	return &complianceDocumentRepo{db: db, log: baseLog.With("repo", "ComplianceDocumentRepo")}
}

func (r *complianceDocumentRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.ComplianceDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ComplianceDocument
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *complianceDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ComplianceDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var doc types.ComplianceDocument
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *complianceDocumentRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.ComplianceDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var doc types.ComplianceDocument
	err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}
