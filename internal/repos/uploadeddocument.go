package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	pkgerrors "github.com/aksidharth04/SetuAI-sub001/internal/pkg/errors"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

// TransitionUpdate carries the document mutation applied together with one
// history row. Nil fields are left untouched.
type TransitionUpdate struct {
	Status              types.VerificationStatus
	VerificationSummary *string
	ExtractedData       datatypes.JSON
	VerificationDetails datatypes.JSON
	RiskScore           *float64
	LastVerifiedAt      *time.Time
}

type UploadedDocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.UploadedDocument) (*types.UploadedDocument, error)
	GetByID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (*types.UploadedDocument, error)
	GetByVendorID(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) ([]*types.UploadedDocument, error)
	// ApplyTransition updates the document row and appends the matching
	// history entry inside a single transaction.
	ApplyTransition(ctx context.Context, tx *gorm.DB, docID uuid.UUID, update TransitionUpdate, entry *types.DocumentHistory) error
	UpdateRiskScore(ctx context.Context, tx *gorm.DB, docID uuid.UUID, score float64) error
	FullDeleteByID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) error
}

type uploadedDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadedDocumentRepo(db *gorm.DB, baseLog *logger.Logger) UploadedDocumentRepo {
	return &uploadedDocumentRepo{db: db, log: baseLog.With("repo", "UploadedDocumentRepo")}
}

func (r *uploadedDocumentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.UploadedDocument) (*types.UploadedDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *uploadedDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (*types.UploadedDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var doc types.UploadedDocument
	err := transaction.WithContext(ctx).
		Preload("ComplianceDocument").
		Where("id = ?", docID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *uploadedDocumentRepo) GetByVendorID(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) ([]*types.UploadedDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UploadedDocument
	err := transaction.WithContext(ctx).
		Preload("ComplianceDocument").
		Where("vendor_id = ?", vendorID).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *uploadedDocumentRepo) ApplyTransition(ctx context.Context, tx *gorm.DB, docID uuid.UUID, update TransitionUpdate, entry *types.DocumentHistory) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		updates := map[string]any{
			"verification_status": update.Status,
		}
		if update.VerificationSummary != nil {
			updates["verification_summary"] = *update.VerificationSummary
		}
		if update.ExtractedData != nil {
			updates["extracted_data"] = update.ExtractedData
		}
		if update.VerificationDetails != nil {
			updates["verification_details"] = update.VerificationDetails
		}
		if update.RiskScore != nil {
			updates["risk_score"] = *update.RiskScore
		}
		if update.LastVerifiedAt != nil {
			updates["last_verified_at"] = *update.LastVerifiedAt
		}

		res := txx.Model(&types.UploadedDocument{}).
			Where("id = ?", docID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrNotFound
		}

		entry.UploadedDocumentID = docID
		return txx.Create(entry).Error
	})
}

func (r *uploadedDocumentRepo) UpdateRiskScore(ctx context.Context, tx *gorm.DB, docID uuid.UUID, score float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.UploadedDocument{}).
		Where("id = ?", docID).
		Update("risk_score", score).Error
}

func (r *uploadedDocumentRepo) FullDeleteByID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Unscoped().
			Where("uploaded_document_id = ?", docID).
			Delete(&types.DocumentHistory{}).Error; err != nil {
			return err
		}
		return txx.Unscoped().
			Where("id = ?", docID).
			Delete(&types.UploadedDocument{}).Error
	})
}
