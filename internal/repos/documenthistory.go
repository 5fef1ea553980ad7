package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

type DocumentHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.DocumentHistory) (*types.DocumentHistory, error)
	GetByDocumentID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) ([]*types.DocumentHistory, error)
	CountRejections(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (int64, error)
}

type documentHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentHistoryRepo(db *gorm.DB, baseLog *logger.Logger) DocumentHistoryRepo {
	return &documentHistoryRepo{db: db, log: baseLog.With("repo", "DocumentHistoryRepo")}
}

func (r *documentHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.DocumentHistory) (*types.DocumentHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *documentHistoryRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) ([]*types.DocumentHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DocumentHistory
	err := transaction.WithContext(ctx).
		Where("uploaded_document_id = ?", docID).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentHistoryRepo) CountRejections(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.DocumentHistory{}).
		Where("uploaded_document_id = ? AND new_status = ?", docID, types.StatusRejected).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
