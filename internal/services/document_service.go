package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/repos"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

// DocumentService owns the upload surface: storing the file, creating the
// PENDING row with its first history entry, and scheduling verification.
// An upload is reported as accepted once the file is stored; pipeline
// failures surface later through the document status, never the upload
// response.
type DocumentService interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
	Get(ctx context.Context, docID uuid.UUID) (*types.UploadedDocument, error)
	History(ctx context.Context, docID uuid.UUID) ([]*types.DocumentHistory, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*types.UploadedDocument, error)
	Delete(ctx context.Context, docID uuid.UUID) error
}

type UploadInput struct {
	VendorID             uuid.UUID
	ComplianceDocumentID uuid.UUID
	OriginalFilename     string
	Content              io.Reader
	ActorID              *uuid.UUID
}

type UploadResult struct {
	Document *types.UploadedDocument
	// Pipeline resolves when the scheduled verification run finishes its
	// synchronous stages. Tests await it; handlers do not.
	Pipeline <-chan *PipelineResult
}

type documentService struct {
	log          *logger.Logger
	store        FileStore
	docs         repos.UploadedDocumentRepo
	catalog      repos.ComplianceDocumentRepo
	history      repos.DocumentHistoryRepo
	orchestrator VerificationOrchestrator
}

func NewDocumentService(
	baseLog *logger.Logger,
	store FileStore,
	docs repos.UploadedDocumentRepo,
	catalog repos.ComplianceDocumentRepo,
	history repos.DocumentHistoryRepo,
	orchestrator VerificationOrchestrator,
) DocumentService {
	return &documentService{
		log:          baseLog.With("service", "DocumentService"),
		store:        store,
		docs:         docs,
		catalog:      catalog,
		history:      history,
		orchestrator: orchestrator,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Content == nil {
		return nil, &ValidationError{Field: "file", Msg: "no file content provided"}
	}
	if in.VendorID == uuid.Nil {
		return nil, &ValidationError{Field: "vendor_id", Msg: "vendor id is required"}
	}

	catalogEntry, err := s.catalog.GetByID(ctx, nil, in.ComplianceDocumentID)
	if err != nil {
		return nil, fmt.Errorf("resolve compliance document type: %w", err)
	}

	storedPath := storedDocumentPath(in.VendorID, catalogEntry.Name, in.OriginalFilename)
	if err := s.store.Write(ctx, storedPath, in.Content); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &types.UploadedDocument{
		VendorID:             in.VendorID,
		ComplianceDocumentID: in.ComplianceDocumentID,
		FilePath:             storedPath,
		OriginalFilename:     in.OriginalFilename,
		VerificationStatus:   types.StatusPending,
	}
	created, err := s.docs.Create(ctx, nil, doc)
	if err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	entry := &types.DocumentHistory{
		UploadedDocumentID: created.ID,
		Action:             "DOCUMENT_UPLOADED",
		Details:            fmt.Sprintf("uploaded %s as %s", in.OriginalFilename, catalogEntry.Name),
		ActorID:            in.ActorID,
		PreviousStatus:     types.StatusPending,
		NewStatus:          types.StatusPending,
		VerificationMethod: types.MethodLocal,
	}
	if _, err := s.history.Create(ctx, nil, entry); err != nil {
		s.log.Error("Failed to record upload history", "document_id", created.ID.String(), "error", err)
	}

	pipeline := make(chan *PipelineResult, 1)
	go s.runPipeline(created.ID, in.ActorID, pipeline)

	s.log.Info("Document upload accepted",
		"document_id", created.ID.String(),
		"vendor_id", in.VendorID,
		"document_type", catalogEntry.Name,
	)
	return &UploadResult{Document: created, Pipeline: pipeline}, nil
}

func (s *documentService) runPipeline(docID uuid.UUID, actorID *uuid.UUID, out chan<- *PipelineResult) {
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Verification pipeline panicked", "document_id", docID.String(), "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := s.orchestrator.VerifyUpload(ctx, docID, actorID)
	if err != nil {
		s.log.Error("Verification pipeline failed", "document_id", docID.String(), "error", err)
		return
	}
	out <- res
}

func (s *documentService) Get(ctx context.Context, docID uuid.UUID) (*types.UploadedDocument, error) {
	return s.docs.GetByID(ctx, nil, docID)
}

func (s *documentService) History(ctx context.Context, docID uuid.UUID) ([]*types.DocumentHistory, error) {
	if _, err := s.docs.GetByID(ctx, nil, docID); err != nil {
		return nil, err
	}
	return s.history.GetByDocumentID(ctx, nil, docID)
}

func (s *documentService) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*types.UploadedDocument, error) {
	return s.docs.GetByVendorID(ctx, nil, vendorID)
}

func (s *documentService) Delete(ctx context.Context, docID uuid.UUID) error {
	return s.docs.FullDeleteByID(ctx, nil, docID)
}

// storedDocumentPath keeps uploads unique and grouped per vendor. Only the
// original extension is trusted from the client.
func storedDocumentPath(vendorID uuid.UUID, docType, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	name := fmt.Sprintf("%s_%d%s", strings.ToLower(docType), time.Now().UnixNano(), ext)
	return filepath.Join(vendorID.String(), name)
}
