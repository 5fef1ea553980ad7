package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	pkgerrors "github.com/aksidharth04/SetuAI-sub001/internal/pkg/errors"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

type fakeCatalogRepo struct {
	entries map[uuid.UUID]*types.ComplianceDocument
}

func (f *fakeCatalogRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.ComplianceDocument, error) {
	var out []*types.ComplianceDocument
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ComplianceDocument, error) {
	if e, ok := f.entries[id]; ok {
		return e, nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeCatalogRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.ComplianceDocument, error) {
	for _, e := range f.entries {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

type fakeHistoryRepo struct {
	entries []*types.DocumentHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.DocumentHistory) (*types.DocumentHistory, error) {
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeHistoryRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) ([]*types.DocumentHistory, error) {
	var out []*types.DocumentHistory
	for _, e := range f.entries {
		if e.UploadedDocumentID == docID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) CountRejections(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (int64, error) {
	var n int64
	for _, e := range f.entries {
		if e.UploadedDocumentID == docID && e.NewStatus == types.StatusRejected {
			n++
		}
	}
	return n, nil
}

type fakeOrchestrator struct {
	verified chan uuid.UUID
}

func (f *fakeOrchestrator) VerifyUpload(ctx context.Context, docID uuid.UUID, actorID *uuid.UUID) (*PipelineResult, error) {
	if f.verified != nil {
		f.verified <- docID
	}
	return &PipelineResult{DocumentID: docID, Status: types.StatusPendingAPIValidation}, nil
}

func (f *fakeOrchestrator) ManualStatusUpdate(ctx context.Context, docID uuid.UUID, newStatus types.VerificationStatus, reason string, actorID *uuid.UUID) error {
	return nil
}

func TestDocumentServiceUpload(t *testing.T) {
	log, _ := logger.New("development")

	catalogID := uuid.New()
	catalog := &fakeCatalogRepo{entries: map[uuid.UUID]*types.ComplianceDocument{
		catalogID: {ID: catalogID, Name: "GST_REGISTRATION", Pillar: types.PillarStatutory},
	}}
	store := &fakeFileStore{}
	docs := newFakeDocRepo()
	history := &fakeHistoryRepo{}
	orch := &fakeOrchestrator{verified: make(chan uuid.UUID, 1)}

	svc := NewDocumentService(log, store, docs, catalog, history, orch)

	vendorID := uuid.New()
	res, err := svc.Upload(context.Background(), UploadInput{
		VendorID:             vendorID,
		ComplianceDocumentID: catalogID,
		OriginalFilename:     "gst-cert.PDF",
		Content:              strings.NewReader("%PDF-1.7 body"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := res.Document
	if doc.VerificationStatus != types.StatusPending {
		t.Fatalf("new uploads start PENDING, got %v", doc.VerificationStatus)
	}
	if !strings.HasPrefix(doc.FilePath, vendorID.String()+"/") {
		t.Fatalf("file path not grouped by vendor: %q", doc.FilePath)
	}
	if !strings.HasSuffix(doc.FilePath, ".pdf") {
		t.Fatalf("extension not preserved lowercase: %q", doc.FilePath)
	}
	if _, ok := store.files[doc.FilePath]; !ok {
		t.Fatal("file bytes not written to the store")
	}

	entries, _ := history.GetByDocumentID(context.Background(), nil, doc.ID)
	if len(entries) != 1 || entries[0].Action != "DOCUMENT_UPLOADED" {
		t.Fatalf("upload history: %+v", entries)
	}

	// The verification pipeline is scheduled for the stored document.
	select {
	case got := <-orch.verified:
		if got != doc.ID {
			t.Fatalf("pipeline ran for wrong document: %v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline was not scheduled")
	}
	select {
	case pr := <-res.Pipeline:
		if pr == nil || pr.DocumentID != doc.ID {
			t.Fatalf("pipeline result: %+v", pr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline result not delivered")
	}
}

func TestDocumentServiceUploadValidation(t *testing.T) {
	log, _ := logger.New("development")
	catalogID := uuid.New()
	catalog := &fakeCatalogRepo{entries: map[uuid.UUID]*types.ComplianceDocument{
		catalogID: {ID: catalogID, Name: "GST_REGISTRATION"},
	}}
	svc := NewDocumentService(log, &fakeFileStore{}, newFakeDocRepo(), catalog, &fakeHistoryRepo{}, &fakeOrchestrator{})

	_, err := svc.Upload(context.Background(), UploadInput{
		VendorID:             uuid.New(),
		ComplianceDocumentID: catalogID,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("nil content: want ValidationError, got %T", err)
	}

	_, err = svc.Upload(context.Background(), UploadInput{
		ComplianceDocumentID: catalogID,
		Content:              strings.NewReader("x"),
	})
	if !errors.As(err, &vErr) {
		t.Fatalf("missing vendor: want ValidationError, got %T", err)
	}

	_, err = svc.Upload(context.Background(), UploadInput{
		VendorID:             uuid.New(),
		ComplianceDocumentID: uuid.New(),
		Content:              strings.NewReader("x"),
	})
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("unknown document type: want ErrNotFound, got %v", err)
	}
}
