package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	pkgerrors "github.com/aksidharth04/SetuAI-sub001/internal/pkg/errors"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

type fakeVendorRepo struct {
	vendors map[uuid.UUID]*types.Vendor
}

func (f *fakeVendorRepo) Create(ctx context.Context, tx *gorm.DB, vendor *types.Vendor) (*types.Vendor, error) {
	f.vendors[vendor.ID] = vendor
	return vendor, nil
}

func (f *fakeVendorRepo) GetByID(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (*types.Vendor, error) {
	if v, ok := f.vendors[vendorID]; ok {
		return v, nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeVendorRepo) UpdateComplianceScore(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, score float64, status types.ComplianceStatus) error {
	if v, ok := f.vendors[vendorID]; ok {
		v.OverallComplianceScore = score
		v.ComplianceStatus = status
		return nil
	}
	return pkgerrors.ErrNotFound
}

func TestComplianceSummaryCoversWholeCatalog(t *testing.T) {
	log, _ := logger.New("development")

	vendorID := uuid.New()
	vendors := &fakeVendorRepo{vendors: map[uuid.UUID]*types.Vendor{
		vendorID: {ID: vendorID, CompanyName: "Tirupur Textiles"},
	}}

	gstID, isoID := uuid.New(), uuid.New()
	catalog := &fakeCatalogRepo{entries: map[uuid.UUID]*types.ComplianceDocument{
		gstID: {ID: gstID, Name: "GST_REGISTRATION", Pillar: types.PillarStatutory},
		isoID: {ID: isoID, Name: "ISO_45001", Pillar: types.PillarFactorySafety},
	}}

	score := 90.0
	docs := newFakeDocRepo(&types.UploadedDocument{
		ID:                   uuid.New(),
		VendorID:             vendorID,
		ComplianceDocumentID: gstID,
		VerificationStatus:   types.StatusVerified,
		RiskScore:            &score,
	})

	svc := NewVendorService(log, vendors, catalog, docs)
	summary, err := svc.ComplianceSummary(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Vendor.ID != vendorID {
		t.Fatalf("vendor: %+v", summary.Vendor)
	}
	if len(summary.Documents) != 2 {
		t.Fatalf("one row per catalog type: want=2 got=%d", len(summary.Documents))
	}

	byName := map[string]DocumentSummary{}
	for _, row := range summary.Documents {
		byName[row.ComplianceDocument.Name] = row
	}
	gst := byName["GST_REGISTRATION"]
	if gst.Status != types.StatusVerified || gst.Uploaded == nil || gst.RiskScore != 90 {
		t.Fatalf("uploaded row: %+v", gst)
	}
	iso := byName["ISO_45001"]
	if iso.Status != types.StatusMissing || iso.Uploaded != nil || iso.RiskScore != 0 {
		t.Fatalf("missing row: %+v", iso)
	}
}

func TestComplianceSummaryUnknownVendor(t *testing.T) {
	log, _ := logger.New("development")
	svc := NewVendorService(log,
		&fakeVendorRepo{vendors: map[uuid.UUID]*types.Vendor{}},
		&fakeCatalogRepo{entries: map[uuid.UUID]*types.ComplianceDocument{}},
		newFakeDocRepo(),
	)
	if _, err := svc.ComplianceSummary(context.Background(), uuid.New()); err == nil {
		t.Fatal("want error for unknown vendor")
	}
}
