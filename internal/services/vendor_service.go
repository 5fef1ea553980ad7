package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/repos"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

// ComplianceSummary is the vendor-facing rollup: one row per catalog type,
// whether or not anything was uploaded for it.
type ComplianceSummary struct {
	Vendor    *types.Vendor     `json:"vendor"`
	Documents []DocumentSummary `json:"documents"`
}

type DocumentSummary struct {
	ComplianceDocument *types.ComplianceDocument `json:"compliance_document"`
	Uploaded           *types.UploadedDocument   `json:"uploaded,omitempty"`
	Status             types.VerificationStatus  `json:"status"`
	RiskScore          float64                   `json:"risk_score"`
}

type VendorService interface {
	Get(ctx context.Context, vendorID uuid.UUID) (*types.Vendor, error)
	ComplianceSummary(ctx context.Context, vendorID uuid.UUID) (*ComplianceSummary, error)
}

type vendorService struct {
	log     *logger.Logger
	vendors repos.VendorRepo
	catalog repos.ComplianceDocumentRepo
	docs    repos.UploadedDocumentRepo
}

func NewVendorService(baseLog *logger.Logger, vendors repos.VendorRepo, catalog repos.ComplianceDocumentRepo, docs repos.UploadedDocumentRepo) VendorService {
	return &vendorService{
		log:     baseLog.With("service", "VendorService"),
		vendors: vendors,
		catalog: catalog,
		docs:    docs,
	}
}

func (s *vendorService) Get(ctx context.Context, vendorID uuid.UUID) (*types.Vendor, error) {
	return s.vendors.GetByID(ctx, nil, vendorID)
}

func (s *vendorService) ComplianceSummary(ctx context.Context, vendorID uuid.UUID) (*ComplianceSummary, error) {
	var (
		vendor   *types.Vendor
		catalog  []*types.ComplianceDocument
		uploaded []*types.UploadedDocument
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.vendors.GetByID(gctx, nil, vendorID)
		if err != nil {
			return err
		}
		vendor = v
		return nil
	})
	g.Go(func() error {
		c, err := s.catalog.GetAll(gctx, nil)
		if err != nil {
			return err
		}
		catalog = c
		return nil
	})
	g.Go(func() error {
		u, err := s.docs.GetByVendorID(gctx, nil, vendorID)
		if err != nil {
			return err
		}
		uploaded = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Latest upload per type wins; earlier uploads stay in the audit trail.
	latest := make(map[uuid.UUID]*types.UploadedDocument, len(uploaded))
	for _, doc := range uploaded {
		latest[doc.ComplianceDocumentID] = doc
	}

	summary := &ComplianceSummary{Vendor: vendor, Documents: make([]DocumentSummary, 0, len(catalog))}
	for _, entry := range catalog {
		row := DocumentSummary{ComplianceDocument: entry, Status: types.StatusMissing}
		if doc, ok := latest[entry.ID]; ok {
			row.Uploaded = doc
			row.Status = doc.VerificationStatus
			if doc.RiskScore != nil {
				row.RiskScore = *doc.RiskScore
			}
		}
		summary.Documents = append(summary.Documents, row)
	}
	return summary, nil
}
