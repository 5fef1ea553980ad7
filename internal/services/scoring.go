package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/repos"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

// statusWeights is the base score per verification status. VERIFIED is
// scaled by the recorded AI confidence instead of the flat 100.
var statusWeights = map[types.VerificationStatus]float64{
	types.StatusVerified:             100,
	types.StatusPendingAPIValidation: 60,
	types.StatusPending:              50,
	types.StatusPendingManualReview:  40,
	types.StatusRejected:             0,
	types.StatusMissing:              0,
	types.StatusExpired:              0,
}

// pillarWeights is the per-pillar multiplier for the vendor aggregate.
// Child-labor compliance is weighted heaviest.
var pillarWeights = map[types.CompliancePillar]float64{
	types.PillarChildLabor:    1.8,
	types.PillarFactorySafety: 1.5,
	types.PillarEnvironmental: 1.3,
	types.PillarWages:         1.2,
	types.PillarStatutory:     1.0,
}

const (
	greenThreshold = 85.0
	amberThreshold = 60.0
)

// HistoryMultiplier is the penalty for prior rejections of the same
// document.
func HistoryMultiplier(rejections int64) float64 {
	switch {
	case rejections <= 0:
		return 1.0
	case rejections == 1:
		return 0.9
	case rejections == 2:
		return 0.75
	default:
		return 0.5
	}
}

// DocumentScore computes the 0-100 risk score for one document.
func DocumentScore(status types.VerificationStatus, confidence float64, rejections int64) float64 {
	base := statusWeights[status]
	if status == types.StatusVerified {
		base = base * confidence
	}
	score := base * HistoryMultiplier(rejections)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// AggregateScore rolls per-document scores into a vendor score over the
// ENTIRE catalog: a document type that was never uploaded contributes the
// MISSING weight of 0, pulling the vendor down.
func AggregateScore(catalog []*types.ComplianceDocument, scoresByType map[uuid.UUID]float64) float64 {
	var weighted, weights float64
	for _, cd := range catalog {
		w, ok := pillarWeights[cd.Pillar]
		if !ok {
			w = 1.0
		}
		weights += w
		if score, ok := scoresByType[cd.ID]; ok {
			weighted += score * w
		}
	}
	if weights == 0 {
		return 0
	}
	score := weighted / weights
	if score > 100 {
		score = 100
	}
	return score
}

// StatusFor maps a vendor score to the traffic-light status. Boundaries are
// inclusive: 85 is GREEN, 60 is AMBER.
func StatusFor(score float64) types.ComplianceStatus {
	switch {
	case score >= greenThreshold:
		return types.ComplianceStatusGreen
	case score >= amberThreshold:
		return types.ComplianceStatusAmber
	default:
		return types.ComplianceStatusRed
	}
}

// ScoringService recomputes document risk scores and the vendor aggregate.
// The vendor recompute always runs from a full fresh read of the catalog
// and the vendor's documents, so repeating it with no intervening change is
// a no-op. Recomputes for one vendor are serialized; different vendors run
// concurrently.
type ScoringService interface {
	ScoreDocument(ctx context.Context, tx *gorm.DB, doc *types.UploadedDocument) (float64, error)
	RecomputeVendor(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (float64, types.ComplianceStatus, error)
}

type scoringService struct {
	db  *gorm.DB
	log *logger.Logger

	docs    repos.UploadedDocumentRepo
	catalog repos.ComplianceDocumentRepo
	history repos.DocumentHistoryRepo
	vendors repos.VendorRepo

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewScoringService(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.UploadedDocumentRepo,
	catalog repos.ComplianceDocumentRepo,
	history repos.DocumentHistoryRepo,
	vendors repos.VendorRepo,
) ScoringService {
	return &scoringService{
		db:      db,
		log:     baseLog.With("service", "ScoringService"),
		docs:    docs,
		catalog: catalog,
		history: history,
		vendors: vendors,
		locks:   map[uuid.UUID]*sync.Mutex{},
	}
}

// vendorLock serializes recomputes for one vendor. The map keeps one entry
// per vendor seen since boot and is never evicted; entries are a mutex each,
// bounded by the vendor population rather than upload volume.
func (s *scoringService) vendorLock(vendorID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if mu, ok := s.locks[vendorID]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	s.locks[vendorID] = mu
	return mu
}

func (s *scoringService) ScoreDocument(ctx context.Context, tx *gorm.DB, doc *types.UploadedDocument) (float64, error) {
	rejections, err := s.history.CountRejections(ctx, tx, doc.ID)
	if err != nil {
		return 0, err
	}

	score := DocumentScore(doc.VerificationStatus, confidenceFromDetails(doc.VerificationDetails), rejections)
	if err := s.docs.UpdateRiskScore(ctx, tx, doc.ID, score); err != nil {
		return 0, err
	}
	return score, nil
}

func (s *scoringService) RecomputeVendor(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (float64, types.ComplianceStatus, error) {
	mu := s.vendorLock(vendorID)
	mu.Lock()
	defer mu.Unlock()

	var (
		catalog []*types.ComplianceDocument
		docs    []*types.UploadedDocument
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = s.catalog.GetAll(gctx, tx)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = s.docs.GetByVendorID(gctx, tx, vendorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, "", err
	}

	// Latest upload per document type wins; docs come back ordered by
	// created_at ascending.
	scoresByType := map[uuid.UUID]float64{}
	for _, doc := range docs {
		rejections, err := s.history.CountRejections(ctx, tx, doc.ID)
		if err != nil {
			return 0, "", err
		}
		score := DocumentScore(doc.VerificationStatus, confidenceFromDetails(doc.VerificationDetails), rejections)
		if doc.RiskScore == nil || *doc.RiskScore != score {
			if err := s.docs.UpdateRiskScore(ctx, tx, doc.ID, score); err != nil {
				return 0, "", err
			}
		}
		scoresByType[doc.ComplianceDocumentID] = score
	}

	total := AggregateScore(catalog, scoresByType)
	status := StatusFor(total)

	if err := s.vendors.UpdateComplianceScore(ctx, tx, vendorID, total, status); err != nil {
		return 0, "", err
	}

	s.log.Info("Vendor compliance recomputed",
		"vendor_id", vendorID,
		"score", total,
		"status", status,
		"documents", len(docs),
		"catalog_size", len(catalog),
	)
	return total, status, nil
}

func confidenceFromDetails(details []byte) float64 {
	if len(details) == 0 {
		return 0
	}
	var m struct {
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(details, &m); err != nil {
		return 0
	}
	if m.Confidence < 0 {
		return 0
	}
	if m.Confidence > 1 {
		return 1
	}
	return m.Confidence
}
