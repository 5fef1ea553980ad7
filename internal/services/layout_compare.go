package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aksidharth04/SetuAI-sub001/internal/clients/gcp"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

const (
	structureWeight = 0.4
	layoutWeight    = 0.6

	// >50% word overlap makes a reference block "content-matched".
	blockMatchOverlap = 0.5

	// normalized center distance below which a matched block counts as
	// being in the right place.
	centerDistanceThreshold = 0.12
)

// LayoutComparison is the result of comparing an upload against the stored
// canonical reference for its document type.
type LayoutComparison struct {
	Similarity float64 `json:"similarity"`
	Structure  float64 `json:"structure"`
	Layout     float64 `json:"layout"`
	Skipped    bool    `json:"skipped"`
	Details    string  `json:"details"`
}

// LayoutComparatorService detects structural tampering or wrong-document
// submissions for document types with a canonical visual layout. Types
// without one (independently issued certifications) report similarity 1.0:
// there is no canonical layout to compare against.
type LayoutComparatorService interface {
	CompareWithReference(ctx context.Context, uploaded *ExtractionResult, strategy *VerificationStrategy) (*LayoutComparison, error)
}

type layoutComparatorService struct {
	log    *logger.Logger
	files  FileStore
	vision gcp.Vision
}

func NewLayoutComparatorService(baseLog *logger.Logger, files FileStore, vision gcp.Vision) LayoutComparatorService {
	return &layoutComparatorService{
		log:    baseLog.With("service", "LayoutComparatorService"),
		files:  files,
		vision: vision,
	}
}

func (s *layoutComparatorService) CompareWithReference(ctx context.Context, uploaded *ExtractionResult, strategy *VerificationStrategy) (*LayoutComparison, error) {
	if !strategy.HasReferenceLayout() {
		return &LayoutComparison{
			Similarity: 1.0,
			Structure:  1.0,
			Layout:     1.0,
			Skipped:    true,
			Details:    "no canonical reference layout for this document type",
		}, nil
	}

	refBytes, err := s.files.Read(ctx, strategy.ReferenceImage)
	if err != nil {
		return nil, fmt.Errorf("read reference image %s: %w", strategy.ReferenceImage, err)
	}
	refOCR, err := s.vision.DetectDocumentText(ctx, refBytes, sniffMimeType(refBytes))
	if err != nil {
		return nil, fmt.Errorf("OCR reference image: %w", err)
	}
	if len(refOCR.Blocks) == 0 {
		return nil, fmt.Errorf("reference image %s produced no text blocks", strategy.ReferenceImage)
	}

	var cmp *LayoutComparison
	if len(uploaded.Blocks) > 0 {
		cmp = compareBlocks(uploaded.Blocks, refOCR.Blocks)
	} else {
		// PDF uploads carry no block geometry; match reference blocks
		// against the flat text and let structure stand in for layout.
		cmp = compareTextFallback(uploaded.Text, refOCR.Blocks)
	}

	s.log.Debug("Layout comparison finished",
		"document_type", strategy.DocumentType,
		"similarity", cmp.Similarity,
		"structure", cmp.Structure,
		"layout", cmp.Layout,
	)
	return cmp, nil
}

func compareBlocks(uploaded, reference []gcp.OCRBlock) *LayoutComparison {
	matched := 0
	placed := 0

	for _, ref := range reference {
		refWords := tokenizeWords(ref.Text)
		if len(refWords) == 0 {
			continue
		}

		bestOverlap := 0.0
		var best gcp.OCRBlock
		for _, up := range uploaded {
			ov := wordOverlap(refWords, tokenizeWords(up.Text))
			if ov > bestOverlap {
				bestOverlap = ov
				best = up
			}
		}

		if bestOverlap > blockMatchOverlap {
			matched++
			dist := math.Hypot(best.CX-ref.CX, best.CY-ref.CY)
			if dist <= centerDistanceThreshold {
				placed++
			}
		}
	}

	total := countNonEmpty(reference)
	structure := 0.0
	if total > 0 {
		structure = float64(matched) / float64(total)
	}
	layout := 0.0
	if matched > 0 {
		layout = float64(placed) / float64(matched)
	}

	return &LayoutComparison{
		Similarity: structureWeight*structure + layoutWeight*layout,
		Structure:  structure,
		Layout:     layout,
		Details:    fmt.Sprintf("%d/%d reference blocks matched, %d/%d in place", matched, total, placed, matched),
	}
}

func compareTextFallback(text string, reference []gcp.OCRBlock) *LayoutComparison {
	docWords := tokenizeWords(text)

	matched := 0
	for _, ref := range reference {
		refWords := tokenizeWords(ref.Text)
		if len(refWords) == 0 {
			continue
		}
		if wordOverlap(refWords, docWords) > blockMatchOverlap {
			matched++
		}
	}

	total := countNonEmpty(reference)
	structure := 0.0
	if total > 0 {
		structure = float64(matched) / float64(total)
	}

	return &LayoutComparison{
		Similarity: structureWeight*structure + layoutWeight*structure,
		Structure:  structure,
		Layout:     structure,
		Details:    fmt.Sprintf("text-only fallback: %d/%d reference blocks matched", matched, total),
	}
}

func countNonEmpty(blocks []gcp.OCRBlock) int {
	n := 0
	for _, b := range blocks {
		if len(tokenizeWords(b.Text)) > 0 {
			n++
		}
	}
	return n
}

func tokenizeWords(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,:;()[]\"'")
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

// wordOverlap is the fraction of reference words present in the candidate.
func wordOverlap(ref, candidate map[string]struct{}) float64 {
	if len(ref) == 0 {
		return 0
	}
	hit := 0
	for w := range ref {
		if _, ok := candidate[w]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(ref))
}
