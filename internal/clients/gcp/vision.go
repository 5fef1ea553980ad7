package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/pkg/ctxutil"
)

type Vision interface {
	DetectDocumentText(ctx context.Context, img []byte, mimeType string) (*OCRResult, error)
	Close() error
}

// OCRResult is the provider-neutral OCR payload consumed by the extraction
// gateway and the layout comparator.
type OCRResult struct {
	Provider   string     `json:"provider"`
	MimeType   string     `json:"mime_type,omitempty"`
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
	Blocks     []OCRBlock `json:"blocks,omitempty"`
}

// OCRBlock is one detected text block with its normalized bounding-box
// center. CX/CY are in [0,1] relative to the page.
type OCRBlock struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	CX         float64 `json:"cx"`
	CY         float64 `json:"cy"`
}

type visionService struct {
	log *logger.Logger

	visionClient *vision.ImageAnnotatorClient

	timeout time.Duration
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Vision")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	vClient, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{
		log:          slog,
		visionClient: vClient,
		timeout:      60 * time.Second,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil {
		return nil
	}
	if s.visionClient != nil {
		_ = s.visionClient.Close()
	}
	return nil
}

func (s *visionService) DetectDocumentText(ctx context.Context, img []byte, mimeType string) (*OCRResult, error) {
	if len(img) == 0 {
		return &OCRResult{Provider: "gcp_vision", MimeType: mimeType, Text: ""}, nil
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}

	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := s.visionClient.BatchAnnotateImages(ctx, br)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &OCRResult{Provider: "gcp_vision", MimeType: mimeType, Text: ""}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		return &OCRResult{Provider: "gcp_vision", MimeType: mimeType, Text: ""}, nil
	}

	primary := collapseWhitespace(fta.Text)

	var blocks []OCRBlock
	var confSum float64
	confN := 0

	for _, pg := range fta.Pages {
		if pg == nil {
			continue
		}
		w := float64(pg.Width)
		h := float64(pg.Height)
		for _, b := range pg.Blocks {
			if b == nil {
				continue
			}
			txt := blockText(b)
			if strings.TrimSpace(txt) == "" {
				continue
			}
			cx, cy := blockCenter(b.BoundingBox, w, h)
			blocks = append(blocks, OCRBlock{
				Text:       txt,
				Confidence: float64(b.Confidence),
				CX:         cx,
				CY:         cy,
			})
			if b.Confidence > 0 {
				confSum += float64(b.Confidence)
				confN++
			}
		}
	}

	conf := 0.0
	if confN > 0 {
		conf = confSum / float64(confN)
	}

	return &OCRResult{
		Provider:   "gcp_vision",
		MimeType:   mimeType,
		Text:       primary,
		Confidence: conf,
		Blocks:     blocks,
	}, nil
}

// blockText reassembles the block's words from its paragraph/word/symbol
// hierarchy. FullTextAnnotation only exposes text at the symbol level.
func blockText(b *visionpb.Block) string {
	var sb strings.Builder
	for _, para := range b.Paragraphs {
		if para == nil {
			continue
		}
		for _, word := range para.Words {
			if word == nil {
				continue
			}
			for _, sym := range word.Symbols {
				if sym == nil {
					continue
				}
				sb.WriteString(sym.Text)
			}
			sb.WriteString(" ")
		}
	}
	return collapseWhitespace(sb.String())
}

func blockCenter(bp *visionpb.BoundingPoly, pageW, pageH float64) (float64, float64) {
	if bp == nil {
		return 0, 0
	}
	if len(bp.NormalizedVertices) > 0 {
		var sx, sy float64
		n := 0
		for _, v := range bp.NormalizedVertices {
			if v == nil {
				continue
			}
			sx += float64(v.X)
			sy += float64(v.Y)
			n++
		}
		if n == 0 {
			return 0, 0
		}
		return sx / float64(n), sy / float64(n)
	}
	if len(bp.Vertices) > 0 && pageW > 0 && pageH > 0 {
		var sx, sy float64
		n := 0
		for _, v := range bp.Vertices {
			if v == nil {
				continue
			}
			sx += float64(v.X)
			sy += float64(v.Y)
			n++
		}
		if n == 0 {
			return 0, 0
		}
		return sx / float64(n) / pageW, sy / float64(n) / pageH
	}
	return 0, 0
}
