package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aksidharth04/SetuAI-sub001/internal/clients/gcp"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

// ExtractionResult is the raw-text payload handed to content verification,
// plus the block geometry the layout comparator consumes for images.
type ExtractionResult struct {
	Text       string         `json:"text"`
	MimeType   string         `json:"mime_type"`
	Provider   string         `json:"provider"`
	Confidence float64        `json:"confidence"`
	Blocks     []gcp.OCRBlock `json:"blocks,omitempty"`
}

// TextExtractionService converts a stored file into raw text. MIME type is
// detected from the file signature, never from the extension. Failures are
// ExtractionError; there is no retry at this layer.
type TextExtractionService interface {
	ExtractText(ctx context.Context, filePath string) (*ExtractionResult, error)
}

type textExtractionService struct {
	log    *logger.Logger
	files  FileStore
	vision gcp.Vision
	docai  gcp.Document
}

func NewTextExtractionService(baseLog *logger.Logger, files FileStore, vision gcp.Vision, docai gcp.Document) TextExtractionService {
	return &textExtractionService{
		log:    baseLog.With("service", "TextExtractionService"),
		files:  files,
		vision: vision,
		docai:  docai,
	}
}

func (s *textExtractionService) ExtractText(ctx context.Context, filePath string) (*ExtractionResult, error) {
	data, err := s.files.Read(ctx, filePath)
	if err != nil {
		return nil, &ExtractionError{Path: filePath, Err: fmt.Errorf("read file: %w", err)}
	}
	if len(data) == 0 {
		return nil, &ExtractionError{Path: filePath, Err: fmt.Errorf("empty file")}
	}

	mimeType := sniffMimeType(data)

	var result *gcp.OCRResult
	switch {
	case mimeType == "application/pdf":
		result, err = s.docai.ProcessBytes(ctx, data, mimeType)
	case strings.HasPrefix(mimeType, "image/"):
		result, err = s.vision.DetectDocumentText(ctx, data, mimeType)
	default:
		return nil, &ExtractionError{Path: filePath, Err: fmt.Errorf("unsupported file type head=%s", firstBytesHex(data, 8))}
	}
	if err != nil {
		return nil, &ExtractionError{Path: filePath, Err: err}
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, &ExtractionError{Path: filePath, Err: fmt.Errorf("OCR returned no text (provider=%s)", result.Provider)}
	}

	s.log.Debug("Text extracted",
		"path", filePath,
		"mime_type", mimeType,
		"provider", result.Provider,
		"text_len", len(result.Text),
		"blocks", len(result.Blocks),
	)

	return &ExtractionResult{
		Text:       result.Text,
		MimeType:   mimeType,
		Provider:   result.Provider,
		Confidence: result.Confidence,
		Blocks:     result.Blocks,
	}, nil
}

// ------------------------
// Sniff helpers
// ------------------------

func sniffMimeType(b []byte) string {
	switch {
	case isPDF(b):
		return "application/pdf"
	case isPNG(b):
		return "image/png"
	case isJPEG(b):
		return "image/jpeg"
	case isTIFF(b):
		return "image/tiff"
	case isWEBP(b):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isPNG(b []byte) bool {
	return len(b) >= 8 && b[0] == 0x89 && b[1] == 'P' && b[2] == 'N' && b[3] == 'G'
}

func isJPEG(b []byte) bool {
	return len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF
}

func isTIFF(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	return (b[0] == 'I' && b[1] == 'I' && b[2] == 0x2A && b[3] == 0x00) ||
		(b[0] == 'M' && b[1] == 'M' && b[2] == 0x00 && b[3] == 0x2A)
}

func isWEBP(b []byte) bool {
	return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP"
}

func firstBytesHex(b []byte, n int) string {
	if len(b) < n {
		n = len(b)
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
	}
	return string(out)
}
