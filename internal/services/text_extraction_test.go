package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aksidharth04/SetuAI-sub001/internal/clients/gcp"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

var (
	pdfBytes  = []byte("%PDF-1.7 fake body")
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	webpBytes = []byte{'R', 'I', 'F', 'F', 0x00, 0x00, 0x00, 0x00, 'W', 'E', 'B', 'P'}
)

func TestSniffMimeType(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf", pdfBytes, "application/pdf"},
		{"png", pngBytes, "image/png"},
		{"jpeg", jpegBytes, "image/jpeg"},
		{"webp", webpBytes, "image/webp"},
		{"tiff little endian", []byte{'I', 'I', 0x2A, 0x00, 0x01}, "image/tiff"},
		{"tiff big endian", []byte{'M', 'M', 0x00, 0x2A, 0x01}, "image/tiff"},
		{"unknown", []byte("hello world"), "application/octet-stream"},
		{"empty", nil, "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sniffMimeType(tc.data); got != tc.want {
				t.Fatalf("want=%q got=%q", tc.want, got)
			}
		})
	}
}

func newExtractionService(files map[string][]byte, vision *fakeVision, docai *fakeDocAI) TextExtractionService {
	log, _ := logger.New("development")
	return NewTextExtractionService(log, &fakeFileStore{files: files}, vision, docai)
}

func TestExtractTextRoutesPDFToDocumentAI(t *testing.T) {
	docai := &fakeDocAI{result: &gcp.OCRResult{Provider: "documentai", Text: "challan text", Confidence: 0.97}}
	vision := &fakeVision{err: errors.New("vision must not be called for pdf")}
	svc := newExtractionService(map[string][]byte{"v/doc.pdf": pdfBytes}, vision, docai)

	res, err := svc.ExtractText(context.Background(), "v/doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "documentai" || res.MimeType != "application/pdf" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractTextRoutesImageToVision(t *testing.T) {
	vision := &fakeVision{result: &gcp.OCRResult{
		Provider:   "vision",
		Text:       "certificate text",
		Confidence: 0.91,
		Blocks:     []gcp.OCRBlock{{Text: "certificate text", CX: 0.5, CY: 0.5}},
	}}
	docai := &fakeDocAI{err: errors.New("docai must not be called for images")}
	svc := newExtractionService(map[string][]byte{"v/cert.png": pngBytes}, vision, docai)

	res, err := svc.ExtractText(context.Background(), "v/cert.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "vision" || len(res.Blocks) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractTextFailures(t *testing.T) {
	okVision := &fakeVision{result: &gcp.OCRResult{Provider: "vision", Text: "text"}}
	emptyVision := &fakeVision{result: &gcp.OCRResult{Provider: "vision", Text: "   "}}
	failVision := &fakeVision{err: errors.New("quota exceeded")}

	cases := []struct {
		name   string
		files  map[string][]byte
		vision *fakeVision
		path   string
	}{
		{"missing file", map[string][]byte{}, okVision, "v/missing.png"},
		{"empty file", map[string][]byte{"v/empty.png": {}}, okVision, "v/empty.png"},
		{"unsupported type", map[string][]byte{"v/notes.txt": []byte("plain text")}, okVision, "v/notes.txt"},
		{"provider failure", map[string][]byte{"v/cert.png": pngBytes}, failVision, "v/cert.png"},
		{"empty OCR output", map[string][]byte{"v/cert.png": pngBytes}, emptyVision, "v/cert.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newExtractionService(tc.files, tc.vision, &fakeDocAI{})
			_, err := svc.ExtractText(context.Background(), tc.path)
			var exErr *ExtractionError
			if !errors.As(err, &exErr) {
				t.Fatalf("want ExtractionError, got %T (%v)", err, err)
			}
			if exErr.Path != tc.path {
				t.Fatalf("path: want=%q got=%q", tc.path, exErr.Path)
			}
		})
	}
}
