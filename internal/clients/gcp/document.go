package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/pkg/ctxutil"
)

type Document interface {
	ProcessBytes(ctx context.Context, data []byte, mimeType string) (*OCRResult, error)
	Close() error
}

type documentService struct {
	log *logger.Logger

	docClient *documentai.DocumentProcessorClient

	projectID        string
	location         string
	processorID      string
	processorVersion string
}

func NewDocument(log *logger.Logger) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Document")

	ctx := context.Background()

	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	docOpts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(ctx, docOpts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog.Info("Document AI initialized", "endpoint", endpoint)

	return &documentService{
		log:              slog,
		docClient:        c,
		projectID:        strings.TrimSpace(os.Getenv("GCP_PROJECT_ID")),
		location:         location,
		processorID:      strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID")),
		processorVersion: strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_VERSION")),
	}, nil
}

func (s *documentService) Close() error {
	if s == nil {
		return nil
	}
	if s.docClient != nil {
		_ = s.docClient.Close()
	}
	return nil
}

func (s *documentService) ProcessBytes(ctx context.Context, data []byte, mimeType string) (*OCRResult, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if len(data) == 0 {
		return &OCRResult{Provider: "gcp_documentai", MimeType: mimeType, Text: ""}, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	name := s.processorName()

	r := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := s.docClient.ProcessDocument(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return &OCRResult{Provider: "gcp_documentai", MimeType: mimeType, Text: ""}, nil
	}

	doc := resp.Document
	conf := avgPageConfidence(doc.Pages)

	return &OCRResult{
		Provider:   "gcp_documentai",
		MimeType:   mimeType,
		Text:       collapseWhitespace(doc.Text),
		Confidence: conf,
	}, nil
}

func (s *documentService) processorName() string {
	if s.processorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			s.projectID, s.location, s.processorID, s.processorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		s.projectID, s.location, s.processorID)
}

func avgPageConfidence(pages []*documentaipb.Document_Page) float64 {
	if len(pages) == 0 {
		return 0
	}
	var sum float64
	n := 0
	for _, pg := range pages {
		if pg == nil || pg.Layout == nil {
			continue
		}
		if pg.Layout.Confidence > 0 {
			sum += float64(pg.Layout.Confidence)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
