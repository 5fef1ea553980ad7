package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aksidharth04/SetuAI-sub001/internal/clients/openai"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

const (
	jsonStartMarker = "JSON_START"
	jsonEndMarker   = "JSON_END"

	// Keeps prompts bounded for very long OCR dumps.
	maxPromptTextChars = 12000
)

// VerificationResult is the normalized outcome of the AI content check.
// A malformed AI response is reported here as a rejection with
// SchemaViolation set, never as an error.
type VerificationResult struct {
	IsValid         bool           `json:"isValid"`
	Reason          string         `json:"reason"`
	Confidence      float64        `json:"confidence"`
	ExtractedFields map[string]any `json:"extractedFields"`
	SchemaViolation string         `json:"schemaViolation,omitempty"`
}

// ContentVerificationService validates raw document text against the
// declared document type using the generative-AI capability. It only
// returns an error for transport-level failures; hallucinated or truncated
// AI output becomes an invalid result with confidence 0.
type ContentVerificationService interface {
	ExtractDocumentInfo(ctx context.Context, text string, strategy *VerificationStrategy) (*VerificationResult, error)
}

type contentVerificationService struct {
	log *logger.Logger
	ai  openai.Client
}

func NewContentVerificationService(baseLog *logger.Logger, ai openai.Client) ContentVerificationService {
	return &contentVerificationService{
		log: baseLog.With("service", "ContentVerificationService"),
		ai:  ai,
	}
}

func (s *contentVerificationService) ExtractDocumentInfo(ctx context.Context, text string, strategy *VerificationStrategy) (*VerificationResult, error) {
	system := buildSystemPrompt()
	user := buildUserPrompt(text, strategy)

	raw, err := s.ai.Generate(ctx, system, user)
	if err != nil {
		return nil, &TransportError{Op: "content verification", Err: err}
	}

	result := parseAIResponse(raw)
	if result.SchemaViolation != "" {
		s.log.Warn("AI response failed schema gate",
			"document_type", strategy.DocumentType,
			"violation", result.SchemaViolation,
		)
	}
	return result, nil
}

func buildSystemPrompt() string {
	return strings.Join([]string{
		"You are a compliance document verifier for garment-industry vendor onboarding.",
		"You are given OCR text from an uploaded document and the document type the vendor claims it is.",
		"Judge strictly: a different document of the same family (e.g. a provisional instead of a final certificate) must be rejected.",
		"Respond with a single fenced block between the markers " + jsonStartMarker + " and " + jsonEndMarker + " and nothing else inside the markers except the JSON object.",
	}, " ")
}

func buildUserPrompt(text string, strategy *VerificationStrategy) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Document type claimed: %s\n\n", strategy.DocumentType)

	if len(strategy.RequiredKeywords) > 0 {
		fmt.Fprintf(&b, "The document MUST contain all of: %s\n", strings.Join(strategy.RequiredKeywords, "; "))
	}
	if len(strategy.AnyOfKeywords) > 0 {
		fmt.Fprintf(&b, "The document MUST contain at least one of: %s\n", strings.Join(strategy.AnyOfKeywords, "; "))
	}
	if len(strategy.DisallowedTypes) > 0 {
		fmt.Fprintf(&b, "REJECT if the document is actually one of these near-duplicates: %s\n", strings.Join(strategy.DisallowedTypes, "; "))
	}

	fields := strategy.ExtractFields
	if len(fields) == 0 {
		fields = []string{"document_title", "issuing_authority", "issue_date"}
	}
	fmt.Fprintf(&b, "\nExtract these fields into extractedFields (use null for fields not present): %s\n", strings.Join(fields, ", "))
	if strategy.IdentifierField != "" {
		fmt.Fprintf(&b, "The field %q is the registration identifier and matters most.\n", strategy.IdentifierField)
	}

	b.WriteString("\nRespond with exactly this structure:\n")
	b.WriteString(jsonStartMarker + "\n")
	b.WriteString(`{"verification": {"isValid": <bool>, "reason": "<non-empty explanation>"}, "extractedFields": {...}, "confidence": <number 0..1>}` + "\n")
	b.WriteString(jsonEndMarker + "\n")

	doc := text
	if len(doc) > maxPromptTextChars {
		cut := maxPromptTextChars
		// back off over UTF-8 continuation bytes so the cut lands on a rune start
		for cut > 0 && !utf8.RuneStart(doc[cut]) {
			cut--
		}
		doc = doc[:cut]
	}
	fmt.Fprintf(&b, "\nDocument text:\n%s\n", doc)

	return b.String()
}

// parseAIResponse enforces the response contract. Any violation yields an
// invalid result with confidence 0 naming the failed check; downstream
// scoring must never trust a response that failed this gate.
func parseAIResponse(raw string) *VerificationResult {
	reject := func(which string) *VerificationResult {
		return &VerificationResult{
			IsValid:         false,
			Confidence:      0,
			Reason:          fmt.Sprintf("AI response rejected: %s", which),
			ExtractedFields: map[string]any{},
			SchemaViolation: which,
		}
	}

	start := strings.Index(raw, jsonStartMarker)
	if start < 0 {
		return reject("missing " + jsonStartMarker + " marker")
	}
	rest := raw[start+len(jsonStartMarker):]
	end := strings.Index(rest, jsonEndMarker)
	if end < 0 {
		return reject("missing " + jsonEndMarker + " marker")
	}
	block := strings.TrimSpace(rest[:end])

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &top); err != nil {
		return reject("malformed JSON block")
	}

	verRaw, ok := top["verification"]
	if !ok {
		return reject("missing verification object")
	}
	var ver struct {
		IsValid *bool  `json:"isValid"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(verRaw, &ver); err != nil {
		return reject("malformed verification object")
	}
	if ver.IsValid == nil {
		return reject("missing verification.isValid")
	}
	if strings.TrimSpace(ver.Reason) == "" {
		return reject("empty verification.reason")
	}

	fieldsRaw, ok := top["extractedFields"]
	if !ok {
		return reject("missing extractedFields")
	}
	var fields map[string]any
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return reject("malformed extractedFields")
	}
	if fields == nil {
		fields = map[string]any{}
	}

	confRaw, ok := top["confidence"]
	if !ok {
		return reject("missing confidence")
	}
	var conf float64
	if err := json.Unmarshal(confRaw, &conf); err != nil {
		return reject("non-numeric confidence")
	}
	if conf < 0 || conf > 1 {
		return reject("confidence out of range")
	}

	return &VerificationResult{
		IsValid:         *ver.IsValid,
		Reason:          ver.Reason,
		Confidence:      conf,
		ExtractedFields: fields,
	}
}
