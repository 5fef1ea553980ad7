package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

func validAIResponse() string {
	return "Some preamble the model added.\n" +
		"JSON_START\n" +
		`{"verification": {"isValid": true, "reason": "GSTIN certificate with all mandatory fields"}, "extractedFields": {"gstin": "27AAPFU0939F1ZV"}, "confidence": 0.92}` + "\n" +
		"JSON_END\n"
}

func TestParseAIResponseValid(t *testing.T) {
	got := parseAIResponse(validAIResponse())
	if !got.IsValid {
		t.Fatalf("want valid, got rejection: %s", got.Reason)
	}
	if got.Confidence != 0.92 {
		t.Fatalf("confidence: want=0.92 got=%v", got.Confidence)
	}
	if got.ExtractedFields["gstin"] != "27AAPFU0939F1ZV" {
		t.Fatalf("extractedFields missing gstin: %v", got.ExtractedFields)
	}
	if got.SchemaViolation != "" {
		t.Fatalf("unexpected schema violation: %s", got.SchemaViolation)
	}
}

func TestParseAIResponseValidRejection(t *testing.T) {
	raw := "JSON_START\n" +
		`{"verification": {"isValid": false, "reason": "this is an EPF challan, not a GST certificate"}, "extractedFields": {}, "confidence": 0.85}` + "\n" +
		"JSON_END"
	got := parseAIResponse(raw)
	if got.IsValid {
		t.Fatal("want invalid")
	}
	if got.SchemaViolation != "" {
		t.Fatalf("well-formed rejection should not be a schema violation: %s", got.SchemaViolation)
	}
	if got.Confidence != 0.85 {
		t.Fatalf("confidence: want=0.85 got=%v", got.Confidence)
	}
}

// Every malformed response becomes an invalid result with confidence 0;
// none of them may surface as an error or be trusted.
func TestParseAIResponseSchemaGate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no start marker", `{"verification": {"isValid": true, "reason": "x"}, "extractedFields": {}, "confidence": 1} JSON_END`},
		{"no end marker", `JSON_START {"verification": {"isValid": true, "reason": "x"}, "extractedFields": {}, "confidence": 1}`},
		{"truncated json", "JSON_START\n" + `{"verification": {"isValid": true,` + "\nJSON_END"},
		{"missing verification", "JSON_START\n" + `{"extractedFields": {}, "confidence": 1}` + "\nJSON_END"},
		{"missing isValid", "JSON_START\n" + `{"verification": {"reason": "x"}, "extractedFields": {}, "confidence": 1}` + "\nJSON_END"},
		{"empty reason", "JSON_START\n" + `{"verification": {"isValid": true, "reason": "  "}, "extractedFields": {}, "confidence": 1}` + "\nJSON_END"},
		{"missing extractedFields", "JSON_START\n" + `{"verification": {"isValid": true, "reason": "x"}, "confidence": 1}` + "\nJSON_END"},
		{"extractedFields not object", "JSON_START\n" + `{"verification": {"isValid": true, "reason": "x"}, "extractedFields": [1], "confidence": 1}` + "\nJSON_END"},
		{"missing confidence", "JSON_START\n" + `{"verification": {"isValid": true, "reason": "x"}, "extractedFields": {}}` + "\nJSON_END"},
		{"string confidence", "JSON_START\n" + `{"verification": {"isValid": true, "reason": "x"}, "extractedFields": {}, "confidence": "high"}` + "\nJSON_END"},
		{"confidence above one", "JSON_START\n" + `{"verification": {"isValid": true, "reason": "x"}, "extractedFields": {}, "confidence": 1.5}` + "\nJSON_END"},
		{"negative confidence", "JSON_START\n" + `{"verification": {"isValid": true, "reason": "x"}, "extractedFields": {}, "confidence": -0.1}` + "\nJSON_END"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseAIResponse(tc.raw)
			if got.IsValid {
				t.Fatal("schema violation must reject")
			}
			if got.Confidence != 0 {
				t.Fatalf("schema violation must zero confidence, got %v", got.Confidence)
			}
			if got.SchemaViolation == "" {
				t.Fatal("violation name missing")
			}
			if got.Reason == "" {
				t.Fatal("reason missing")
			}
		})
	}
}

type fakeAIClient struct {
	response string
	err      error
	lastUser string
}

func (f *fakeAIClient) Generate(ctx context.Context, system, user string) (string, error) {
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractDocumentInfoTransportError(t *testing.T) {
	log, _ := logger.New("development")
	boom := errors.New("connection reset")
	svc := NewContentVerificationService(log, &fakeAIClient{err: boom})

	_, err := svc.ExtractDocumentInfo(context.Background(), "text", &VerificationStrategy{DocumentType: "GST_REGISTRATION"})
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("want TransportError, got %T (%v)", err, err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("cause not wrapped")
	}
}

func TestExtractDocumentInfoTruncatesLongText(t *testing.T) {
	log, _ := logger.New("development")
	ai := &fakeAIClient{response: validAIResponse()}
	svc := NewContentVerificationService(log, ai)

	long := strings.Repeat("a", maxPromptTextChars+500)
	res, err := svc.ExtractDocumentInfo(context.Background(), long, &VerificationStrategy{DocumentType: "GST_REGISTRATION"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("want valid, got: %s", res.Reason)
	}
	if len(ai.lastUser) > maxPromptTextChars+2000 {
		t.Fatalf("prompt not bounded: %d chars", len(ai.lastUser))
	}
}

func TestExtractDocumentInfoTruncatesOnRuneBoundary(t *testing.T) {
	log, _ := logger.New("development")
	ai := &fakeAIClient{response: validAIResponse()}
	svc := NewContentVerificationService(log, ai)

	// multi-byte runes straddling the cut point must not leave a broken tail
	long := strings.Repeat("प्रमाणपत्र ", maxPromptTextChars)
	if _, err := svc.ExtractDocumentInfo(context.Background(), long, &VerificationStrategy{DocumentType: "GST_REGISTRATION"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(ai.lastUser) {
		t.Fatal("truncated prompt contains an invalid UTF-8 sequence")
	}
}
