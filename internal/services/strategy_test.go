package services

import (
	"regexp"
	"testing"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

func newSelector(t *testing.T) StrategySelector {
	t.Helper()
	log, _ := logger.New("development")
	sel, err := NewStrategySelector(log)
	if err != nil {
		t.Fatalf("load strategy table: %v", err)
	}
	return sel
}

func TestStrategyTableLoads(t *testing.T) {
	sel := newSelector(t)

	known := []string{
		"GST_REGISTRATION",
		"CERTIFICATE_OF_INCORPORATION",
		"EPF_REGISTRATION",
		"ESIC_REGISTRATION",
		"PF_ECR_CHALLAN",
		"POLLUTION_CONSENT_ORDER",
		"FIRE_SAFETY_NOC",
		"ISO_45001",
		"OEKO_TEX_CERTIFICATE",
		"GOTS_CERTIFICATE",
		"CHILD_LABOR_POLICY",
	}
	for _, name := range known {
		st := sel.ForDocumentType(name)
		if st.IsGeneric() {
			t.Fatalf("%s: expected a configured strategy", name)
		}
		if st.DocumentType != name {
			t.Fatalf("%s: wrong document type %q", name, st.DocumentType)
		}
	}
}

func TestStrategyGenericFallback(t *testing.T) {
	sel := newSelector(t)
	st := sel.ForDocumentType("SOMETHING_NEW")
	if !st.IsGeneric() {
		t.Fatal("unknown type must get the generic strategy")
	}
	if st.HasReferenceLayout() {
		t.Fatal("generic strategy must not have a reference layout")
	}
	// Generic strategy has no clauses, so everything passes the pre-check.
	if res := st.Precheck("anything at all"); !res.Passed {
		t.Fatalf("generic precheck must pass: %s", res.Reason)
	}
}

func TestStrategyLayoutConfiguration(t *testing.T) {
	sel := newSelector(t)

	if st := sel.ForDocumentType("GST_REGISTRATION"); !st.HasReferenceLayout() {
		t.Fatal("GST_REGISTRATION should have a canonical layout")
	}
	// Third-party certifications have no government-issued canonical form.
	for _, name := range []string{"ISO_45001", "OEKO_TEX_CERTIFICATE", "GOTS_CERTIFICATE", "CHILD_LABOR_POLICY"} {
		if st := sel.ForDocumentType(name); st.HasReferenceLayout() {
			t.Fatalf("%s should not have a canonical layout", name)
		}
	}
}

func TestPrecheckClauses(t *testing.T) {
	sel := newSelector(t)
	gst := sel.ForDocumentType("GST_REGISTRATION")

	goodText := "Registration Certificate under the Goods and Services Tax Act. " +
		"GSTIN: 27AAPFU0939F1ZV issued to the taxpayer."

	cases := []struct {
		name           string
		text           string
		wantPassed     bool
		wantMissingReq bool
		wantAnyOfMiss  bool
		wantNoPattern  bool
	}{
		{"all clauses satisfied", goodText, true, false, false, false},
		{
			"missing required keyword",
			"GSTIN: 27AAPFU0939F1ZV on a random letterhead",
			false, true, false, false,
		},
		{
			"missing anyOf markers",
			"Registration Certificate under the Goods and Services Tax Act with number 27AAPFU0939F1ZV",
			false, false, true, false,
		},
		{
			"no pattern match",
			"Registration Certificate under the Goods and Services Tax Act. GSTIN: not-a-number",
			false, false, false, true,
		},
		{
			"case insensitive keywords",
			"REGISTRATION CERTIFICATE, GOODS AND SERVICES TAX, GSTIN 27AAPFU0939F1ZV",
			true, false, false, false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := gst.Precheck(tc.text)
			if res.Passed != tc.wantPassed {
				t.Fatalf("passed: want=%v got=%v (%s)", tc.wantPassed, res.Passed, res.Reason)
			}
			if tc.wantMissingReq && len(res.MissingRequired) == 0 {
				t.Fatal("expected missing required keywords")
			}
			if res.MissingAnyOf != tc.wantAnyOfMiss {
				t.Fatalf("missingAnyOf: want=%v got=%v", tc.wantAnyOfMiss, res.MissingAnyOf)
			}
			if tc.wantNoPattern == res.PatternMatched {
				t.Fatalf("patternMatched: want=%v got=%v", !tc.wantNoPattern, res.PatternMatched)
			}
			if !tc.wantPassed && res.Reason == "" {
				t.Fatal("failed precheck must carry a reason")
			}
		})
	}
}

func TestExtractIdentifier(t *testing.T) {
	sel := newSelector(t)
	gst := sel.ForDocumentType("GST_REGISTRATION")

	if got := gst.ExtractIdentifier("certificate for 27AAPFU0939F1ZV dated today"); got != "27AAPFU0939F1ZV" {
		t.Fatalf("want GSTIN, got %q", got)
	}
	if got := gst.ExtractIdentifier("no identifier here"); got != "" {
		t.Fatalf("want empty, got %q", got)
	}
}

func TestPrecheckWithExplicitStrategy(t *testing.T) {
	st := &VerificationStrategy{
		DocumentType:     "TEST",
		RequiredKeywords: []string{"alpha", "beta"},
		AnyOfKeywords:    []string{"gamma", "delta"},
		Patterns:         []*regexp.Regexp{regexp.MustCompile(`\b\d{4}\b`)},
	}

	res := st.Precheck("alpha beta gamma 1234")
	if !res.Passed {
		t.Fatalf("want pass, got: %s", res.Reason)
	}

	res = st.Precheck("alpha gamma 1234")
	if res.Passed || len(res.MissingRequired) != 1 || res.MissingRequired[0] != "beta" {
		t.Fatalf("want beta missing, got %+v", res)
	}
}
