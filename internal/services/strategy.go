package services

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

//go:embed strategies.yaml
var strategiesYAML []byte

// VerificationStrategy is the per-document-type policy: which checks run
// before the registry call and with what thresholds.
type VerificationStrategy struct {
	DocumentType     string
	RegistryAPI      string
	IdentifierField  string
	LayoutThreshold  *float64
	ReferenceImage   string
	RequiredKeywords []string
	AnyOfKeywords    []string
	Patterns         []*regexp.Regexp
	DisallowedTypes  []string
	ExtractFields    []string

	generic bool
}

// HasReferenceLayout reports whether a canonical reference image exists for
// this document type. Independently issued certifications do not have one.
func (s *VerificationStrategy) HasReferenceLayout() bool {
	return s.LayoutThreshold != nil && s.ReferenceImage != ""
}

// IsGeneric reports whether this is the fallback strategy for unknown types
// (AI schema check only).
func (s *VerificationStrategy) IsGeneric() bool { return s.generic }

// PrecheckResult is the outcome of the keyword/regex pre-check that runs
// before the AI call.
type PrecheckResult struct {
	Passed          bool
	MissingRequired []string
	MissingAnyOf    bool
	PatternMatched  bool
	Reason          string
}

// Precheck applies the keyword policy: ALL required keywords present, at
// least one anyOf keyword present, and at least one pattern matching when
// patterns are declared. Any failing clause rejects immediately.
func (s *VerificationStrategy) Precheck(rawText string) PrecheckResult {
	if len(s.RequiredKeywords) == 0 && len(s.AnyOfKeywords) == 0 && len(s.Patterns) == 0 {
		return PrecheckResult{Passed: true, PatternMatched: true}
	}

	lower := strings.ToLower(rawText)
	res := PrecheckResult{Passed: true, PatternMatched: true}

	for _, kw := range s.RequiredKeywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			res.MissingRequired = append(res.MissingRequired, kw)
		}
	}
	if len(res.MissingRequired) > 0 {
		res.Passed = false
		res.Reason = fmt.Sprintf("missing required keywords: %s", strings.Join(res.MissingRequired, ", "))
		return res
	}

	if len(s.AnyOfKeywords) > 0 {
		found := false
		for _, kw := range s.AnyOfKeywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			res.Passed = false
			res.MissingAnyOf = true
			res.Reason = fmt.Sprintf("none of the expected markers found: %s", strings.Join(s.AnyOfKeywords, ", "))
			return res
		}
	}

	if len(s.Patterns) > 0 {
		matched := false
		for _, re := range s.Patterns {
			if re.MatchString(rawText) {
				matched = true
				break
			}
		}
		if !matched {
			res.Passed = false
			res.PatternMatched = false
			res.Reason = "no registration-number pattern matched the document text"
			return res
		}
	}

	return res
}

// ExtractIdentifier pulls the first registration-number match out of the raw
// text, used as fallback when the AI extraction missed the identifier field.
func (s *VerificationStrategy) ExtractIdentifier(rawText string) string {
	for _, re := range s.Patterns {
		if m := re.FindString(rawText); m != "" {
			return m
		}
	}
	return ""
}

// StrategySelector maps document-type names to their verification policy.
type StrategySelector interface {
	ForDocumentType(name string) *VerificationStrategy
}

type strategySelector struct {
	log        *logger.Logger
	strategies map[string]*VerificationStrategy
}

type strategyFile struct {
	Strategies map[string]strategyEntry `yaml:"strategies"`
}

type strategyEntry struct {
	RegistryAPI      string   `yaml:"registry_api"`
	IdentifierField  string   `yaml:"identifier_field"`
	LayoutThreshold  *float64 `yaml:"layout_threshold"`
	ReferenceImage   string   `yaml:"reference_image"`
	RequiredKeywords []string `yaml:"required_keywords"`
	AnyOfKeywords    []string `yaml:"any_of_keywords"`
	Patterns         []string `yaml:"patterns"`
	DisallowedTypes  []string `yaml:"disallowed_types"`
	ExtractFields    []string `yaml:"extract_fields"`
}

func NewStrategySelector(baseLog *logger.Logger) (StrategySelector, error) {
	var file strategyFile
	if err := yaml.Unmarshal(strategiesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse strategy table: %w", err)
	}

	out := make(map[string]*VerificationStrategy, len(file.Strategies))
	for name, e := range file.Strategies {
		st := &VerificationStrategy{
			DocumentType:     name,
			RegistryAPI:      e.RegistryAPI,
			IdentifierField:  e.IdentifierField,
			LayoutThreshold:  e.LayoutThreshold,
			ReferenceImage:   e.ReferenceImage,
			RequiredKeywords: e.RequiredKeywords,
			AnyOfKeywords:    e.AnyOfKeywords,
			DisallowedTypes:  e.DisallowedTypes,
			ExtractFields:    e.ExtractFields,
		}
		for _, p := range e.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("strategy %s: bad pattern %q: %w", name, p, err)
			}
			st.Patterns = append(st.Patterns, re)
		}
		out[name] = st
	}

	return &strategySelector{
		log:        baseLog.With("service", "StrategySelector"),
		strategies: out,
	}, nil
}

func (s *strategySelector) ForDocumentType(name string) *VerificationStrategy {
	if st, ok := s.strategies[name]; ok {
		return st
	}
	s.log.Debug("No strategy for document type, using generic", "document_type", name)
	return &VerificationStrategy{DocumentType: name, generic: true}
}
