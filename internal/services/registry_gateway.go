package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

// RegistryResult is the answer from a government/certification-body API for
// one identifier.
type RegistryResult struct {
	IsValid       bool           `json:"isValid"`
	Status        string         `json:"status"`
	Details       map[string]any `json:"details,omitempty"`
	TransactionID string         `json:"transactionId"`
	Cached        bool           `json:"cached,omitempty"`
}

// RegistryConfig is the externally supplied tuning surface for outbound
// registry calls.
type RegistryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	StubMode    bool
}

func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		CacheTTL:    24 * time.Hour,
		Timeout:     15 * time.Second,
		StubMode:    true,
	}
}

// RegistryVerificationService confirms an extracted registration identifier
// against its authoritative source. Responses are cached per
// (apiName, identifier); failures are retried with exponential backoff and
// never cached.
type RegistryVerificationService interface {
	Verify(ctx context.Context, apiName string, identifier string) (*RegistryResult, error)
}

type registryVerificationService struct {
	log   *logger.Logger
	cfg   RegistryConfig
	cache RegistryCache

	httpClient *http.Client
	endpoints  map[string]string

	usageMu sync.Mutex
	usage   map[string]int
}

// registryEndpoints maps the API name declared in the compliance catalog to
// its verification endpoint. Real integrations are a named gap; stub mode
// answers deterministically without calling out.
var registryEndpoints = map[string]string{
	"gstin":         "https://registry.gst.gov.example/v1/taxpayers",
	"cin":           "https://registry.mca.gov.example/v1/companies",
	"epf":           "https://registry.epfindia.gov.example/v1/establishments",
	"esic":          "https://registry.esic.gov.example/v1/employers",
	"trrn":          "https://registry.epfindia.gov.example/v1/challans",
	"consent_order": "https://registry.pcb.gov.example/v1/consents",
	"noc":           "https://registry.fire.gov.example/v1/nocs",
	"iso":           "https://registry.iaf.example/v1/certificates",
	"oeko_tex":      "https://registry.oeko-tex.example/v1/certificates",
	"gots":          "https://registry.gots.example/v1/certificates",
}

func NewRegistryVerificationService(baseLog *logger.Logger, cfg RegistryConfig, cache RegistryCache) RegistryVerificationService {
	return newRegistryVerificationService(baseLog, cfg, cache, registryEndpoints)
}

func newRegistryVerificationService(baseLog *logger.Logger, cfg RegistryConfig, cache RegistryCache, endpoints map[string]string) RegistryVerificationService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 1 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &registryVerificationService{
		log:        baseLog.With("service", "RegistryVerificationService"),
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoints:  endpoints,
		usage:      map[string]int{},
	}
}

func (s *registryVerificationService) Verify(ctx context.Context, apiName string, identifier string) (*RegistryResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &ValidationError{Field: "identifier", Msg: "identifier is required for registry verification"}
	}
	apiName = strings.TrimSpace(strings.ToLower(apiName))
	if _, ok := s.endpoints[apiName]; !ok && !s.cfg.StubMode {
		return nil, &ValidationError{Field: "apiName", Msg: fmt.Sprintf("unknown registry API %q", apiName)}
	}

	cacheKey := apiName + ":" + identifier
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey); ok {
			var cached RegistryResult
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				cached.Cached = true
				s.log.Debug("Registry cache hit", "api", apiName)
				return &cached, nil
			}
		}
	}

	s.countUsage(apiName)

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, &TransportError{Op: "registry " + apiName, Err: ctx.Err()}
		}

		result, err := s.callOnce(ctx, apiName, identifier)
		if err == nil {
			if s.cache != nil && s.cfg.CacheTTL > 0 {
				if raw, mErr := json.Marshal(result); mErr == nil {
					s.cache.Set(ctx, cacheKey, string(raw), s.cfg.CacheTTL)
				}
			}
			return result, nil
		}
		lastErr = err

		if attempt < s.cfg.MaxAttempts {
			delay := s.cfg.BaseDelay * (1 << (attempt - 1))
			s.log.Warn("Registry call failed, retrying",
				"api", apiName,
				"attempt", attempt,
				"max_attempts", s.cfg.MaxAttempts,
				"delay", delay.String(),
				"error", err,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &TransportError{Op: "registry " + apiName, Err: ctx.Err()}
			}
		}
	}

	return nil, &TransportError{Op: "registry " + apiName, Err: lastErr}
}

func (s *registryVerificationService) callOnce(ctx context.Context, apiName, identifier string) (*RegistryResult, error) {
	if s.cfg.StubMode {
		return stubResult(apiName, identifier), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(s.endpoints[apiName], "/"), url.PathEscape(identifier))
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registry %s http %d: %s", apiName, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var body struct {
		Valid         bool           `json:"valid"`
		Status        string         `json:"status"`
		Details       map[string]any `json:"details"`
		TransactionID string         `json:"transactionId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("registry %s decode: %w", apiName, err)
	}

	return &RegistryResult{
		IsValid:       body.Valid,
		Status:        body.Status,
		Details:       body.Details,
		TransactionID: body.TransactionID,
	}, nil
}

// stubResult is a deterministic success payload so the pipeline can run end
// to end before the real government integrations land.
func stubResult(apiName, identifier string) *RegistryResult {
	h := sha256.Sum256([]byte(apiName + ":" + identifier))
	return &RegistryResult{
		IsValid: true,
		Status:  "ACTIVE",
		Details: map[string]any{
			"source":     "stub",
			"identifier": identifier,
		},
		TransactionID: "stub-" + hex.EncodeToString(h[:6]),
	}
}

func (s *registryVerificationService) countUsage(apiName string) {
	key := apiName + ":" + time.Now().Format("2006-01-02")
	s.usageMu.Lock()
	s.usage[key]++
	n := s.usage[key]
	s.usageMu.Unlock()
	s.log.Debug("Registry API usage", "api", apiName, "calls_today", n)
}
