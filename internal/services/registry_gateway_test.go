package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

func testRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Millisecond,
		CacheTTL:    24 * time.Hour,
		Timeout:     2 * time.Second,
		StubMode:    false,
	}
}

func TestRegistryVerifyEmptyIdentifier(t *testing.T) {
	log, _ := logger.New("development")
	cache := NewMemoryCache()
	svc := NewRegistryVerificationService(log, testRegistryConfig(), cache)

	for _, id := range []string{"", "   "} {
		_, err := svc.Verify(context.Background(), "gstin", id)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("identifier %q: want ValidationError, got %T (%v)", id, err, err)
		}
	}
}

func TestRegistryVerifyStubMode(t *testing.T) {
	log, _ := logger.New("development")
	cfg := testRegistryConfig()
	cfg.StubMode = true
	svc := NewRegistryVerificationService(log, cfg, NewMemoryCache())

	first, err := svc.Verify(context.Background(), "gstin", "27AAPFU0939F1ZV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.IsValid || first.Status != "ACTIVE" {
		t.Fatalf("stub must report active: %+v", first)
	}
	if first.TransactionID == "" || first.Cached {
		t.Fatalf("first call: %+v", first)
	}

	// Same identifier is answered from the cache with the same transaction.
	second, err := svc.Verify(context.Background(), "gstin", "27AAPFU0939F1ZV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second call should be a cache hit")
	}
	if second.TransactionID != first.TransactionID {
		t.Fatalf("transaction id changed across cache hit: %q vs %q", first.TransactionID, second.TransactionID)
	}
}

func TestRegistryVerifyRetriesThenSucceeds(t *testing.T) {
	log, _ := logger.New("development")

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid": true, "status": "ACTIVE", "transactionId": "txn-1"}`))
	}))
	defer srv.Close()

	svc := newRegistryVerificationService(log, testRegistryConfig(), NewMemoryCache(), map[string]string{"gstin": srv.URL})

	res, err := svc.Verify(context.Background(), "gstin", "27AAPFU0939F1ZV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsValid || res.TransactionID != "txn-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls: want=3 got=%d", got)
	}
}

func TestRegistryVerifyExhaustionNotCached(t *testing.T) {
	log, _ := logger.New("development")

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cache := NewMemoryCache()
	svc := newRegistryVerificationService(log, testRegistryConfig(), cache, map[string]string{"gstin": srv.URL})

	_, err := svc.Verify(context.Background(), "gstin", "27AAPFU0939F1ZV")
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("want TransportError, got %T (%v)", err, err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls: want=3 got=%d", got)
	}
	if _, ok := cache.Get(context.Background(), "gstin:27AAPFU0939F1ZV"); ok {
		t.Fatal("failures must not be cached")
	}

	// A later call tries the registry again instead of replaying the failure.
	_, _ = svc.Verify(context.Background(), "gstin", "27AAPFU0939F1ZV")
	if got := atomic.LoadInt32(&calls); got != 6 {
		t.Fatalf("calls after second verify: want=6 got=%d", got)
	}
}

func TestRegistryVerifyNegativeResultCached(t *testing.T) {
	log, _ := logger.New("development")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid": false, "status": "CANCELLED", "transactionId": "txn-2"}`))
	}))
	defer srv.Close()

	cache := NewMemoryCache()
	svc := newRegistryVerificationService(log, testRegistryConfig(), cache, map[string]string{"gstin": srv.URL})

	res, err := svc.Verify(context.Background(), "gstin", "27AAPFU0939F1ZV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsValid {
		t.Fatal("want definitive negative result")
	}
	// Definitive answers are cached regardless of validity.
	if _, ok := cache.Get(context.Background(), "gstin:27AAPFU0939F1ZV"); !ok {
		t.Fatal("negative result should be cached")
	}
}

func TestRegistryVerifyUnknownAPI(t *testing.T) {
	log, _ := logger.New("development")
	svc := NewRegistryVerificationService(log, testRegistryConfig(), NewMemoryCache())

	_, err := svc.Verify(context.Background(), "aadhaar", "1234")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError, got %T (%v)", err, err)
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set(context.Background(), "k", "v", time.Hour)
	if got, ok := cache.Get(context.Background(), "k"); !ok || got != "v" {
		t.Fatalf("fresh entry: ok=%v got=%q", ok, got)
	}

	now = now.Add(time.Hour + time.Second)
	if _, ok := cache.Get(context.Background(), "k"); ok {
		t.Fatal("expired entry must miss")
	}

	// Zero TTL entries are never stored.
	cache.Set(context.Background(), "z", "v", 0)
	if _, ok := cache.Get(context.Background(), "z"); ok {
		t.Fatal("zero ttl must not store")
	}
}
