package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryableErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"wrapped canceled", fmt.Errorf("call: %w", context.Canceled), false},
		{"network timeout", timeoutErr{}, true},
		{"http 502", &httpError{StatusCode: 502}, true},
		{"http 429", &httpError{StatusCode: 429}, true},
		{"http 400", &httpError{StatusCode: 400}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryableErr(tc.err); got != tc.want {
				t.Fatalf("retryable: want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestDoReturnsPromptlyAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// first attempt gets a retryable status, then the caller goes away
		cancel()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log, _ := logger.New("development")
	c := &client{
		log:        log,
		baseURL:    srv.URL,
		apiKey:     "test",
		model:      "m",
		httpClient: srv.Client(),
		maxRetries: 5,
	}

	start := time.Now()
	err := c.do(ctx, http.MethodPost, "/v1/chat/completions", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("canceled call must not wait out the backoff, took %v", elapsed)
	}
}
