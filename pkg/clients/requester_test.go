package clients

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	breakers []string
}

func (r *recordingObserver) ObserveRequest(platform, operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, platform+"/"+operation+"/"+outcome)
}

func (r *recordingObserver) ObserveBreakerTransition(name, from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers = append(r.breakers, name+":"+from+"->"+to)
}

func fastRetries() RequesterOption {
	return WithHTTPExecutorConfig(HTTPExecutorConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
}

func TestRequesterRetriesReads(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"value":7}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	r := NewRequester("Meta", fastRetries(), WithObserver(obs))
	build, err := JSONRequest(http.MethodGet, srv.URL, nil, BearerAuth("tok"))
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Value int `json:"value"`
	}
	if err := r.DoJSON(context.Background(), "insights", false, build, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != 7 {
		t.Fatalf("expected decoded value 7, got %d", out.Value)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "Meta/insights/200" {
		t.Fatalf("unexpected observations %v", obs.outcomes)
	}
}

func TestRequesterDoesNotRetryMutations(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream hiccup"}}`))
	}))
	defer srv.Close()

	r := NewRequester("Reddit", fastRetries())
	build, _ := JSONRequest(http.MethodPost, srv.URL, map[string]string{"a": "b"}, nil)
	err := r.DoJSON(context.Background(), "conversion", true, build, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream hiccup" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("mutation must be sent once, got %d", got)
	}
}

func TestRequesterSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer header")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	r := NewRequester("TikTok", WithoutExecutors())
	build, _ := JSONRequest(http.MethodPost, srv.URL, map[string]int{"x": 1}, BearerAuth("secret"))
	if err := r.DoJSON(context.Background(), "update", true, build, &struct{}{}); err != nil {
		t.Fatalf("empty body should decode cleanly: %v", err)
	}
}

func TestRequesterConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	r := NewRequester("Google", WithoutExecutors())
	build, _ := JSONRequest(http.MethodGet, "http://"+addr, nil, nil)
	err = r.DoJSON(context.Background(), "campaigns", false, build, nil)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if err.Error() != "Connection refused. Check your internet connection." {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestRequesterBreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	r := NewRequester("Analytics",
		WithHTTPExecutorConfig(HTTPExecutorConfig{MaxRetries: 0}),
		WithCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, FailureWindow: 2, Delay: time.Minute}),
		WithObserver(obs),
	)
	build, _ := JSONRequest(http.MethodGet, srv.URL, nil, nil)
	for i := 0; i < 2; i++ {
		_ = r.DoJSON(context.Background(), "report", false, build, nil)
	}
	err := r.DoJSON(context.Background(), "report", false, build, nil)
	if err == nil || !strings.Contains(err.Error(), "temporarily unavailable") {
		t.Fatalf("expected open circuit error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls reaching the server, got %d", calls)
	}
	if len(obs.breakers) != 1 || obs.breakers[0] != "Analytics:closed->open" {
		t.Fatalf("unexpected breaker transitions %v", obs.breakers)
	}
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
		kind   ErrorKind
	}{
		{401, `{}`, "Token expired or invalid. Please refresh your access token.", KindAuthExpired},
		{403, ``, "Permission denied. Check your API permissions.", KindPermissionDenied},
		{429, ``, "Rate limit exceeded. Please wait and try again.", KindRateLimited},
		{400, `{"error":{"message":"Invalid parameter"}}`, "Meta API error (400): Invalid parameter", KindGeneric},
		{400, `{"error":"invalid_grant","error_description":"Bad Request"}`, "Meta API error (400): invalid_grant: Bad Request", KindGeneric},
		{500, `oops`, "Meta API error (500): oops", KindGeneric},
	}
	for _, tt := range tests {
		err := NewAPIError("Meta", tt.status, []byte(tt.body))
		if err.Error() != tt.want || err.Kind != tt.kind {
			t.Fatalf("status %d: got %q (%s)", tt.status, err.Error(), err.Kind)
		}
	}
	if !IsAuthError(NewAPIError("Reddit", 401, nil)) {
		t.Fatal("expected auth error")
	}
	if got := NewVendorError("TikTok", 40001, "Access token is incorrect").Error(); got != "TikTok API error: Access token is incorrect" {
		t.Fatalf("unexpected vendor message %q", got)
	}
}

func TestWrapTransportErrorPassesClassifiedErrors(t *testing.T) {
	apiErr := NewAPIError("Meta", 500, nil)
	if WrapTransportError("Meta", apiErr) != error(apiErr) {
		t.Fatal("APIError should pass through")
	}
	if !errors.Is(WrapTransportError("Meta", context.Canceled), context.Canceled) {
		t.Fatal("cancellation should pass through")
	}
	if got := WrapTransportError("Meta", context.DeadlineExceeded).Error(); got != "Meta request timed out" {
		t.Fatalf("unexpected timeout message %q", got)
	}
}
