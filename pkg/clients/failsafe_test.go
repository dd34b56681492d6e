package clients

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

//nolint:bodyclose // test responses have no body
func TestNewHTTPRetryPolicy_NormalizesConfigToBoundRetries(t *testing.T) {
	cfg := HTTPExecutorConfig{
		MaxRetries: -3,
		BaseDelay:  0,
		MaxDelay:   0,
	}
	policy := NewHTTPRetryPolicy(cfg)

	var attempts int32
	_, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("network partition")
	})
	if err == nil {
		t.Fatal("expected request to fail")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("expected bounded single attempt with negative retries, got %d", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPRetryPolicy_RetriesUpToConfiguredLimit(t *testing.T) {
	cfg := HTTPExecutorConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		ShouldRetry: func(_ *http.Response, err error) bool {
			return err != nil
		},
	}
	policy := NewHTTPRetryPolicy(cfg)

	var attempts int32
	_, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		count := atomic.AddInt32(&attempts, 1)
		if count < 3 {
			return nil, errors.New("dns lag")
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected exactly 3 attempts (1 + 2 retries), got %d", got)
	}
}

//nolint:bodyclose // test responses have no body
func TestNewHTTPRetryPolicy_ReturnsLastResponse(t *testing.T) {
	policy := NewHTTPRetryPolicy(HTTPExecutorConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	resp, err := failsafe.With(policy).Get(func() (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusServiceUnavailable}, nil
	})
	if err != nil {
		t.Fatalf("expected last response instead of an exceeded error, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 response, got %+v", resp)
	}
}

func TestDefaultShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{"network error", nil, errors.New("reset"), true},
		{"open circuit", nil, circuitbreaker.ErrOpen, false},
		{"cancelled", nil, context.Canceled, false},
		{"server error", &http.Response{StatusCode: 502}, nil, true},
		{"rate limit", &http.Response{StatusCode: 429}, nil, true},
		{"unauthorized", &http.Response{StatusCode: 401}, nil, false},
		{"ok", &http.Response{StatusCode: 200}, nil, false},
	}
	for _, tt := range tests {
		if got := DefaultShouldRetry(tt.resp, tt.err); got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

//nolint:bodyclose // test responses have no body
func TestHTTPCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	var transitions []string
	cb := NewHTTPCircuitBreaker(CircuitBreakerConfig{
		Name:             "meta",
		FailureThreshold: 3,
		FailureWindow:    3,
		Delay:            time.Minute,
		OnStateChange: func(name string, from, to CircuitBreakerState) {
			transitions = append(transitions, name+":"+to.String())
		},
	})
	exec := failsafe.With[*http.Response](cb)

	for i := 0; i < 3; i++ {
		_, _ = exec.Get(func() (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusInternalServerError}, nil
		})
	}

	var calls int32
	_, err := exec.Get(func() (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if calls != 0 {
		t.Fatal("open circuit should not invoke the call")
	}
	if len(transitions) != 1 || transitions[0] != "meta:open" {
		t.Fatalf("unexpected transitions %v", transitions)
	}
}

//nolint:bodyclose // test responses have no body
func TestHTTPCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	cb := NewHTTPCircuitBreaker(CircuitBreakerConfig{Name: "reddit", FailureThreshold: 2, FailureWindow: 2})
	exec := failsafe.With[*http.Response](cb)
	for i := 0; i < 5; i++ {
		_, _ = exec.Get(func() (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusBadRequest}, nil
		})
	}
	if cb.IsOpen() {
		t.Fatal("4xx responses must not open the circuit")
	}
}

func TestNewHTTPWriteExecutorWithoutBreaker(t *testing.T) {
	if NewHTTPWriteExecutor(HTTPExecutorConfig{}) != nil {
		t.Fatal("expected nil write executor without a breaker")
	}
}
