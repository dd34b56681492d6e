package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func tokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("refresh_token") != "rt-1" || r.Form.Get("client_id") != "cid" {
			t.Errorf("unexpected form %v", r.Form)
		}
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
}

func TestRefreshTokenSourceCachesUntilMargin(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	defer srv.Close()

	start := time.Now()
	now := start
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	src := NewRefreshTokenSource(RefreshCredentials{
		ClientID:     "cid",
		ClientSecret: "secret",
		RefreshToken: "rt-1",
		TokenURL:     srv.URL,
	}, WithClock(clock))

	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "access-1" {
		t.Fatalf("expected access-1, got %s", tok)
	}

	mu.Lock()
	now = start.Add(50 * time.Minute)
	mu.Unlock()
	if tok, _ := src.Token(context.Background()); tok != "access-1" {
		t.Fatalf("expected cached token, got %s", tok)
	}

	mu.Lock()
	now = start.Add(59*time.Minute + 30*time.Second)
	mu.Unlock()
	if tok, _ := src.Token(context.Background()); tok != "access-2" {
		t.Fatalf("expected refresh inside margin, got %s", tok)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", calls)
	}
}

func TestRefreshTokenSourceSingleFlight(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	defer srv.Close()

	src := NewRefreshTokenSource(RefreshCredentials{ClientID: "cid", RefreshToken: "rt-1", TokenURL: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := src.Token(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected single exchange, got %d", got)
	}
}

func TestRefreshTokenSourceInvalidate(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	defer srv.Close()

	src := NewRefreshTokenSource(RefreshCredentials{ClientID: "cid", RefreshToken: "rt-1", TokenURL: srv.URL})
	_, _ = src.Token(context.Background())
	src.Invalidate()
	tok, _ := src.Token(context.Background())
	if tok != "access-2" {
		t.Fatalf("expected new token after invalidate, got %s", tok)
	}
}

func TestRefreshTokenSourceErrors(t *testing.T) {
	src := NewRefreshTokenSource(RefreshCredentials{ClientID: "cid"})
	if _, err := src.Token(context.Background()); !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	src = NewRefreshTokenSource(RefreshCredentials{ClientID: "cid", RefreshToken: "bad", TokenURL: srv.URL})
	if _, err := src.Token(context.Background()); err == nil {
		t.Fatal("expected exchange error")
	}
}

func TestStaticToken(t *testing.T) {
	if tok, err := StaticToken("abc").Token(context.Background()); err != nil || tok != "abc" {
		t.Fatalf("unexpected %q %v", tok, err)
	}
	if _, err := StaticToken(" ").Token(context.Background()); err == nil {
		t.Fatal("expected error for empty static token")
	}
}
