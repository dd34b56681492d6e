// Package auth provides access tokens for the platforms that use OAuth refresh tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/eimribar/ads-command-center/pkg/cache"
)

// GoogleTokenURL is the OAuth token endpoint used by Google Ads and Analytics.
const GoogleTokenURL = "https://oauth2.googleapis.com/token"

// RefreshMargin is how long before expiry a cached token is considered stale.
const RefreshMargin = 60 * time.Second

// ErrNoRefreshToken is returned when refresh credentials are incomplete.
var ErrNoRefreshToken = errors.New("refresh token credentials are not configured")

// TokenProvider yields a bearer token for outgoing requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	// Invalidate discards any cached token, e.g. after the vendor answers 401.
	Invalidate()
}

// StaticToken is a pre-issued access token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("access token is empty")
	}
	return string(s), nil
}

func (StaticToken) Invalidate() {}

// RefreshCredentials identify an OAuth client and a long-lived refresh token.
type RefreshCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
}

// RefreshTokenSource exchanges a refresh token for access tokens and caches them
// until shortly before they expire. Concurrent callers share one exchange.
type RefreshTokenSource struct {
	creds      RefreshCredentials
	httpClient *http.Client
	now        func() time.Time
	tokens     *cache.Cache[string]
}

// RefreshOption customizes a RefreshTokenSource.
type RefreshOption func(*RefreshTokenSource)

// WithTokenHTTPClient sets the client used for token exchanges.
func WithTokenHTTPClient(c *http.Client) RefreshOption {
	return func(s *RefreshTokenSource) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithClock replaces time.Now for expiry bookkeeping.
func WithClock(now func() time.Time) RefreshOption {
	return func(s *RefreshTokenSource) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRefreshTokenSource(creds RefreshCredentials, opts ...RefreshOption) *RefreshTokenSource {
	if creds.TokenURL == "" {
		creds.TokenURL = GoogleTokenURL
	}
	s := &RefreshTokenSource{
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = cache.New[string](cache.Options{
		DefaultTTL:  time.Hour,
		EarlyExpiry: RefreshMargin,
		LoadTimeout: 30 * time.Second,
		Now:         s.now,
	}, cache.MetricsHooks{})
	return s
}

// Token returns a cached access token or performs a refresh exchange.
func (s *RefreshTokenSource) Token(ctx context.Context) (string, error) {
	if s.creds.ClientID == "" || s.creds.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}
	return s.tokens.Get(ctx, s.cacheKey(), s.exchange)
}

func (s *RefreshTokenSource) Invalidate() {
	s.tokens.Delete(s.cacheKey())
}

func (s *RefreshTokenSource) cacheKey() string {
	return s.creds.ClientID + "|" + s.creds.TokenURL
}

func (s *RefreshTokenSource) exchange(ctx context.Context, _ string) (string, time.Duration, error) {
	cfg := &oauth2.Config{
		ClientID:     s.creds.ClientID,
		ClientSecret: s.creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.creds.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: s.creds.RefreshToken}).Token()
	if err != nil {
		return "", 0, fmt.Errorf("refresh access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", 0, errors.New("refresh access token: empty access token in response")
	}
	var ttl time.Duration
	if !tok.Expiry.IsZero() {
		ttl = tok.Expiry.Sub(s.now())
	}
	return tok.AccessToken, ttl, nil
}
