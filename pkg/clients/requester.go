package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/eimribar/ads-command-center/pkg/logging"
)

const maxResponseBytes = 8 << 20

// Observer receives per-request telemetry. pkg/monitoring implements it.
type Observer interface {
	ObserveRequest(platform, operation, outcome string, elapsed time.Duration)
	ObserveBreakerTransition(name, from, to string)
}

// Requester performs HTTP calls for one platform. Reads go through the retry
// executor; mutations only through the circuit breaker so they run at most once.
type Requester struct {
	platform      string
	client        *http.Client
	readExecutor  failsafe.Executor[*http.Response]
	writeExecutor failsafe.Executor[*http.Response]
	observer      Observer
	logger        logging.Logger
}

type requesterOptions struct {
	httpClient  *http.Client
	executor    HTTPExecutorConfig
	breaker     *CircuitBreakerConfig
	noExecutors bool
	observer    Observer
	logger      logging.Logger
}

// RequesterOption customizes a Requester.
type RequesterOption func(*requesterOptions)

func WithHTTPClient(httpClient *http.Client) RequesterOption {
	return func(o *requesterOptions) {
		if httpClient != nil {
			o.httpClient = httpClient
		}
	}
}

// WithHTTPExecutorConfig replaces the retry settings.
func WithHTTPExecutorConfig(cfg HTTPExecutorConfig) RequesterOption {
	return func(o *requesterOptions) {
		o.executor = cfg
	}
}

// WithCircuitBreaker overrides the default per-platform breaker settings.
func WithCircuitBreaker(cfg CircuitBreakerConfig) RequesterOption {
	return func(o *requesterOptions) {
		o.breaker = &cfg
	}
}

// WithoutExecutors sends every request exactly once with no breaker. Tests use it
// so failures surface without retry delays.
func WithoutExecutors() RequesterOption {
	return func(o *requesterOptions) {
		o.noExecutors = true
	}
}

func WithObserver(observer Observer) RequesterOption {
	return func(o *requesterOptions) {
		o.observer = observer
	}
}

func WithLogger(logger logging.Logger) RequesterOption {
	return func(o *requesterOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewRequester builds a Requester for platform with a dedicated circuit breaker.
func NewRequester(platform string, opts ...RequesterOption) *Requester {
	o := requesterOptions{
		httpClient: DefaultHTTPClient(),
		executor:   DefaultHTTPExecutorConfig(),
		logger:     logging.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Requester{
		platform: platform,
		client:   o.httpClient,
		observer: o.observer,
		logger:   o.logger,
	}
	if o.noExecutors {
		return r
	}

	cbCfg := DefaultCircuitBreakerConfig(platform)
	if o.breaker != nil {
		cbCfg = *o.breaker
		if cbCfg.Name == "" {
			cbCfg.Name = platform
		}
	}
	cbCfg.Logger = o.logger
	if o.observer != nil {
		observer := o.observer
		cbCfg.OnStateChange = func(name string, from, to CircuitBreakerState) {
			observer.ObserveBreakerTransition(name, from.String(), to.String())
		}
	}

	execCfg := normalizeHTTPExecutorConfig(o.executor)
	execCfg.CircuitBreaker = NewHTTPCircuitBreaker(cbCfg)
	r.readExecutor = NewHTTPExecutor(execCfg)
	r.writeExecutor = NewHTTPWriteExecutor(execCfg)
	return r
}

// Platform returns the platform name used in errors and metrics.
func (r *Requester) Platform() string {
	return r.platform
}

// Do executes the request produced by build. build is called once per attempt.
func (r *Requester) Do(ctx context.Context, mutation bool, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	executor := r.readExecutor
	if mutation {
		executor = r.writeExecutor
	}

	attempt := func() (*http.Response, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err == nil && resp.StatusCode >= 400 {
			// Buffer error bodies so a retried or final response stays readable
			// after the connection is released.
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			resp.Body = io.NopCloser(bytes.NewReader(body))
		}
		return resp, err
	}

	if executor == nil {
		return attempt()
	}
	return ExecuteHTTP(ctx, executor, attempt)
}

// DoJSON executes the request and decodes a JSON response into out (which may be nil).
// Non-2xx answers become *APIError; transport failures become *TransportError.
func (r *Requester) DoJSON(ctx context.Context, operation string, mutation bool, build func(ctx context.Context) (*http.Request, error), out any) error {
	start := time.Now()
	resp, err := r.Do(ctx, mutation, build)
	if err != nil {
		r.observe(operation, "transport_error", start)
		wrapped := WrapTransportError(r.platform, err)
		r.logger.WithFields(logging.Fields{
			"platform":  r.platform,
			"operation": operation,
		}).WithError(err).Debug("request failed")
		return wrapped
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		r.observe(operation, "read_error", start)
		return WrapTransportError(r.platform, fmt.Errorf("read response: %w", err))
	}

	r.observe(operation, strconv.Itoa(resp.StatusCode), start)
	r.logger.WithFields(logging.Fields{
		"platform":  r.platform,
		"operation": operation,
		"status":    resp.StatusCode,
		"elapsed":   time.Since(start).String(),
	}).Debug("request completed")

	if resp.StatusCode >= 400 {
		return NewAPIError(r.platform, resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.platform, operation, err)
	}
	return nil
}

func (r *Requester) observe(operation, outcome string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveRequest(r.platform, operation, outcome, time.Since(start))
	}
}

// JSONRequest returns a builder for a request with an optional JSON body.
// decorate adds auth headers and runs on every attempt.
func JSONRequest(method, url string, payload any, decorate func(*http.Request) error) (func(ctx context.Context) (*http.Request, error), error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}
	return func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if decorate != nil {
			if err := decorate(req); err != nil {
				return nil, err
			}
		}
		return req, nil
	}, nil
}

// BearerAuth returns a decorator that sets an Authorization bearer header.
func BearerAuth(token string) func(*http.Request) error {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}
