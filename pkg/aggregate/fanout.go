// Package aggregate fans operations out to every platform adapter and merges
// the settled results.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eimribar/ads-command-center/pkg/logging"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

// DefaultTimeout bounds each adapter call inside a fan-out.
const DefaultTimeout = 30 * time.Second

// OutcomeStatus classifies how one adapter call settled.
type OutcomeStatus string

const (
	StatusOK            OutcomeStatus = "ok"
	StatusNotConfigured OutcomeStatus = "not_configured"
	StatusUnsupported   OutcomeStatus = "unsupported"
	StatusFailed        OutcomeStatus = "failed"
)

// Outcome is the settled result of one adapter call.
type Outcome[T any] struct {
	Platform models.PlatformID
	Name     string
	Value    T
	Err      error
	Status   OutcomeStatus
	Elapsed  time.Duration
}

// Failure names a platform whose call failed.
type Failure struct {
	Platform models.PlatformID `json:"platform"`
	Name     string            `json:"name"`
	Err      error             `json:"-"`
	Message  string            `json:"error"`
}

// OutcomeObserver receives one notification per settled adapter call.
type OutcomeObserver interface {
	ObserveOutcome(platform, operation, outcome string)
}

// Options tunes a fan-out.
type Options struct {
	Timeout   time.Duration
	Operation string
	Logger    logging.Logger
	Observer  OutcomeObserver
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Operation == "" {
		o.Operation = "call"
	}
	if o.Logger == nil {
		o.Logger = logging.NewDiscardLogger()
	}
	return o
}

// FanOut invokes op once per adapter concurrently and waits for all of them.
// A failing, slow or panicking adapter never affects the others: each call has
// its own timeout and nothing is cancelled when a sibling fails. Outcomes are
// returned in adapter order.
func FanOut[T any](ctx context.Context, adapters []platform.Adapter, opts Options, op func(ctx context.Context, a platform.Adapter) (T, error)) []Outcome[T] {
	opts = opts.withDefaults()
	outcomes := make([]Outcome[T], len(adapters))

	var g errgroup.Group
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			outcomes[i] = settle(ctx, adapter, opts, op)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		entry := opts.Logger.WithFields(logging.Fields{
			"platform":  o.Platform,
			"operation": opts.Operation,
			"status":    o.Status,
			"elapsed":   o.Elapsed.Round(time.Millisecond).String(),
		})
		if o.Status == StatusFailed {
			entry.WithError(o.Err).Warn("platform call failed")
		} else {
			entry.Debug("platform call settled")
		}
		if opts.Observer != nil {
			opts.Observer.ObserveOutcome(string(o.Platform), opts.Operation, string(o.Status))
		}
	}
	return outcomes
}

func settle[T any](ctx context.Context, adapter platform.Adapter, opts Options, op func(ctx context.Context, a platform.Adapter) (T, error)) (out Outcome[T]) {
	out = Outcome[T]{Platform: adapter.ID(), Name: adapter.Name()}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%s adapter panicked: %v", adapter.Name(), r)
			out.Status = StatusFailed
		}
		out.Elapsed = time.Since(start)
	}()

	if !adapter.IsConfigured() {
		out.Err = platform.ErrNotConfigured
		out.Status = StatusNotConfigured
		return out
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	value, err := op(callCtx, adapter)
	switch {
	case err == nil:
		out.Value = value
		out.Status = StatusOK
	case errors.Is(err, platform.ErrUnsupported):
		out.Err = err
		out.Status = StatusUnsupported
	case errors.Is(err, platform.ErrNotConfigured):
		out.Err = err
		out.Status = StatusNotConfigured
	default:
		out.Err = err
		out.Status = StatusFailed
	}
	return out
}

// Split separates successful values from failures. Not-configured and
// unsupported outcomes are dropped silently; failures never are.
func Split[T any](outcomes []Outcome[T]) ([]T, []Failure) {
	values := make([]T, 0, len(outcomes))
	var failures []Failure
	for _, o := range outcomes {
		switch o.Status {
		case StatusOK:
			values = append(values, o.Value)
		case StatusFailed:
			failures = append(failures, Failure{
				Platform: o.Platform,
				Name:     o.Name,
				Err:      o.Err,
				Message:  errorMessage(o.Err),
			})
		}
	}
	return values, failures
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
