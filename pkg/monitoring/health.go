package monitoring

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the overall health of the configured platforms
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthCheck performs one check. It must honour ctx cancellation.
type HealthCheck func(ctx context.Context) CheckResult

// HealthChecker runs named checks concurrently.
type HealthChecker struct {
	service string
	version string
	timeout time.Duration

	mu     sync.Mutex
	checks map[string]HealthCheck
}

// NewHealthChecker creates a new health checker instance. Each check runs
// under its own timeout.
func NewHealthChecker(service, version string, timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HealthChecker{
		service: service,
		version: version,
		timeout: timeout,
		checks:  make(map[string]HealthCheck),
	}
}

// AddCheck adds a health check to the checker
func (hc *HealthChecker) AddCheck(name string, check HealthCheck) {
	hc.mu.Lock()
	hc.checks[name] = check
	hc.mu.Unlock()
}

// Names returns the registered check names in sorted order.
func (hc *HealthChecker) Names() []string {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs all checks in parallel and returns the overall status.
// A check that does not report a latency gets the measured wall time.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.Lock()
	checks := make(map[string]HealthCheck, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.Unlock()

	status := HealthStatus{
		Service:   hc.service,
		Version:   hc.version,
		Timestamp: time.Now().Unix(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
			defer cancel()

			start := time.Now()
			result := runCheck(checkCtx, check)
			if result.Latency == "" {
				result.Latency = time.Since(start).Round(time.Millisecond).String()
			}
			mu.Lock()
			status.Checks[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	anyUnhealthy := false
	anyDegraded := false
	for _, result := range status.Checks {
		switch result.Status {
		case StatusHealthy:
		case StatusDegraded:
			anyDegraded = true
		default:
			anyUnhealthy = true
		}
	}

	switch {
	case anyUnhealthy:
		status.Status = StatusUnhealthy
	case anyDegraded:
		status.Status = StatusDegraded
	default:
		status.Status = StatusHealthy
	}

	return status
}

func runCheck(ctx context.Context, check HealthCheck) (result CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			result = CheckResult{Status: StatusUnhealthy, Message: "check panicked"}
		}
	}()
	return check(ctx)
}
