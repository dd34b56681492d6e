package monitoring

import (
	"context"
	"testing"
	"time"
)

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("ads", "1.0.0", time.Second)
	hc.AddCheck("meta", func(context.Context) CheckResult { return CheckResult{Status: StatusHealthy} })
	status := hc.CheckHealth(context.Background())
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", status.Status)
	}
	if status.Checks["meta"].Latency == "" {
		t.Fatal("expected measured latency")
	}
}

func TestHealthChecker_Aggregation(t *testing.T) {
	hc := NewHealthChecker("ads", "1.0.0", time.Second)
	hc.AddCheck("meta", func(context.Context) CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("reddit", func(context.Context) CheckResult { return CheckResult{Status: StatusDegraded} })
	if got := hc.CheckHealth(context.Background()).Status; got != StatusDegraded {
		t.Fatalf("expected degraded, got %s", got)
	}

	hc.AddCheck("tiktok", func(context.Context) CheckResult { panic("boom") })
	status := hc.CheckHealth(context.Background())
	if status.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", status.Status)
	}
	if status.Checks["tiktok"].Message != "check panicked" {
		t.Fatalf("expected panic to be captured, got %+v", status.Checks["tiktok"])
	}
	if names := hc.Names(); len(names) != 3 || names[0] != "meta" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestHealthChecker_Timeout(t *testing.T) {
	hc := NewHealthChecker("ads", "dev", 20*time.Millisecond)
	hc.AddCheck("slow", func(ctx context.Context) CheckResult {
		<-ctx.Done()
		return CheckResult{Status: StatusUnhealthy, Message: ctx.Err().Error()}
	})
	status := hc.CheckHealth(context.Background())
	if status.Checks["slow"].Message != context.DeadlineExceeded.Error() {
		t.Fatalf("expected deadline exceeded, got %+v", status.Checks["slow"])
	}
}
