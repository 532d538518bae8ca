package health

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckStorage   = "storage"
	CheckCounters  = "counters"
	CheckScheduler = "scheduler"
)

// minStaleAfter is the floor for the scheduler freshness window.
const minStaleAfter = 30 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Config holds health check settings.
type Config struct {
	// Interval is the scheduler tick interval. The scheduler is stale when no
	// tick succeeded within max(3*Interval, 30s).
	Interval time.Duration
	Clock    quartz.Clock
}

// Service coordinates health checks.
type Service struct {
	store      StorePinger
	counters   CounterReader
	loop       LoopStatus
	clock      quartz.Clock
	staleAfter time.Duration
	started    time.Time
}

// New creates a Service. loop can be nil when no scheduler runs in-process.
func New(store StorePinger, counters CounterReader, loop LoopStatus, cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	staleAfter := max(3*cfg.Interval, minStaleAfter)
	return &Service{
		store:      store,
		counters:   counters,
		loop:       loop,
		clock:      clock,
		staleAfter: staleAfter,
		started:    clock.Now(),
	}
}

// Check runs health checks against all components. The status is error
// only when every component fails.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckStorage] = result(s.store.Ping(ctx) == nil)

	_, err := s.counters.Read(ctx)
	checks[CheckCounters] = result(err == nil)

	if s.loop != nil {
		checks[CheckScheduler] = result(s.fresh(s.loop.Status().LastSuccess))
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

// fresh reports whether the last successful tick is recent enough. Before
// the first success the process start time stands in.
func (s *Service) fresh(lastSuccess time.Time) bool {
	ref := lastSuccess
	if ref.IsZero() {
		ref = s.started
	}
	return s.clock.Since(ref) <= s.staleAfter
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
