package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	"github.com/kailas-cloud/trafficwatch/internal/usecase/scheduler"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockCounterReader struct {
	err error
}

func (m *mockCounterReader) Read(_ context.Context) (traffic.Sample, error) {
	return traffic.Sample{TxBytes: 1}, m.err
}

type mockLoopStatus struct {
	status scheduler.Status
}

func (m *mockLoopStatus) Status() scheduler.Status { return m.status }

// --- Tests ---

func TestCheck(t *testing.T) {
	ctx := context.Background()
	down := errors.New("down")

	tests := []struct {
		name       string
		storeErr   error
		counterErr error
		sinceTick  time.Duration
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			sinceTick:  5 * time.Second,
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{CheckStorage: CheckOK, CheckCounters: CheckOK, CheckScheduler: CheckOK},
		},
		{
			name:       "storage down",
			storeErr:   down,
			sinceTick:  5 * time.Second,
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckStorage: CheckError, CheckCounters: CheckOK, CheckScheduler: CheckOK},
		},
		{
			name:       "counters down",
			counterErr: down,
			sinceTick:  5 * time.Second,
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckStorage: CheckOK, CheckCounters: CheckError, CheckScheduler: CheckOK},
		},
		{
			name:       "scheduler stale",
			sinceTick:  31 * time.Second,
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckStorage: CheckOK, CheckCounters: CheckOK, CheckScheduler: CheckError},
		},
		{
			name:       "everything failing",
			storeErr:   down,
			counterErr: down,
			sinceTick:  time.Minute,
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{CheckStorage: CheckError, CheckCounters: CheckError, CheckScheduler: CheckError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := quartz.NewMock(t)
			loop := &mockLoopStatus{status: scheduler.Status{LastSuccess: clock.Now()}}
			svc := New(&mockStorePinger{err: tt.storeErr}, &mockCounterReader{err: tt.counterErr}, loop,
				Config{Interval: 5 * time.Second, Clock: clock})
			clock.Advance(tt.sinceTick).MustWait(ctx)

			r := svc.Check(ctx)

			if r.Status != tt.wantStatus {
				t.Errorf("expected %q, got %q", tt.wantStatus, r.Status)
			}
			for name, want := range tt.wantChecks {
				if r.Checks[name] != want {
					t.Errorf("expected %s %q, got %q", name, want, r.Checks[name])
				}
			}
		})
	}
}

func TestCheck_StaleWindowScalesWithInterval(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	loop := &mockLoopStatus{status: scheduler.Status{LastSuccess: clock.Now()}}
	svc := New(&mockStorePinger{}, &mockCounterReader{}, loop, Config{Interval: time.Minute, Clock: clock})

	clock.Advance(2 * time.Minute).MustWait(ctx)
	if r := svc.Check(ctx); r.Checks[CheckScheduler] != CheckOK {
		t.Errorf("expected scheduler ok within 3 intervals, got %q", r.Checks[CheckScheduler])
	}

	clock.Advance(2 * time.Minute).MustWait(ctx)
	if r := svc.Check(ctx); r.Checks[CheckScheduler] != CheckError {
		t.Errorf("expected scheduler error after 3 intervals, got %q", r.Checks[CheckScheduler])
	}
}

func TestCheck_NoTickYetUsesStartTime(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	svc := New(&mockStorePinger{}, &mockCounterReader{}, &mockLoopStatus{}, Config{Interval: time.Second, Clock: clock})

	if r := svc.Check(ctx); r.Checks[CheckScheduler] != CheckOK {
		t.Errorf("expected scheduler ok right after start, got %q", r.Checks[CheckScheduler])
	}

	clock.Advance(time.Minute).MustWait(ctx)
	if r := svc.Check(ctx); r.Checks[CheckScheduler] != CheckError {
		t.Errorf("expected scheduler error, got %q", r.Checks[CheckScheduler])
	}
}

func TestCheck_NoLoop(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockCounterReader{}, nil, Config{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckScheduler]; ok {
		t.Error("scheduler check should be absent when loop is nil")
	}
}
