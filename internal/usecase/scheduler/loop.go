// Package scheduler drives the accounting tick on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	logpkg "github.com/kailas-cloud/trafficwatch/internal/logger"
	"github.com/kailas-cloud/trafficwatch/internal/metrics"
	"github.com/kailas-cloud/trafficwatch/internal/usecase/accounting"
)

// timerTag names the inter-tick timer for clock traps in tests.
const timerTag = "scheduler"

// Status is a snapshot of the loop's progress.
type Status struct {
	Ticks       uint64
	LastTick    time.Time
	LastSuccess time.Time
	LastResult  accounting.Result
	LastErr     error
	Primed      bool
}

// Loop owns the running baseline and runs one tick at a time.
type Loop struct {
	clock     quartz.Clock
	counters  CounterSource
	runner    TickRunner
	interval  time.Duration
	direction traffic.Direction
	logger    *zap.Logger

	baseline traffic.Baseline // touched only by the loop goroutine

	mu     sync.Mutex
	status Status
}

// Config holds loop settings.
type Config struct {
	Interval  time.Duration
	Direction traffic.Direction
	Clock     quartz.Clock // nil means the real clock
	Logger    *zap.Logger
}

// New creates a Loop.
func New(counters CounterSource, runner TickRunner, cfg Config) *Loop {
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Loop{
		clock:     clock,
		counters:  counters,
		runner:    runner,
		interval:  interval,
		direction: cfg.Direction,
		logger:    logger,
	}
}

// Prime initializes the baseline from live counters. When the counters are
// unavailable the baseline stays unprimed and the first successful tick
// primes it without counting usage.
func (l *Loop) Prime(ctx context.Context) {
	sample, err := l.counters.Read(ctx)
	if err != nil {
		l.logger.Warn("Counters unavailable at startup, baseline will be primed on the first successful read",
			zap.Error(err))
		return
	}
	l.baseline = traffic.NewBaseline(sample)
	l.setPrimed()
	l.logger.Info("Initial baseline",
		zap.Uint64("previous_tx_bytes", sample.TxBytes),
		zap.Uint64("previous_rx_bytes", sample.RxBytes),
	)
}

// Run ticks immediately and then after every interval until ctx is done.
// The sleep starts when a tick finishes; missed ticks are not caught up.
// Cancellation is observed between ticks, so an in-flight tick completes.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Scheduler started", zap.Duration("interval", l.interval))
	tickCtx := context.WithoutCancel(ctx)
	for {
		l.RunOnce(tickCtx)

		timer := l.clock.NewTimer(l.interval, timerTag)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.logger.Info("Scheduler stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce executes a single tick.
func (l *Loop) RunOnce(ctx context.Context) {
	l.mu.Lock()
	l.status.Ticks++
	n := l.status.Ticks
	l.mu.Unlock()

	ctx = logpkg.ContextWithLogger(ctx, l.logger.With(zap.Uint64("tick", n)))
	log := logpkg.FromContext(ctx)
	now := l.clock.Now()

	sample, err := l.counters.Read(ctx)
	if err != nil {
		log.Warn("Counters unavailable, skipping tick", zap.Error(err))
		metrics.TicksTotal.WithLabelValues(metrics.TickSkipped).Inc()
		l.record(now, accounting.Result{}, err)
		return
	}

	wasPrimed := l.baseline.Primed
	usage, next := traffic.ComputeUsage(sample, l.baseline, l.direction)
	log.Debug("Counter delta",
		zap.Uint64("current_tx", sample.TxBytes),
		zap.Uint64("previous_tx", l.baseline.PreviousTx),
		zap.Uint64("tx_delta", usage.TxBytes),
		zap.Uint64("current_rx", sample.RxBytes),
		zap.Uint64("previous_rx", l.baseline.PreviousRx),
		zap.Uint64("rx_delta", usage.RxBytes),
	)
	if !wasPrimed {
		log.Info("Baseline primed", zap.Uint64("tx_bytes", sample.TxBytes), zap.Uint64("rx_bytes", sample.RxBytes))
	}
	l.observeResets(log, usage)

	res, err := l.runner.Tick(ctx, now, usage)
	if err != nil {
		// Keep the old baseline so the next tick counts this tick's bytes again.
		if !wasPrimed {
			l.baseline = next
		}
		log.Error("Tick failed", zap.Error(err))
		metrics.TicksTotal.WithLabelValues(metrics.TickError).Inc()
		l.record(now, res, err)
		return
	}

	l.baseline = next
	metrics.TrafficBytesTotal.WithLabelValues("tx").Add(float64(usage.TxBytes))
	metrics.TrafficBytesTotal.WithLabelValues("rx").Add(float64(usage.RxBytes))
	metrics.TicksTotal.WithLabelValues(metrics.TickOK).Inc()
	l.record(now, res, nil)
}

func (l *Loop) observeResets(log *zap.Logger, u traffic.Usage) {
	if u.TxReset {
		metrics.CounterResetsTotal.WithLabelValues("tx").Inc()
		log.Info("tx counter decreased, treating as counter reset")
	}
	if u.RxReset {
		metrics.CounterResetsTotal.WithLabelValues("rx").Inc()
		log.Info("rx counter decreased, treating as counter reset")
	}
}

func (l *Loop) record(now time.Time, res accounting.Result, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.LastTick = now
	l.status.LastErr = err
	if err == nil {
		l.status.LastSuccess = now
		l.status.LastResult = res
	}
	l.status.Primed = l.baseline.Primed
}

func (l *Loop) setPrimed() {
	l.mu.Lock()
	l.status.Primed = true
	l.mu.Unlock()
}

// Status returns a snapshot of the loop's progress. Safe for concurrent use.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Interval returns the configured tick interval.
func (l *Loop) Interval() time.Duration { return l.interval }
