package scheduler

import (
	"context"
	"time"

	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	"github.com/kailas-cloud/trafficwatch/internal/usecase/accounting"
)

// CounterSource reads the monitored interface's cumulative byte counters.
type CounterSource interface {
	Read(ctx context.Context) (traffic.Sample, error)
}

// TickRunner applies one tick of usage to the period document.
type TickRunner interface {
	Tick(ctx context.Context, now time.Time, usage traffic.Usage) (accounting.Result, error)
}
