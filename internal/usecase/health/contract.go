package health

import (
	"context"

	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	"github.com/kailas-cloud/trafficwatch/internal/usecase/scheduler"
)

// StorePinger checks period store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// CounterReader checks that interface counters are readable.
type CounterReader interface {
	Read(ctx context.Context) (traffic.Sample, error)
}

// LoopStatus exposes the scheduler's progress.
type LoopStatus interface {
	Status() scheduler.Status
}
