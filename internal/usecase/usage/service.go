package usage

import (
	"context"
	"fmt"

	"github.com/coder/quartz"

	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
	domusage "github.com/kailas-cloud/trafficwatch/internal/domain/usage"
)

// Config holds the quota policy needed to interpret the document.
type Config struct {
	QuotaGB    float64
	ResetDay   int
	Thresholds []period.Threshold
}

// Service handles usage reporting.
type Service struct {
	store DocumentLoader
	cfg   Config
	clock quartz.Clock
}

// New creates a Service. A nil clock means the real clock.
func New(store DocumentLoader, cfg Config, clock quartz.Clock) *Service {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Service{store: store, cfg: cfg, clock: clock}
}

// GetReport builds a usage report for the current period.
func (s *Service) GetReport(ctx context.Context) (domusage.Report, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("load period document: %w", err)
	}

	now := s.clock.Now()
	key := period.KeyOf(now)
	rec, _ := doc.Get(key)
	return domusage.NewReport(key, rec, s.cfg.QuotaGB, s.cfg.Thresholds, period.NextReset(s.cfg.ResetDay, now)), nil
}
