// Package accounting implements the per-tick traffic accounting state machine:
// period resolution, reset-day handling, periodic reports, threshold crossings
// and persistence.
package accounting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	logpkg "github.com/kailas-cloud/trafficwatch/internal/logger"
	"github.com/kailas-cloud/trafficwatch/internal/metrics"
)

// RetryConfig bounds document save retries.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetry retries a failed save three times within about a second.
var DefaultRetry = RetryConfig{MaxRetries: 3, InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second}

// Config holds the accounting policy. Values are expected to be normalized.
type Config struct {
	QuotaGB            float64
	ResetDay           int
	Thresholds         []period.Threshold // ascending
	ReportIntervalDays int
	Host               domain.Host
	Retry              RetryConfig
}

// Result describes what one tick did.
type Result struct {
	Period   period.Key
	TickGB   float64
	TotalGB  float64
	Reset    bool
	Reported bool
	Crossed  []period.Threshold
}

// Accountant applies tick usage to the persisted period document.
type Accountant struct {
	store    PeriodStore
	notifier Notifier
	cfg      Config
}

// New creates an Accountant.
func New(store PeriodStore, notifier Notifier, cfg Config) *Accountant {
	thresholds := append([]period.Threshold(nil), cfg.Thresholds...)
	period.SortThresholds(thresholds)
	cfg.Thresholds = thresholds
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = DefaultRetry.MaxRetries
	}
	if cfg.Retry.InitialInterval <= 0 {
		cfg.Retry.InitialInterval = DefaultRetry.InitialInterval
	}
	return &Accountant{store: store, notifier: notifier, cfg: cfg}
}

// NotifyStartup sends the startup announcement.
func (a *Accountant) NotifyStartup(ctx context.Context) {
	a.notify(ctx, KindStartup, StartupMessage(a.cfg.Host))
}

// Tick runs one accounting pass at now for the usage observed since the
// previous tick. The caller must only invoke it with a successful counter
// read. A returned error means the document was not persisted.
func (a *Accountant) Tick(ctx context.Context, now time.Time, usage traffic.Usage) (Result, error) {
	key := period.KeyOf(now)
	ctx = logpkg.With(ctx, zap.String("period", key.String()))
	log := logpkg.FromContext(ctx)

	doc, err := a.store.Load(ctx)
	if err != nil {
		return Result{Period: key}, fmt.Errorf("load period document: %w", err)
	}

	rec, created := doc.Resolve(key, a.cfg.Thresholds)
	if created {
		log.Info("Created traffic record for new period")
	}
	log.Debug("Current cumulative usage", zap.Float64("cumulative_gb", rec.CumulativeGB))

	res := Result{Period: key, TickGB: usage.GB()}
	res.Reset = a.checkReset(ctx, now, key, doc, rec)

	total := rec.CumulativeGB + res.TickGB
	res.TotalGB = total
	res.Reported = a.checkReport(ctx, now, rec, total)
	res.Crossed = a.checkThresholds(ctx, rec, total)

	rec.CumulativeGB = total
	if err := a.save(ctx, doc); err != nil {
		return res, err
	}

	metrics.ObservePeriod(total, a.cfg.QuotaGB)
	for _, t := range a.cfg.Thresholds {
		metrics.ThresholdNotified.WithLabelValues(t.Label()).Set(boolGauge(rec.IsSent(t)))
	}

	log.Info("Traffic tick",
		zap.String("tick_gb", strconv.FormatFloat(res.TickGB, 'f', 6, 64)),
		zap.String("total_gb", strconv.FormatFloat(total, 'f', 2, 64)),
	)
	return res, nil
}

// checkReset zeroes the record on the reset day, at most once per calendar day.
func (a *Accountant) checkReset(
	ctx context.Context, now time.Time, key period.Key, doc period.Document, rec *period.Record,
) bool {
	day := now.Day()
	if day != period.EffectiveResetDay(a.cfg.ResetDay, now) || rec.LastResetDay == day {
		return false
	}

	log := logpkg.FromContext(ctx)
	prevKey := key.Previous()
	if prev, ok := doc.Get(prevKey); ok {
		a.notify(ctx, KindReset, ResetMessage(a.cfg.Host, prevKey, prev.CumulativeGB, a.cfg.QuotaGB))
	} else {
		log.Info("No previous period record, skipping reset summary", zap.String("previous", prevKey.String()))
	}

	rec.Reset(day, a.cfg.Thresholds)
	log.Info("Period usage reset", zap.Int("day", day))
	return true
}

// checkReport sends the periodic report when none was sent yet this period
// or the configured interval has elapsed.
func (a *Accountant) checkReport(ctx context.Context, now time.Time, rec *period.Record, total float64) bool {
	today := period.DateOf(now)
	if !rec.LastReportDate.IsZero() {
		days, err := rec.LastReportDate.DaysUntil(today)
		if err == nil && days < a.cfg.ReportIntervalDays {
			return false
		}
		if err != nil {
			logpkg.FromContext(ctx).Warn("Unreadable last report date, reporting now",
				zap.String("last_report_date", string(rec.LastReportDate)), zap.Error(err))
		}
	}

	a.notify(ctx, KindReport, ReportMessage(a.cfg.Host, total, a.cfg.QuotaGB))
	rec.LastReportDate = today
	return true
}

// checkThresholds notifies every newly reached threshold in ascending order.
func (a *Accountant) checkThresholds(ctx context.Context, rec *period.Record, total float64) []period.Threshold {
	var crossed []period.Threshold
	for _, t := range a.cfg.Thresholds {
		if rec.IsSent(t) || !t.Reached(total, a.cfg.QuotaGB) {
			continue
		}
		a.notify(ctx, KindThreshold, ThresholdMessage(a.cfg.Host, t, total, a.cfg.QuotaGB))
		rec.MarkSent(t)
		crossed = append(crossed, t)
	}
	return crossed
}

// notify sends one message. Delivery failures are logged and counted only.
func (a *Accountant) notify(ctx context.Context, kind, text string) {
	err := a.notifier.Send(ctx, text)
	metrics.NotificationsTotal.WithLabelValues(kind, metrics.NotificationStatus(err)).Inc()
	if err != nil {
		logpkg.FromContext(ctx).Warn("Notification failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	logpkg.FromContext(ctx).Info("Notification sent", zap.String("kind", kind))
}

// save persists doc, retrying transient failures with exponential backoff.
func (a *Accountant) save(ctx context.Context, doc period.Document) error {
	start := time.Now()
	defer func() { metrics.StoreSaveDuration.Observe(time.Since(start).Seconds()) }()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = a.cfg.Retry.InitialInterval
	if a.cfg.Retry.MaxInterval > 0 {
		eb.MaxInterval = a.cfg.Retry.MaxInterval
	}
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, a.cfg.Retry.MaxRetries), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := a.store.Save(ctx, doc)
		if err != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
			return backoff.Permanent(err)
		}
		if err != nil {
			logpkg.FromContext(ctx).Warn("Saving period document failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}, b)
	if err != nil {
		return fmt.Errorf("save period document after %d attempts: %w", attempt, err)
	}
	return nil
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
