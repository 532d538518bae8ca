package metrics

import "github.com/prometheus/client_golang/prometheus"

// Traffic accounting Prometheus metrics.
var (
	PeriodUsageGB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trafficwatch",
			Name:      "period_usage_gigabytes",
			Help:      "Cumulative traffic of the current billing period in GB",
		},
	)

	QuotaGB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trafficwatch",
			Name:      "quota_gigabytes",
			Help:      "Configured monthly traffic quota in GB",
		},
	)

	UsageRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trafficwatch",
			Name:      "usage_ratio",
			Help:      "Fraction of the monthly quota consumed",
		},
	)

	TrafficBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficwatch",
			Name:      "traffic_bytes_total",
			Help:      "Bytes accounted since process start",
		},
		[]string{"direction"}, // "tx" / "rx"
	)

	CounterResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficwatch",
			Name:      "counter_resets_total",
			Help:      "Interface counter decreases observed",
		},
		[]string{"direction"},
	)

	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficwatch",
			Name:      "ticks_total",
			Help:      "Monitoring ticks by outcome",
		},
		[]string{"result"}, // "ok" / "skipped" / "error"
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficwatch",
			Name:      "notifications_total",
			Help:      "Notifications attempted by kind and delivery status",
		},
		[]string{"kind", "status"},
	)

	ThresholdNotified = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "trafficwatch",
			Name:      "threshold_notified",
			Help:      "1 if the threshold was notified in the current period",
		},
		[]string{"threshold"},
	)

	StoreSaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trafficwatch",
			Name:      "store_save_duration_seconds",
			Help:      "Period document save duration in seconds, retries included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Tick results.
const (
	TickOK      = "ok"
	TickSkipped = "skipped"
	TickError   = "error"
)

var trafficMetricsRegistered bool

// RegisterTrafficMetrics registers Prometheus traffic metrics. Must be called once from main.
func RegisterTrafficMetrics() {
	if trafficMetricsRegistered {
		return
	}
	prometheus.MustRegister(PeriodUsageGB)
	prometheus.MustRegister(QuotaGB)
	prometheus.MustRegister(UsageRatio)
	prometheus.MustRegister(TrafficBytesTotal)
	prometheus.MustRegister(CounterResetsTotal)
	prometheus.MustRegister(TicksTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(ThresholdNotified)
	prometheus.MustRegister(StoreSaveDuration)
	trafficMetricsRegistered = true
}

// ObservePeriod updates the period gauges.
func ObservePeriod(usageGB, quotaGB float64) {
	PeriodUsageGB.Set(usageGB)
	QuotaGB.Set(quotaGB)
	if quotaGB > 0 {
		UsageRatio.Set(usageGB / quotaGB)
	}
}

// NotificationStatus maps a delivery error to a status label.
func NotificationStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "sent"
}
