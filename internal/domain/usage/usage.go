// Package usage is the read-only view of the current period's traffic.
package usage

import "github.com/kailas-cloud/trafficwatch/internal/domain/period"

// ThresholdState is one configured threshold and whether it was notified.
type ThresholdState struct {
	Threshold period.Threshold
	Sent      bool
}

// Report is a traffic usage snapshot for one period.
type Report struct {
	period       period.Key
	usedGB       float64
	quotaGB      float64
	thresholds   []ThresholdState
	lastReport   period.Date
	lastResetDay int
	nextReset    period.Date
}

// NewReport builds a report from a period record. A nil record means the
// period has no traffic yet.
func NewReport(
	key period.Key, rec *period.Record, quotaGB float64,
	thresholds []period.Threshold, nextReset period.Date,
) Report {
	r := Report{period: key, quotaGB: quotaGB, nextReset: nextReset}
	if rec != nil {
		r.usedGB = rec.CumulativeGB
		r.lastReport = rec.LastReportDate
		r.lastResetDay = rec.LastResetDay
	}
	r.thresholds = make([]ThresholdState, 0, len(thresholds))
	for _, t := range thresholds {
		r.thresholds = append(r.thresholds, ThresholdState{Threshold: t, Sent: rec != nil && rec.IsSent(t)})
	}
	return r
}

// Period returns the period key.
func (r *Report) Period() period.Key { return r.period }

// UsedGB returns the cumulative usage in GB.
func (r *Report) UsedGB() float64 { return r.usedGB }

// QuotaGB returns the monthly quota in GB.
func (r *Report) QuotaGB() float64 { return r.quotaGB }

// RemainingGB returns the quota left, never negative.
func (r *Report) RemainingGB() float64 {
	if r.usedGB >= r.quotaGB {
		return 0
	}
	return r.quotaGB - r.usedGB
}

// Percent returns usage as a percentage of the quota.
func (r *Report) Percent() float64 {
	if r.quotaGB <= 0 {
		return 0
	}
	return r.usedGB / r.quotaGB * 100
}

// IsExhausted reports whether the quota is used up.
func (r *Report) IsExhausted() bool { return r.quotaGB > 0 && r.usedGB >= r.quotaGB }

// Thresholds returns the threshold states in ascending order.
func (r *Report) Thresholds() []ThresholdState { return r.thresholds }

// LastReport returns the date of the last periodic report, zero if none.
func (r *Report) LastReport() period.Date { return r.lastReport }

// LastResetDay returns the day of the last reset, 0 if none.
func (r *Report) LastResetDay() int { return r.lastResetDay }

// NextReset returns the date of the next scheduled reset.
func (r *Report) NextReset() period.Date { return r.nextReset }
