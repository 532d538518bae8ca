package period

import (
	"encoding/json"
	"fmt"
)

// Record is the accounting state of one period.
type Record struct {
	// CumulativeGB only grows within a period, except at Reset.
	CumulativeGB float64
	// Sent marks thresholds already notified this period.
	Sent map[Threshold]bool
	// LastResetDay is the day of month of the last reset, 0 if never.
	LastResetDay int
	// LastReportDate is the date of the last periodic report.
	LastReportDate Date
}

// NewRecord creates an empty record with every threshold unsent.
func NewRecord(thresholds []Threshold) *Record {
	r := &Record{}
	r.resetSent(thresholds)
	return r
}

// Reset zeroes usage and threshold flags and marks day as the reset day.
func (r *Record) Reset(day int, thresholds []Threshold) {
	r.CumulativeGB = 0
	r.resetSent(thresholds)
	r.LastResetDay = day
	r.LastReportDate = ""
}

// EnsureThresholds adds unsent entries for thresholds missing from the record.
func (r *Record) EnsureThresholds(thresholds []Threshold) {
	if r.Sent == nil {
		r.Sent = make(map[Threshold]bool, len(thresholds))
	}
	for _, t := range thresholds {
		if _, ok := r.Sent[t]; !ok {
			r.Sent[t] = false
		}
	}
}

// MarkSent records a threshold notification. Flags never revert except at Reset.
func (r *Record) MarkSent(t Threshold) {
	if r.Sent == nil {
		r.Sent = make(map[Threshold]bool)
	}
	r.Sent[t] = true
}

// IsSent reports whether the threshold was already notified.
func (r *Record) IsSent(t Threshold) bool { return r.Sent[t] }

func (r *Record) resetSent(thresholds []Threshold) {
	r.Sent = make(map[Threshold]bool, len(thresholds))
	for _, t := range thresholds {
		r.Sent[t] = false
	}
}

// recordJSON is the on-disk layout. Field names match existing data files.
type recordJSON struct {
	CumulativeTrafficGB float64         `json:"cumulative_traffic_gb"`
	SentThresholds      map[string]bool `json:"sent_thresholds"`
	LastResetDay        int             `json:"last_reset_day"`
	LastReportDate      *string         `json:"last_report_date"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		CumulativeTrafficGB: r.CumulativeGB,
		SentThresholds:      make(map[string]bool, len(r.Sent)),
		LastResetDay:        r.LastResetDay,
	}
	for t, sent := range r.Sent {
		out.SentThresholds[t.Key()] = sent
	}
	if !r.LastReportDate.IsZero() {
		d := string(r.LastReportDate)
		out.LastReportDate = &d
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Threshold keys are normalized,
// so "0.8" and "0.80" map to the same threshold.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode period record: %w", err)
	}
	if in.CumulativeTrafficGB < 0 {
		return fmt.Errorf("decode period record: negative usage %v", in.CumulativeTrafficGB)
	}
	r.CumulativeGB = in.CumulativeTrafficGB
	r.LastResetDay = in.LastResetDay
	r.LastReportDate = ""
	if in.LastReportDate != nil {
		r.LastReportDate = Date(*in.LastReportDate)
	}
	r.Sent = make(map[Threshold]bool, len(in.SentThresholds))
	for k, sent := range in.SentThresholds {
		t, err := ParseThresholdKey(k)
		if err != nil {
			continue
		}
		r.Sent[t] = r.Sent[t] || sent
	}
	return nil
}
