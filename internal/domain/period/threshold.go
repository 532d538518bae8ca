package period

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Threshold is a fraction of the quota in basis points (8000 = 80%).
// Integer keys avoid float formatting drift between config and document.
type Threshold uint32

// DefaultThresholds are 80%, 90% and 95%.
var DefaultThresholds = []Threshold{8000, 9000, 9500}

// FromFraction converts a quota fraction (0.8) to a Threshold.
func FromFraction(f float64) Threshold {
	return Threshold(math.Round(f * 10000))
}

// ParsePercent parses a percentage such as "80" or "92.5". Thresholds have
// a resolution of 0.01%; finer values such as "33.333" are rejected rather
// than rounded, so a threshold never fires before its configured point.
func ParsePercent(s string) (Threshold, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid threshold %q: must be a positive percentage", s)
	}
	bp := v * 100
	if math.Abs(bp-math.Round(bp)) > 1e-6 {
		return 0, fmt.Errorf("invalid threshold %q: finer than 0.01%%", s)
	}
	t := FromFraction(v / 100)
	if t == 0 {
		return 0, fmt.Errorf("invalid threshold %q: below 0.01%%", s)
	}
	return t, nil
}

// ParseThresholds parses a comma-separated percentage list into ascending,
// de-duplicated thresholds. Invalid entries are skipped and reported.
func ParseThresholds(csv string) ([]Threshold, []error) {
	var errs []error
	seen := make(map[Threshold]struct{})
	var out []Threshold
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParsePercent(part)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	SortThresholds(out)
	return out, errs
}

// ParseThresholdKey parses a document key written as a fraction ("0.8").
func ParseThresholdKey(s string) (Threshold, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid threshold key %q", s)
	}
	return FromFraction(v), nil
}

// SortThresholds sorts thresholds ascending in place.
func SortThresholds(ts []Threshold) {
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
}

// Fraction returns the threshold as a quota fraction.
func (t Threshold) Fraction() float64 { return float64(t) / 10000 }

// Key returns the document key, the shortest decimal form of the fraction.
func (t Threshold) Key() string { return strconv.FormatFloat(t.Fraction(), 'f', -1, 64) }

// Label returns the percentage without trailing zeros ("80", "92.5").
func (t Threshold) Label() string { return strconv.FormatFloat(float64(t)/100, 'f', -1, 64) }

// Reached reports whether usageGB has reached this fraction of quotaGB.
func (t Threshold) Reached(usageGB, quotaGB float64) bool {
	return usageGB >= quotaGB*t.Fraction()
}
