package accounting

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
)

// Notification kinds, used as the "kind" metric label.
const (
	KindStartup   = "startup"
	KindReset     = "reset"
	KindReport    = "report"
	KindThreshold = "threshold"
)

// StartupMessage announces that monitoring has begun.
func StartupMessage(h domain.Host) string {
	return fmt.Sprintf("Traffic monitor started! Host: %s (IP: %s)", h.Name, h.PublicIP)
}

// ResetMessage summarizes the previous period at reset time.
func ResetMessage(h domain.Host, prev period.Key, usedGB, quotaGB float64) string {
	return fmt.Sprintf("Traffic reset, host: %s (IP: %s), %s period used %.2fGB/%sGB, usage %s%%",
		h.Name, h.PublicIP, prev, usedGB, formatGB(quotaGB), formatPercent(usedGB, quotaGB))
}

// ReportMessage is the periodic progress report.
func ReportMessage(h domain.Host, usedGB, quotaGB float64) string {
	return fmt.Sprintf("Periodic report, host: %s (IP: %s), used %.2fGB/%sGB this period, usage %s%%",
		h.Name, h.PublicIP, usedGB, formatGB(quotaGB), formatPercent(usedGB, quotaGB))
}

// ThresholdMessage warns that a quota threshold was reached.
func ThresholdMessage(h domain.Host, t period.Threshold, usedGB, quotaGB float64) string {
	return fmt.Sprintf("Warning! Host: %s (IP: %s) has reached %s%% of this month's traffic (%.2f GB / %s GB).",
		h.Name, h.PublicIP, t.Label(), usedGB, formatGB(quotaGB))
}

// percentOf returns used as a percentage of quota, 0 for a non-positive quota.
func percentOf(usedGB, quotaGB float64) float64 {
	if quotaGB <= 0 {
		return 0
	}
	return usedGB / quotaGB * 100
}

func formatPercent(usedGB, quotaGB float64) string {
	return strconv.FormatFloat(percentOf(usedGB, quotaGB), 'f', 1, 64)
}

func formatGB(gb float64) string {
	return strconv.FormatFloat(gb, 'f', -1, 64)
}
