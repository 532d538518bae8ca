package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv overlays the well-known environment variables on top of c.
// Unparseable numbers are ignored with a warning.
func (c *Config) applyEnv() []string {
	var warnings []string

	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Telegram.APIURL, "TELEGRAM_API_URL")
	setString(&c.Monitor.Direction, "TRAFFIC_DIRECTION")
	setString(&c.Monitor.Interface, "NETWORK_INTERFACE")
	setString(&c.Monitor.Source, "COUNTER_SOURCE")
	setString(&c.Monitor.SysfsRoot, "SYSFS_ROOT")
	setString(&c.Quota.ThresholdsRaw, "THRESHOLDS")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.Path, "TRAFFIC_DATA_FILE")
	setString(&c.Storage.Key, "STORAGE_KEY")
	setString(&c.Database.Username, "REDIS_USERNAME")
	setString(&c.Database.Password, "REDIS_PASSWORD")
	setString(&c.Host.HostnameFile, "HOST_HOSTNAME_FILE")
	setString(&c.Host.PublicIPURL, "PUBLIC_IP_URL")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.File, "LOG_FILE")

	if v := os.Getenv("REDIS_ADDRS"); v != "" {
		c.Database.Addrs = splitList(v)
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		c.Auth.APIKeys = splitList(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RESET_DAY", &c.Quota.ResetDay},
		{"CHECK_INTERVAL_SECONDS", &c.Monitor.CheckIntervalSec},
		{"REPORT_INTERVAL_DAYS", &c.Quota.ReportIntervalDays},
		{"NOTIFY_TIMEOUT_SECONDS", &c.Telegram.TimeoutSec},
		{"HTTP_PORT", &c.HTTP.Port},
		{"REDIS_DB", &c.Database.DB},
	}
	for _, v := range ints {
		if err := setInt(v.dst, v.key); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if err := setFloat(&c.Quota.MonthlyGB, "MONTHLY_TRAFFIC_GB"); err != nil {
		warnings = append(warnings, err.Error())
	}

	return warnings
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s=%q is not an integer, ignoring", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s=%q is not a number, ignoring", key, v)
	}
	*dst = f
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
