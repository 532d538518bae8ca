package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
)

// Config holds the trafficwatch configuration.
type Config struct {
	Monitor  MonitorConfig  `yaml:"monitor"`
	Quota    QuotaConfig    `yaml:"quota"`
	Telegram TelegramConfig `yaml:"telegram"`
	Host     HostConfig     `yaml:"host"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MonitorConfig selects the interface and how its counters are sampled.
type MonitorConfig struct {
	Interface        string `yaml:"interface"`
	Direction        string `yaml:"direction"` // outbound, bidirectional
	CheckIntervalSec int    `yaml:"check_interval_sec"`
	Source           string `yaml:"source"` // sysfs, psutil
	SysfsRoot        string `yaml:"sysfs_root"`
}

// QuotaConfig holds the monthly quota and notification policy.
type QuotaConfig struct {
	MonthlyGB          float64 `yaml:"monthly_gb"`
	ResetDay           int     `yaml:"reset_day"`
	ThresholdsRaw      string  `yaml:"thresholds"` // comma-separated percentages
	ReportIntervalDays int     `yaml:"report_interval_days"`

	// Thresholds is ThresholdsRaw parsed by Normalize, ascending.
	Thresholds []period.Threshold `yaml:"-"`
}

// TelegramConfig holds the notification endpoint credentials.
type TelegramConfig struct {
	BotToken   string `yaml:"bot_token"`
	ChatID     string `yaml:"chat_id"`
	APIURL     string `yaml:"api_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// HostConfig controls the hostname and public IP lookups used in messages.
type HostConfig struct {
	HostnameFile string `yaml:"hostname_file"`
	PublicIPURL  string `yaml:"public_ip_url"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

// StorageConfig selects where the period document is persisted.
type StorageConfig struct {
	Driver string `yaml:"driver"` // file, redis, valkey
	Path   string `yaml:"path"`
	Key    string `yaml:"key"`
}

// DatabaseConfig holds KV backend connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// HTTPConfig holds status server settings. Port 0 disables the server.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AuthConfig holds status API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Defaults.
const (
	DefaultInterface          = "eth0"
	DefaultMonthlyGB          = 1024
	DefaultResetDay           = 1
	DefaultThresholds         = "80,90,95"
	DefaultCheckIntervalSec   = 1
	DefaultReportIntervalDays = 7
	DefaultDataFile           = "/data/outbound_traffic.json"
	DefaultStorageKey         = "trafficwatch:traffic"
	DefaultLogFile            = "traffic_monitor.log"

	// LogFileDisabled as logging.file turns the rotating file sink off.
	LogFileDisabled = "-"
)

// Load reads configuration for the given environment name.
//
// Sources, lowest precedence first: .env file, optional config/<env>.yaml
// (with ${VAR} expansion), well-known environment variables. Values that are
// present but unusable are corrected and reported as warnings.
func Load(env string) (Config, []string, error) {
	loadDotEnv()

	cfg := Defaults()
	configPath := findConfigPath(env)
	data, err := os.ReadFile(filepath.Clean(configPath))
	switch {
	case err == nil:
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Environment-only deployment.
	default:
		return Config{}, nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	warnings := cfg.applyEnv()
	cfg.ApplyDefaults()
	warnings = append(warnings, cfg.Normalize()...)
	return cfg, warnings, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Defaults returns a Config with the range-checked numeric settings preset,
// so an explicit 0 in YAML or the environment reaches Normalize and is
// reported instead of being mistaken for an unset value.
func Defaults() Config {
	var c Config
	c.Monitor.CheckIntervalSec = DefaultCheckIntervalSec
	c.Quota.MonthlyGB = DefaultMonthlyGB
	c.Quota.ResetDay = DefaultResetDay
	c.Quota.ReportIntervalDays = DefaultReportIntervalDays
	return c
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Monitor.Interface == "" {
		c.Monitor.Interface = DefaultInterface
	}
	if c.Monitor.Direction == "" {
		c.Monitor.Direction = string(traffic.Outbound)
	}
	if c.Monitor.Source == "" {
		c.Monitor.Source = "sysfs"
	}
	if c.Monitor.SysfsRoot == "" {
		c.Monitor.SysfsRoot = "/sys/class/net"
	}
	if strings.TrimSpace(c.Quota.ThresholdsRaw) == "" {
		c.Quota.ThresholdsRaw = DefaultThresholds
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Telegram.TimeoutSec <= 0 {
		c.Telegram.TimeoutSec = 10
	}
	if c.Host.HostnameFile == "" {
		c.Host.HostnameFile = "/etc/host_hostname"
	}
	if c.Host.PublicIPURL == "" {
		c.Host.PublicIPURL = "https://4.ipw.cn"
	}
	if c.Host.TimeoutSec <= 0 {
		c.Host.TimeoutSec = 5
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultDataFile
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultStorageKey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Logging.File == "" {
		c.Logging.File = DefaultLogFile
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 2
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 1
	}
}

// Normalize replaces unusable values with safe defaults and parses the
// threshold list. Each correction is returned as a warning message.
func (c *Config) Normalize() []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if _, err := traffic.ParseDirection(c.Monitor.Direction); err != nil {
		warn("monitor.direction %q is invalid, using %q", c.Monitor.Direction, traffic.Outbound)
		c.Monitor.Direction = string(traffic.Outbound)
	}
	if c.Monitor.CheckIntervalSec < 1 {
		warn("monitor.check_interval_sec %d is invalid, using %d", c.Monitor.CheckIntervalSec, DefaultCheckIntervalSec)
		c.Monitor.CheckIntervalSec = DefaultCheckIntervalSec
	}
	switch c.Monitor.Source {
	case "sysfs", "psutil":
	default:
		warn("monitor.source %q is invalid, using %q", c.Monitor.Source, "sysfs")
		c.Monitor.Source = "sysfs"
	}

	if c.Quota.MonthlyGB <= 0 {
		warn("quota.monthly_gb %v is invalid, using %d", c.Quota.MonthlyGB, DefaultMonthlyGB)
		c.Quota.MonthlyGB = DefaultMonthlyGB
	}
	if c.Quota.ResetDay < 1 || c.Quota.ResetDay > 31 {
		warn("quota.reset_day %d is out of range 1-31, using %d", c.Quota.ResetDay, DefaultResetDay)
		c.Quota.ResetDay = DefaultResetDay
	}
	if c.Quota.ReportIntervalDays < 1 || c.Quota.ReportIntervalDays > 15 {
		warn("quota.report_interval_days %d is out of range 1-15, using %d",
			c.Quota.ReportIntervalDays, DefaultReportIntervalDays)
		c.Quota.ReportIntervalDays = DefaultReportIntervalDays
	}

	thresholds, errs := period.ParseThresholds(c.Quota.ThresholdsRaw)
	for _, err := range errs {
		warn("quota.thresholds: %v", err)
	}
	if len(thresholds) == 0 {
		warn("quota.thresholds %q has no valid entries, using %q", c.Quota.ThresholdsRaw, DefaultThresholds)
		c.Quota.ThresholdsRaw = DefaultThresholds
		thresholds = append([]period.Threshold(nil), period.DefaultThresholds...)
	}
	c.Quota.Thresholds = thresholds

	switch c.Storage.Driver {
	case "file":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			warn("storage.driver %q requires database.addrs, using file storage", c.Storage.Driver)
			c.Storage.Driver = "file"
		}
	default:
		warn("storage.driver %q is invalid, using file storage", c.Storage.Driver)
		c.Storage.Driver = "file"
	}

	if c.Logging.File == LogFileDisabled {
		c.Logging.File = ""
	}

	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		warn("http.port %d is out of range, status server disabled", c.HTTP.Port)
		c.HTTP.Port = 0
	}

	return warnings
}

// loadDotEnv loads the first .env file found. Existing variables win.
func loadDotEnv() {
	for _, path := range []string{".env", "/etc/trafficwatch/.env"} {
		if fileExists(path) {
			_ = godotenv.Load(path)
			return
		}
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}

	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
