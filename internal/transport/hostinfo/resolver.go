// Package hostinfo resolves the hostname and public IPv4 shown in notifications.
package hostinfo

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
)

// Config holds lookup settings.
type Config struct {
	HostnameFile string
	PublicIPURL  string
	Timeout      time.Duration
	Fs           afero.Fs // nil means the OS filesystem
	Logger       *zap.Logger
}

// Resolver looks up host attributes. Every failure degrades to domain.Unknown.
type Resolver struct {
	fs           afero.Fs
	hostnameFile string
	ipURL        string
	client       *http.Client
	osHostname   func() (string, error)
	logger       *zap.Logger
}

// New creates a Resolver.
func New(cfg *Config) *Resolver {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fs:           fs,
		hostnameFile: cfg.HostnameFile,
		ipURL:        cfg.PublicIPURL,
		client:       &http.Client{Timeout: timeout},
		osHostname:   os.Hostname,
		logger:       logger,
	}
}

// Resolve returns the hostname and public IP.
func (r *Resolver) Resolve(ctx context.Context) domain.Host {
	return domain.Host{Name: r.Hostname(), PublicIP: r.PublicIP(ctx)}
}

// Hostname reads the host's name from the mounted hostname file, falling
// back to the local hostname.
func (r *Resolver) Hostname() string {
	if r.hostnameFile != "" {
		data, err := afero.ReadFile(r.fs, r.hostnameFile)
		if err == nil {
			if name := strings.TrimSpace(string(data)); name != "" {
				return name
			}
		} else {
			r.logger.Warn("hostname file unavailable", zap.String("path", r.hostnameFile), zap.Error(err))
		}
	}
	if name, err := r.osHostname(); err == nil && name != "" {
		return name
	}
	return domain.Unknown
}

// PublicIP asks the configured echo service for this host's IPv4 address.
func (r *Resolver) PublicIP(ctx context.Context) string {
	ip, err := r.fetchIP(ctx)
	if err != nil {
		r.logger.Warn("public IP lookup failed", zap.String("url", r.ipURL), zap.Error(err))
		return domain.Unknown
	}
	return ip
}

func (r *Resolver) fetchIP(ctx context.Context) (string, error) {
	if r.ipURL == "" {
		return "", fmt.Errorf("public IP URL is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.ipURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("response %q is not an IP address", ip)
	}
	return ip, nil
}
