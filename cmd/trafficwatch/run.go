package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/config"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	logpkg "github.com/kailas-cloud/trafficwatch/internal/logger"
	"github.com/kailas-cloud/trafficwatch/internal/metrics"
	chiTransport "github.com/kailas-cloud/trafficwatch/internal/transport/chi"
	"github.com/kailas-cloud/trafficwatch/internal/transport/hostinfo"
	"github.com/kailas-cloud/trafficwatch/internal/transport/telegram"
	"github.com/kailas-cloud/trafficwatch/internal/usecase/accounting"
	healthuc "github.com/kailas-cloud/trafficwatch/internal/usecase/health"
	"github.com/kailas-cloud/trafficwatch/internal/usecase/scheduler"
	usageuc "github.com/kailas-cloud/trafficwatch/internal/usecase/usage"
	"github.com/kailas-cloud/trafficwatch/internal/version"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the traffic monitor daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

// setup loads configuration and builds the logger. Config warnings are
// logged once the logger exists.
func setup() (config.Config, *zap.Logger, error) {
	env := config.GetEnv()

	cfg, warnings, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, logpkg.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	for _, w := range warnings {
		logger.Warn("Config value corrected", zap.String("detail", w))
	}
	return cfg, logger, nil
}

func runDaemon(parent context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	direction, _ := traffic.ParseDirection(cfg.Monitor.Direction)
	interval := time.Duration(cfg.Monitor.CheckIntervalSec) * time.Second

	logger.Info("Starting trafficwatch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("direction", string(direction)),
		zap.String("source", cfg.Monitor.Source),
		zap.Float64("monthly_gb", cfg.Quota.MonthlyGB),
		zap.Int("reset_day", cfg.Quota.ResetDay),
		zap.String("thresholds", cfg.Quota.ThresholdsRaw),
		zap.Int("report_interval_days", cfg.Quota.ReportIntervalDays),
		zap.Duration("check_interval", interval),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Registered explicitly, no init()
	metrics.RegisterTrafficMetrics()

	store, closeStore, err := openStore(ctx, &cfg, false, logger)
	if err != nil {
		logger.Error("Failed to open period store", zap.Error(err))
		return err
	}
	defer closeStore()

	counters := newCounterSource(&cfg, direction)
	logger.Info("Counter source ready",
		zap.String("source", cfg.Monitor.Source),
		zap.String("interface", counters.Interface()),
	)

	notifier := telegram.NewNotifier(&telegram.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		APIURL:   cfg.Telegram.APIURL,
		Timeout:  time.Duration(cfg.Telegram.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	if !notifier.Enabled() {
		logger.Warn("TELEGRAM_BOT_TOKEN is not set, notifications will only be logged")
	}

	host := hostinfo.New(&hostinfo.Config{
		HostnameFile: cfg.Host.HostnameFile,
		PublicIPURL:  cfg.Host.PublicIPURL,
		Timeout:      time.Duration(cfg.Host.TimeoutSec) * time.Second,
		Logger:       logger,
	}).Resolve(ctx)
	logger.Info("Resolved host", zap.String("hostname", host.Name), zap.String("public_ip", host.PublicIP))

	accountant := accounting.New(store, notifier, accounting.Config{
		QuotaGB:            cfg.Quota.MonthlyGB,
		ResetDay:           cfg.Quota.ResetDay,
		Thresholds:         cfg.Quota.Thresholds,
		ReportIntervalDays: cfg.Quota.ReportIntervalDays,
		Host:               host,
	})

	loop := scheduler.New(counters, accountant, scheduler.Config{
		Interval:  interval,
		Direction: direction,
		Logger:    logger,
	})
	loop.Prime(ctx)
	accountant.NotifyStartup(logpkg.ContextWithLogger(ctx, logger))

	srv := startStatusServer(&cfg, store, counters, loop, logger)

	err = loop.Run(ctx)
	logger.Info("Received shutdown signal")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	}

	logger.Info("Traffic monitor stopped")
	return err
}

// startStatusServer starts the optional status API. Returns nil when
// HTTP_PORT is 0.
func startStatusServer(
	cfg *config.Config,
	store periodStore,
	counters counterSource,
	loop *scheduler.Loop,
	logger *zap.Logger,
) *http.Server {
	if cfg.HTTP.Port == 0 {
		return nil
	}

	usageSvc := usageuc.New(store, usageuc.Config{
		QuotaGB:    cfg.Quota.MonthlyGB,
		ResetDay:   cfg.Quota.ResetDay,
		Thresholds: cfg.Quota.Thresholds,
	}, nil)
	healthSvc := healthuc.New(store, counters, loop, healthuc.Config{Interval: loop.Interval()})
	server := chiTransport.NewServer(usageSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting status server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server error", zap.Error(err))
		}
	}()
	return srv
}
