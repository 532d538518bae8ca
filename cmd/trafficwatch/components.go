package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/config"
	dbRedis "github.com/kailas-cloud/trafficwatch/internal/db/redis"
	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
	"github.com/kailas-cloud/trafficwatch/internal/domain/traffic"
	"github.com/kailas-cloud/trafficwatch/internal/repository/periodstore"
	"github.com/kailas-cloud/trafficwatch/internal/transport/psutil"
	"github.com/kailas-cloud/trafficwatch/internal/transport/sysfs"
)

// periodStore is what the daemon needs from a storage backend.
type periodStore interface {
	Load(ctx context.Context) (period.Document, error)
	Save(ctx context.Context, doc period.Document) error
	Ping(ctx context.Context) error
}

// counterSource reads interface byte counters.
type counterSource interface {
	Read(ctx context.Context) (traffic.Sample, error)
	Interface() string
}

// openStore builds the configured period store. The returned close func
// releases the file lock or the KV connection. readOnly skips the file lock.
func openStore(ctx context.Context, cfg *config.Config, readOnly bool, logger *zap.Logger) (periodStore, func(), error) {
	switch cfg.Storage.Driver {
	case "redis", "valkey":
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s store: %w", cfg.Storage.Driver, err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := kv.WaitForReady(ctx, timeout); err != nil {
			kv.Close()
			return nil, nil, fmt.Errorf("%s not ready: %w", cfg.Storage.Driver, err)
		}
		logger.Info("Connected to database",
			zap.String("driver", cfg.Storage.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
			zap.Int("db", cfg.Database.DB),
			zap.String("key", cfg.Storage.Key),
		)
		return periodstore.NewKV(kv, cfg.Storage.Key, logger), kv.Close, nil
	default:
		if readOnly {
			return periodstore.OpenFileReadOnly(cfg.Storage.Path, logger), func() {}, nil
		}
		fs, err := periodstore.OpenFile(cfg.Storage.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using data file", zap.String("path", fs.Path()))
		return fs, func() {
			if err := fs.Close(); err != nil {
				logger.Warn("Failed to release data file lock", zap.Error(err))
			}
		}, nil
	}
}

// newCounterSource builds the configured counter reader.
func newCounterSource(cfg *config.Config, direction traffic.Direction) counterSource {
	if cfg.Monitor.Source == "psutil" {
		return psutil.New(cfg.Monitor.Interface)
	}
	return sysfs.New(nil, cfg.Monitor.SysfsRoot, cfg.Monitor.Interface, direction)
}
