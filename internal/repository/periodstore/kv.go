package periodstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/db"
	"github.com/kailas-cloud/trafficwatch/internal/domain"
	"github.com/kailas-cloud/trafficwatch/internal/domain/period"
)

// kvStore is the consumer interface for KV-backed storage (ISP).
type kvStore interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KVStore keeps the whole period document under a single key.
type KVStore struct {
	store  kvStore
	key    string
	logger *zap.Logger
}

// NewKV creates a KV-backed period store.
func NewKV(s kvStore, key string, logger *zap.Logger) *KVStore {
	return &KVStore{store: s, key: key, logger: logger}
}

// Load reads the document. A missing key yields an empty document.
func (s *KVStore) Load(ctx context.Context) (period.Document, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return period.Document{}, nil
		}
		return nil, fmt.Errorf("load %s: %w: %w", s.key, domain.ErrStoreUnavailable, err)
	}
	return decode(data, s.key, s.logger), nil
}

// Save overwrites the document key.
func (s *KVStore) Save(ctx context.Context, doc period.Document) error {
	data, err := period.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode period document: %w", err)
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("save %s: %w: %w", s.key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks the backend.
func (s *KVStore) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close is a no-op; the backend client is owned by the caller.
func (s *KVStore) Close() error { return nil }
