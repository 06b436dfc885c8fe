package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"canvas-backend/application/ports"
)

// Storage keys for the two persisted collections.
const (
	KeyEntities    = "diagram-entities"
	KeyConnections = "diagram-connections"
)

// Storage is the tolerant boundary around a KeyValueStore: values are JSON
// encoded, and no failure ever reaches the caller. Failed saves are logged and
// the in-memory state stays authoritative; failed loads fall back to a default.
type Storage struct {
	kv      ports.KeyValueStore
	logger  *zap.Logger
	metrics ports.MetricsRecorder
}

// NewStorage wraps kv.
func NewStorage(kv ports.KeyValueStore, logger *zap.Logger, metrics ports.MetricsRecorder) *Storage {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Storage{kv: kv, logger: logger, metrics: metrics}
}

// Save encodes value and writes it under key. It reports whether the write
// succeeded.
func (s *Storage) Save(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Failed to encode value for storage", zap.String("key", key), zap.Error(err))
		s.metrics.RecordStorageError("encode")
		return false
	}
	if err := s.kv.Put(ctx, key, data); err != nil {
		s.logger.Error("Failed to save to storage", zap.String("key", key), zap.Error(err))
		s.metrics.RecordStorageError("put")
		return false
	}
	return true
}

// LoadValue reads and decodes the value under key. A missing key silently
// yields def; an unreadable or corrupt value is logged and also yields def.
func LoadValue[T any](ctx context.Context, s *Storage, key string, def T) T {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrKeyNotFound) {
			s.logger.Error("Failed to load from storage", zap.String("key", key), zap.Error(err))
			s.metrics.RecordStorageError("get")
		}
		return def
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("Discarding corrupt stored value", zap.String("key", key), zap.Error(err))
		s.metrics.RecordStorageError("decode")
		return def
	}
	return out
}
