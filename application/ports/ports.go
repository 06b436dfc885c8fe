package ports

import (
	"context"

	apperrors "canvas-backend/pkg/errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when the key was never written.
var ErrKeyNotFound = apperrors.NewNotFoundError("storage key").WithCode("KEY_NOT_FOUND")

// KeyValueStore persists opaque values under string keys. It is the only
// storage collaborator the canvas needs; the graph lives under two keys.
type KeyValueStore interface {
	// Get returns the stored bytes or an error matching ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}

// MetricsRecorder receives counters from the canvas engine.
type MetricsRecorder interface {
	RecordMutation(operation string)
	RecordRejected(operation, reason string)
	RecordRepair(orphaned, duplicates, selfLoops int)
	RecordStorageError(operation string)
	RecordPointerEvent(kind string)
	RecordTransition(from, to string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordMutation(string)           {}
func (NopMetrics) RecordRejected(string, string)   {}
func (NopMetrics) RecordRepair(int, int, int)      {}
func (NopMetrics) RecordStorageError(string)       {}
func (NopMetrics) RecordPointerEvent(string)       {}
func (NopMetrics) RecordTransition(string, string) {}
