// Package persistence selects and decorates the key/value store behind a
// canvas session.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"canvas-backend/application/ports"
	apperrors "canvas-backend/pkg/errors"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// BreakerStore guards a key/value store with a circuit breaker. Once the store
// keeps failing, calls fail fast with an unavailable error until Timeout
// passes and a trial request succeeds.
type BreakerStore struct {
	next   ports.KeyValueStore
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerStore wraps next.
func NewBreakerStore(next ports.KeyValueStore, cfg BreakerConfig, logger *zap.Logger) *BreakerStore {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A missing key or a caller giving up says nothing about store health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ports.ErrKeyNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &BreakerStore{next: next, cb: cb, logger: logger}
}

// Get retrieves the value under key
func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Get(ctx, key)
	})
	if err != nil {
		return nil, s.translate(err)
	}
	return v.([]byte), nil
}

// Put stores value under key
func (s *BreakerStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Put(ctx, key, value)
	})
	return s.translate(err)
}

// State returns the breaker state name.
func (s *BreakerStore) State() string {
	return s.cb.State().String()
}

func (s *BreakerStore) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewUnavailableError("canvas store").WithCode("STORE_CIRCUIT_OPEN").WithCause(err)
	}
	return err
}

var _ ports.KeyValueStore = (*BreakerStore)(nil)
