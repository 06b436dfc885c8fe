package persistence

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"canvas-backend/application/ports"
	"canvas-backend/infrastructure/config"
	"canvas-backend/infrastructure/persistence/dynamodb"
	"canvas-backend/infrastructure/persistence/memory"
	"canvas-backend/infrastructure/persistence/sqlite"
)

// NewStore builds the key/value store named by cfg.StoreBackend, wrapped in a
// circuit breaker. The cleanup func releases the backend.
func NewStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.KeyValueStore, func(), error) {
	var (
		store   ports.KeyValueStore
		cleanup = func() {}
	)

	switch cfg.StoreBackend {
	case config.StoreMemory:
		store = memory.NewKeyValueStore()

	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, cfg.CanvasID)
		if err != nil {
			return nil, nil, err
		}
		store = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}

	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		store = dynamodb.NewKeyValueStore(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, cfg.CanvasID, logger)

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	logger.Info("Canvas store ready",
		zap.String("backend", cfg.StoreBackend),
		zap.String("canvasID", cfg.CanvasID),
	)

	wrapped := NewBreakerStore(store, BreakerConfig{
		Name:        "canvas-store-" + cfg.StoreBackend,
		MaxFailures: uint32(cfg.BreakerMaxFailures),
		Timeout:     cfg.BreakerTimeout,
	}, logger)
	return wrapped, cleanup, nil
}
