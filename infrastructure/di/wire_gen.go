// Injector implementation for wire.go, maintained by hand. Running wire
// regenerates it from the provider set.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"canvas-backend/infrastructure/config"
)

// Injectors from wire.go:

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	collector := ProvideMetrics()
	metricsRecorder := ProvideMetricsRecorder(cfg, collector)
	keyValueStore, cleanup, err := ProvideStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	storage := ProvideStorage(keyValueStore, logger, metricsRecorder)
	session, cleanup2 := ProvideSession(ctx, cfg, storage, logger, metricsRecorder)
	commandBus, err := ProvideCommandBus(cfg, session, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	watcher, cleanup3, err := ProvideWatcher(cfg, session, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	container := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    collector,
		Recorder:   metricsRecorder,
		Store:      keyValueStore,
		Session:    session,
		CommandBus: commandBus,
		Watcher:    watcher,
	}
	return container, func() {
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
