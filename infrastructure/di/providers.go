package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands"
	"canvas-backend/application/commands/bus"
	"canvas-backend/application/ports"
	"canvas-backend/application/services"
	domainconfig "canvas-backend/domain/config"
	"canvas-backend/infrastructure/config"
	"canvas-backend/infrastructure/observability"
	"canvas-backend/infrastructure/persistence"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("canvas")
}

// ProvideMetricsRecorder hands the collector to the engine, or discards
// engine metrics when they are disabled.
func ProvideMetricsRecorder(cfg *config.Config, collector *observability.Collector) ports.MetricsRecorder {
	if !cfg.EnableMetrics {
		return ports.NopMetrics{}
	}
	return collector
}

// ProvideStore creates the configured key/value store
func ProvideStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.KeyValueStore, func(), error) {
	return persistence.NewStore(ctx, cfg, logger)
}

// ProvideStorage creates the JSON storage boundary over the store
func ProvideStorage(store ports.KeyValueStore, logger *zap.Logger, metrics ports.MetricsRecorder) *services.Storage {
	return services.NewStorage(store, logger, metrics)
}

// ProvideSession opens the canvas session
func ProvideSession(ctx context.Context, cfg *config.Config, storage *services.Storage, logger *zap.Logger, metrics ports.MetricsRecorder) (*canvas.Session, func()) {
	session := canvas.NewSession(ctx, storage, canvas.Options{
		Config:  cfg.Domain,
		Logger:  logger,
		Metrics: metrics,
	})
	return session, session.Close
}

// ProvideCommandBus creates the command bus with every canvas handler registered
func ProvideCommandBus(cfg *config.Config, session *canvas.Session, logger *zap.Logger) (*bus.CommandBus, error) {
	b := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.TimeoutMiddleware(cfg.RequestTimeout),
	)
	if err := commands.NewHandlers(session, logger).Register(b); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return b, nil
}

// ProvideWatcher hot-reloads the canvas tunables file into the session. It
// returns nil when hot reloading is off or no file is configured.
func ProvideWatcher(cfg *config.Config, session *canvas.Session, logger *zap.Logger) (*config.Watcher, func(), error) {
	if !cfg.HotReload || cfg.ConfigFile == "" {
		return nil, func() {}, nil
	}

	base := domainconfig.LoadDomainConfig(cfg.Environment)
	w, err := config.NewWatcher(cfg.ConfigFile, base, cfg.Domain, 0, logger)
	if err != nil {
		return nil, nil, err
	}
	w.OnChange(func(next *domainconfig.DomainConfig) {
		if err := session.ApplyConfig(context.Background(), next); err != nil {
			logger.Error("Failed to apply reloaded configuration", zap.Error(err))
		}
	})
	return w, w.Stop, nil
}
