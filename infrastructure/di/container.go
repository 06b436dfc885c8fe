// Package di wires the canvas service together.
package di

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands/bus"
	"canvas-backend/application/ports"
	"canvas-backend/infrastructure/config"
	"canvas-backend/infrastructure/export"
	"canvas-backend/infrastructure/observability"
	"canvas-backend/interfaces/http/rest"
	apperrors "canvas-backend/pkg/errors"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Recorder   ports.MetricsRecorder
	Store      ports.KeyValueStore
	Session    *canvas.Session
	CommandBus *bus.CommandBus
	Watcher    *config.Watcher
}

// Router builds the HTTP router over the container's session.
func (c *Container) Router() *chi.Mux {
	var origins []string
	if c.Config.EnableCORS {
		origins = c.Config.CORSOrigins
	}
	var metrics *observability.Collector
	if c.Config.EnableMetrics {
		metrics = c.Metrics
	}
	return rest.NewRouter(
		c.CommandBus,
		c.Session,
		metrics,
		c.Logger,
		apperrors.NewErrorHandler(c.Logger, c.Config.IsDevelopment()),
		rest.Options{CORSOrigins: origins, Export: export.DefaultOptions()},
	).Setup()
}
