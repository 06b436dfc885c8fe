// Package rest exposes a canvas session over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands/bus"
	"canvas-backend/infrastructure/export"
	"canvas-backend/infrastructure/observability"
	"canvas-backend/interfaces/http/rest/handlers"
	"canvas-backend/interfaces/http/rest/middleware"
	"canvas-backend/pkg/common"
	"canvas-backend/pkg/errors"
)

// Options controls the optional parts of the router.
type Options struct {
	CORSOrigins []string // nil disables CORS
	Export      export.Options
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	session      *canvas.Session
	metrics      *observability.Collector
	logger       *zap.Logger
	errorHandler *errors.ErrorHandler
	opts         Options
}

// NewRouter creates a new router instance. metrics may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	session *canvas.Session,
	metrics *observability.Collector,
	logger *zap.Logger,
	errorHandler *errors.ErrorHandler,
	opts Options,
) *Router {
	return &Router{
		commandBus:   commandBus,
		session:      session,
		metrics:      metrics,
		logger:       logger,
		errorHandler: errorHandler,
		opts:         opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(rt.metrics.Middleware)
	}

	if len(rt.opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Operation-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/entities", func(r chi.Router) {
			entityHandler := handlers.NewEntityHandler(rt.commandBus, rt.session, rt.errorHandler, rt.logger)
			r.Get("/", entityHandler.ListEntities)
			r.Post("/", entityHandler.CreateEntity)
			r.Get("/{entityID}", entityHandler.GetEntity)
			r.Put("/{entityID}/content", entityHandler.UpdateContent)
			r.Put("/{entityID}/position", entityHandler.MoveEntity)
			r.Put("/{entityID}/size", entityHandler.ResizeEntity)
			r.Delete("/{entityID}", entityHandler.DeleteEntity)
		})

		r.Route("/connections", func(r chi.Router) {
			connectionHandler := handlers.NewConnectionHandler(rt.commandBus, rt.session, rt.errorHandler, rt.logger)
			r.Get("/", connectionHandler.ListConnections)
			r.Post("/", connectionHandler.CreateConnection)
			r.Delete("/{connectionID}", connectionHandler.DeleteConnection)
		})

		sceneHandler := handlers.NewSceneHandler(rt.commandBus, rt.session, rt.opts.Export, rt.errorHandler, rt.logger)
		r.Get("/scene", sceneHandler.GetScene)
		r.Get("/snapshot.png", sceneHandler.GetSnapshotPNG)
		r.Post("/commands", sceneHandler.HostCommand)
		r.Post("/pointer", sceneHandler.Pointer)
		r.Get("/viewport", sceneHandler.GetViewport)
		r.Put("/viewport", sceneHandler.SetViewport)
		r.Post("/repair", sceneHandler.Repair)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready once the stored graph satisfies its invariants.
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := rt.session.Validate(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": err.Error(),
		})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
