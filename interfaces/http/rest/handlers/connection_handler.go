package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands"
	"canvas-backend/application/commands/bus"
	"canvas-backend/pkg/common"
	apperrors "canvas-backend/pkg/errors"
)

// ConnectionHandler handles connection requests
type ConnectionHandler struct {
	base
	session *canvas.Session
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(commandBus *bus.CommandBus, session *canvas.Session, errs *apperrors.ErrorHandler, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		base:    base{commandBus: commandBus, errors: errs, logger: logger},
		session: session,
	}
}

// ListConnections handles GET /connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.session.Connections(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondWithMeta(w, r, http.StatusOK, conns, &common.MetaInfo{Count: len(conns)})
}

// CreateConnection handles POST /connections
func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateConnectionCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.send(w, r, http.StatusCreated, cmd)
}

// DeleteConnection handles DELETE /connections/{connectionID}
func (h *ConnectionHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusNoContent, commands.DeleteConnectionCommand{
		ConnectionID: chi.URLParam(r, "connectionID"),
	})
}
