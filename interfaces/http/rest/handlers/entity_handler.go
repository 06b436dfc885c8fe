package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands"
	"canvas-backend/application/commands/bus"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/pkg/common"
	apperrors "canvas-backend/pkg/errors"
)

// EntityHandler handles block requests
type EntityHandler struct {
	base
	session *canvas.Session
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(commandBus *bus.CommandBus, session *canvas.Session, errs *apperrors.ErrorHandler, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		base:    base{commandBus: commandBus, errors: errs, logger: logger},
		session: session,
	}
}

// UpdateContentRequest represents the request body for editing block content
type UpdateContentRequest struct {
	Content string `json:"content"`
}

// MoveRequest represents the request body for moving a block
type MoveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ResizeRequest carries a host-measured block size
type ResizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ListEntities handles GET /entities
func (h *EntityHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	views, err := h.session.Entities(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondWithMeta(w, r, http.StatusOK, views, &common.MetaInfo{Count: len(views)})
}

// GetEntity handles GET /entities/{entityID}
func (h *EntityHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.EntityIDFromString(chi.URLParam(r, "entityID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	view, ok, err := h.session.Entity(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !ok {
		h.errors.Handle(w, r, apperrors.NewNotFoundError("entity"))
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// CreateEntity handles POST /entities
func (h *EntityHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateEntityCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.send(w, r, http.StatusCreated, cmd)
}

// UpdateContent handles PUT /entities/{entityID}/content
func (h *EntityHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req UpdateContentRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, http.StatusOK, commands.UpdateEntityContentCommand{
		EntityID: chi.URLParam(r, "entityID"),
		Content:  req.Content,
	})
}

// MoveEntity handles PUT /entities/{entityID}/position
func (h *EntityHandler) MoveEntity(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, http.StatusOK, commands.MoveEntityCommand{
		EntityID: chi.URLParam(r, "entityID"),
		X:        req.X,
		Y:        req.Y,
	})
}

// ResizeEntity handles PUT /entities/{entityID}/size
func (h *EntityHandler) ResizeEntity(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, http.StatusOK, commands.SetEntitySizeCommand{
		EntityID: chi.URLParam(r, "entityID"),
		Width:    req.Width,
		Height:   req.Height,
	})
}

// DeleteEntity handles DELETE /entities/{entityID}
func (h *EntityHandler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusNoContent, commands.DeleteEntityCommand{
		EntityID: chi.URLParam(r, "entityID"),
	})
}
