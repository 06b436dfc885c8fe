package handlers

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands"
	"canvas-backend/application/commands/bus"
	"canvas-backend/infrastructure/export"
	"canvas-backend/pkg/common"
	apperrors "canvas-backend/pkg/errors"
)

// SceneHandler serves the render scene and takes the host's input: pointer
// events, host commands and viewport changes.
type SceneHandler struct {
	base
	session *canvas.Session
	export  export.Options
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(commandBus *bus.CommandBus, session *canvas.Session, exportOpts export.Options, errs *apperrors.ErrorHandler, logger *zap.Logger) *SceneHandler {
	return &SceneHandler{
		base:    base{commandBus: commandBus, errors: errs, logger: logger},
		session: session,
		export:  exportOpts,
	}
}

// GetScene handles GET /scene
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Scene(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// GetSnapshotPNG handles GET /snapshot.png
func (h *SceneHandler) GetSnapshotPNG(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Scene(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePNG(&buf, snap, h.export); err != nil {
		h.errors.Handle(w, r, apperrors.NewInternalError("failed to render snapshot").WithCause(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Debug("Snapshot write aborted", zap.Error(err))
	}
}

// HostCommand handles POST /commands
func (h *SceneHandler) HostCommand(w http.ResponseWriter, r *http.Request) {
	var cmd commands.HostCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.send(w, r, http.StatusCreated, cmd)
}

// Pointer handles POST /pointer
func (h *SceneHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	var cmd commands.PointerCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.send(w, r, http.StatusOK, cmd)
}

// GetViewport handles GET /viewport
func (h *SceneHandler) GetViewport(w http.ResponseWriter, r *http.Request) {
	v, err := h.session.Viewport(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, v)
}

// SetViewport handles PUT /viewport
func (h *SceneHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var v canvas.Viewport
	if !h.decode(w, r, &v) {
		return
	}
	h.send(w, r, http.StatusOK, commands.SetViewportCommand{Viewport: v})
}

// Repair handles POST /repair
func (h *SceneHandler) Repair(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.RepairCommand{})
}
