package commands

import (
	"context"

	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/commands/bus"
	"canvas-backend/application/interaction"
	"canvas-backend/application/render"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/geometry"
	apperrors "canvas-backend/pkg/errors"
)

// ErrConnectionRejected is returned when the graph refuses a connection:
// a self loop, a pair that is already connected, or an unknown endpoint.
var ErrConnectionRejected = apperrors.NewConflictError("connection rejected").WithCode("CONNECTION_REJECTED")

// Handlers runs canvas commands against one session.
type Handlers struct {
	session *canvas.Session
	logger  *zap.Logger
}

// NewHandlers creates the handler set for session.
func NewHandlers(session *canvas.Session, logger *zap.Logger) *Handlers {
	return &Handlers{session: session, logger: logger}
}

// Register binds every canvas command to its handler on b.
func (h *Handlers) Register(b *bus.CommandBus) error {
	routes := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{HostCommand{}, h.host},
		{CreateEntityCommand{}, h.createEntity},
		{UpdateEntityContentCommand{}, h.updateContent},
		{MoveEntityCommand{}, h.moveEntity},
		{SetEntitySizeCommand{}, h.setEntitySize},
		{DeleteEntityCommand{}, h.deleteEntity},
		{CreateConnectionCommand{}, h.createConnection},
		{DeleteConnectionCommand{}, h.deleteConnection},
		{PointerCommand{}, h.pointer},
		{SetViewportCommand{}, h.setViewport},
		{RepairCommand{}, h.repair},
	}
	for _, r := range routes {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) host(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(HostCommand)
	h.logger.Debug("Host command", zap.String("name", cmd.Name))
	return h.createEntity(ctx, cmd.Entity())
}

func (h *Handlers) createEntity(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(CreateEntityCommand)
	return h.session.CreateEntity(ctx, cmd.Dashed, cmd.At())
}

func (h *Handlers) updateContent(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(UpdateEntityContentCommand)
	id, err := valueobjects.EntityIDFromString(cmd.EntityID)
	if err != nil {
		return nil, err
	}
	ok, err := h.session.UpdateContent(ctx, id, cmd.Content)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entityNotFound(cmd.EntityID)
	}
	return h.entity(ctx, id)
}

func (h *Handlers) moveEntity(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(MoveEntityCommand)
	id, err := valueobjects.EntityIDFromString(cmd.EntityID)
	if err != nil {
		return nil, err
	}
	pos, err := valueobjects.NewPosition(cmd.X, cmd.Y)
	if err != nil {
		return nil, err
	}
	ok, err := h.session.MoveEntity(ctx, id, pos)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entityNotFound(cmd.EntityID)
	}
	return h.entity(ctx, id)
}

func (h *Handlers) setEntitySize(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(SetEntitySizeCommand)
	id, err := valueobjects.EntityIDFromString(cmd.EntityID)
	if err != nil {
		return nil, err
	}
	size := render.Size{Width: cmd.Width, Height: cmd.Height}
	ok, err := h.session.SetEntitySize(ctx, id, size)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entityNotFound(cmd.EntityID)
	}
	return size, nil
}

func (h *Handlers) deleteEntity(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(DeleteEntityCommand)
	id, err := valueobjects.EntityIDFromString(cmd.EntityID)
	if err != nil {
		return nil, err
	}
	ok, err := h.session.DeleteEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entityNotFound(cmd.EntityID)
	}
	return nil, nil
}

func (h *Handlers) createConnection(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(CreateConnectionCommand)
	source, err := valueobjects.EntityIDFromString(cmd.Source)
	if err != nil {
		return nil, err
	}
	target, err := valueobjects.EntityIDFromString(cmd.Target)
	if err != nil {
		return nil, err
	}
	rec, ok, err := h.session.CreateConnection(ctx, source, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConnectionRejected
	}
	return rec, nil
}

func (h *Handlers) deleteConnection(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(DeleteConnectionCommand)
	id, err := valueobjects.ConnectionIDFromString(cmd.ConnectionID)
	if err != nil {
		return nil, err
	}
	ok, err := h.session.DeleteConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewNotFoundError("connection").WithDetails(map[string]interface{}{"id": cmd.ConnectionID})
	}
	return nil, nil
}

func (h *Handlers) pointer(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(PointerCommand)
	kind, err := interaction.ParseEventKind(cmd.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return h.session.Pointer(ctx, kind, geometry.Point{X: cmd.X, Y: cmd.Y}, cmd.Target)
}

func (h *Handlers) setViewport(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd := c.(SetViewportCommand)
	if err := h.session.SetViewport(ctx, cmd.Viewport); err != nil {
		return nil, err
	}
	return h.session.Viewport(ctx)
}

func (h *Handlers) repair(ctx context.Context, _ bus.Command) (interface{}, error) {
	return h.session.Repair(ctx)
}

func (h *Handlers) entity(ctx context.Context, id valueobjects.EntityID) (interface{}, error) {
	view, ok, err := h.session.Entity(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, entityNotFound(id.String())
	}
	return view, nil
}

func entityNotFound(id string) error {
	return apperrors.NewNotFoundError("entity").WithDetails(map[string]interface{}{"id": id})
}
