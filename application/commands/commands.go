// Package commands holds the validated requests a host can send to a canvas
// session, and the handlers that run them.
package commands

import (
	"canvas-backend/application/canvas"
	"canvas-backend/application/render"
	"canvas-backend/domain/geometry"
	"canvas-backend/pkg/utils"

	apperrors "canvas-backend/pkg/errors"
)

// Host command names. These are the only creation commands the host exposes.
const (
	HostCreateEntity       = "create-entity"
	HostCreateDashedEntity = "create-dashed-entity"
)

// HostCommand is a creation command from the host menu or keyboard. X and Y
// are optional page coordinates; both or neither must be set.
type HostCommand struct {
	Name string   `json:"name" validate:"required,oneof=create-entity create-dashed-entity"`
	X    *float64 `json:"x,omitempty" validate:"omitempty,finite"`
	Y    *float64 `json:"y,omitempty" validate:"omitempty,finite"`
}

func (c HostCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	return validatePair(c.X, c.Y)
}

// Dashed reports whether the command creates a dashed block.
func (c HostCommand) Dashed() bool {
	return c.Name == HostCreateDashedEntity
}

// Entity converts the host command to the equivalent CreateEntityCommand.
func (c HostCommand) Entity() CreateEntityCommand {
	return CreateEntityCommand{Dashed: c.Dashed(), X: c.X, Y: c.Y}
}

// CreateEntityCommand creates a block at an optional page point.
type CreateEntityCommand struct {
	Dashed bool     `json:"dashed"`
	X      *float64 `json:"x,omitempty" validate:"omitempty,finite"`
	Y      *float64 `json:"y,omitempty" validate:"omitempty,finite"`
}

func (c CreateEntityCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	return validatePair(c.X, c.Y)
}

func validatePair(x, y *float64) error {
	if (x == nil) != (y == nil) {
		return apperrors.NewValidationError("x and y must be given together").WithCode("PARTIAL_POINT")
	}
	return nil
}

// At returns the requested page point, or nil for the viewport center.
func (c CreateEntityCommand) At() *geometry.Point {
	if c.X == nil || c.Y == nil {
		return nil
	}
	return &geometry.Point{X: *c.X, Y: *c.Y}
}

type UpdateEntityContentCommand struct {
	EntityID string `json:"entity_id" validate:"required"`
	Content  string `json:"content"`
}

func (c UpdateEntityContentCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// MoveEntityCommand sets a block's top-left corner in canvas coordinates.
type MoveEntityCommand struct {
	EntityID string  `json:"entity_id" validate:"required"`
	X        float64 `json:"x" validate:"finite"`
	Y        float64 `json:"y" validate:"finite"`
}

func (c MoveEntityCommand) Validate() error {
	return utils.ValidateStruct(c)
}

type SetEntitySizeCommand struct {
	EntityID string  `json:"entity_id" validate:"required"`
	Width    float64 `json:"width" validate:"finite,gt=0"`
	Height   float64 `json:"height" validate:"finite,gt=0"`
}

func (c SetEntitySizeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

type DeleteEntityCommand struct {
	EntityID string `json:"entity_id" validate:"required"`
}

func (c DeleteEntityCommand) Validate() error {
	return utils.ValidateStruct(c)
}

type CreateConnectionCommand struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required,nefield=Source"`
}

func (c CreateConnectionCommand) Validate() error {
	return utils.ValidateStruct(c)
}

type DeleteConnectionCommand struct {
	ConnectionID string `json:"connection_id" validate:"required"`
}

func (c DeleteConnectionCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// PointerCommand forwards one pointer event in page coordinates. Target is
// the element the host already resolved, if any.
type PointerCommand struct {
	Kind   string         `json:"kind" validate:"required,oneof=down move up cancel"`
	X      float64        `json:"x" validate:"finite"`
	Y      float64        `json:"y" validate:"finite"`
	Target *render.Target `json:"target,omitempty"`
}

func (c PointerCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if c.Target != nil && c.Target.Part.OnEntity() && c.Target.EntityID == "" {
		return apperrors.NewValidationError("target entity_id is required").WithCode("INVALID_TARGET")
	}
	return nil
}

type SetViewportCommand struct {
	Viewport canvas.Viewport `json:"viewport"`
}

func (c SetViewportCommand) Validate() error {
	if !c.Viewport.CanvasOffset.IsFinite() || !c.Viewport.Scroll.IsFinite() {
		return apperrors.NewValidationError("viewport coordinates must be finite")
	}
	return utils.ValidateStruct(c)
}

// RepairCommand reloads the stored graph and repairs it.
type RepairCommand struct{}

func (RepairCommand) Validate() error { return nil }
