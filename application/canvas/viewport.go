package canvas

import (
	"canvas-backend/domain/geometry"
)

// Viewport describes where the canvas sits on the host page.
type Viewport struct {
	// CanvasOffset is the canvas element's top-left corner in page coordinates.
	CanvasOffset geometry.Point `json:"canvas_offset"`
	// Scroll is the current scroll position of the canvas container.
	Scroll geometry.Point `json:"scroll"`
	// Width and Height are the visible viewport size.
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
	// CanvasWidth bounds horizontal drags. Zero keeps the configured width.
	CanvasWidth float64 `json:"canvas_width" validate:"gte=0"`
}

// ToCanvas converts page coordinates to canvas-local ones by subtracting
// the canvas offset and the scroll position.
func (v Viewport) ToCanvas(page geometry.Point) geometry.Point {
	return geometry.Point{
		X: page.X - v.CanvasOffset.X - v.Scroll.X,
		Y: page.Y - v.CanvasOffset.Y - v.Scroll.Y,
	}
}

// VisualCenter returns the middle of the visible viewport in page
// coordinates: the scroll position plus half the viewport size.
func (v Viewport) VisualCenter() geometry.Point {
	return geometry.Point{X: v.Scroll.X + v.Width/2, Y: v.Scroll.Y + v.Height/2}
}
