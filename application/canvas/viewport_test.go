package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"canvas-backend/domain/geometry"
)

func TestViewportToCanvas(t *testing.T) {
	tests := []struct {
		name     string
		viewport Viewport
		page     geometry.Point
		want     geometry.Point
	}{
		{
			name: "identity",
			page: geometry.Point{X: 10, Y: 20},
			want: geometry.Point{X: 10, Y: 20},
		},
		{
			name:     "offset and scroll",
			viewport: Viewport{CanvasOffset: geometry.Point{X: 10, Y: 20}, Scroll: geometry.Point{X: 5, Y: 100}},
			page:     geometry.Point{X: 110, Y: 170},
			want:     geometry.Point{X: 95, Y: 50},
		},
		{
			name:     "horizontal scroll",
			viewport: Viewport{CanvasOffset: geometry.Point{X: 10, Y: 10}, Scroll: geometry.Point{X: 100}},
			page:     geometry.Point{X: 300, Y: 50},
			want:     geometry.Point{X: 190, Y: 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.viewport.ToCanvas(tt.page))
		})
	}
}

func TestViewportVisualCenter(t *testing.T) {
	v := Viewport{Width: 800, Height: 600}
	assert.Equal(t, geometry.Point{X: 400, Y: 300}, v.VisualCenter())

	scrolled := Viewport{Width: 800, Height: 600, Scroll: geometry.Point{X: 30, Y: 50}}
	assert.Equal(t, geometry.Point{X: 430, Y: 350}, scrolled.VisualCenter())
	assert.Equal(t, geometry.Point{X: 400, Y: 300}, scrolled.ToCanvas(scrolled.VisualCenter()))
}
