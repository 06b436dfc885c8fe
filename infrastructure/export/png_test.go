package export

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvas-backend/application/render"
	"canvas-backend/domain/geometry"
)

func sampleScene() render.Snapshot {
	return render.Snapshot{
		Entities: []render.EntityNode{
			{
				ID:     "entity-1",
				Bounds: geometry.Rect{X: 100, Y: 50, Width: 120, Height: 60},
				Tags: []render.TagBadge{
					{Label: "work", Bounds: geometry.Rect{X: 100, Y: 114, Width: 38, Height: 14}},
				},
			},
			{
				ID:     "entity-2",
				Bounds: geometry.Rect{X: 400, Y: 50, Width: 120, Height: 60},
				Dashed: true,
			},
		},
		Edges: []render.Edge{
			{ID: "conn-1", X1: 220, Y1: 80, X2: 400, Y2: 80, Dashed: true, DeleteAt: geometry.Point{X: 310, Y: 80}, DeleteRadius: 8},
		},
	}
}

func TestBounds(t *testing.T) {
	box, ok := Bounds(sampleScene())
	require.True(t, ok)
	assert.Equal(t, geometry.Rect{X: 100, Y: 50, Width: 420, Height: 78}, box)

	_, ok = Bounds(render.Snapshot{})
	assert.False(t, ok)
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	require.NoError(t, WritePNG(&buf, sampleScene(), opts))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 420+48, img.Bounds().Dx())
	assert.Equal(t, 78+48, img.Bounds().Dy())
}

func TestWritePNGEmptyScene(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, render.Snapshot{}, DefaultOptions()))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 160+48, img.Bounds().Dx())
}

func TestWritePNGTooLarge(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSide = 100
	assert.Error(t, WritePNG(&bytes.Buffer{}, sampleScene(), opts))
}
