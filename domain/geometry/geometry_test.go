package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func block(x, y float64) Rect { return Rect{X: x, Y: y, Width: 120, Height: 60} }

func TestIntersectEdge(t *testing.T) {
	r := block(100, 100) // center (160,130), half 60x30
	c := r.Center()

	tests := []struct {
		name   string
		target Point
		side   Side
		want   Point
	}{
		{"directly right", Point{X: 500, Y: 130}, SideRight, Point{X: 220, Y: 130}},
		{"directly left", Point{X: -50, Y: 130}, SideLeft, Point{X: 100, Y: 130}},
		{"directly below", Point{X: 160, Y: 400}, SideBottom, Point{X: 160, Y: 160}},
		{"directly above", Point{X: 160, Y: 0}, SideTop, Point{X: 160, Y: 100}},
		{"shallow right-down", Point{X: 280, Y: 160}, SideRight, Point{X: 220, Y: 145}},
		{"steep up-left", Point{X: 150, Y: 30}, SideTop, Point{X: 157, Y: 100}},
		{"corner diagonal goes to top/bottom", Point{X: 220, Y: 160}, SideBottom, Point{X: 220, Y: 160}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntersectEdge(r, c, tt.target)
			assert.Equal(t, tt.side, got.Side)
			assert.InDelta(t, tt.want.X, got.Point.X, eps)
			assert.InDelta(t, tt.want.Y, got.Point.Y, eps)
		})
	}
}

func TestIntersectEdgeStaysOnBoundary(t *testing.T) {
	r := Rect{X: -40, Y: 25, Width: 90, Height: 200}
	c := r.Center()

	for deg := 0; deg < 360; deg += 7 {
		target := Point{X: c.X + 1000*cosDeg(deg), Y: c.Y + 1000*sinDeg(deg)}
		got := IntersectEdge(r, c, target)

		switch got.Side {
		case SideLeft:
			assert.InDelta(t, r.X, got.Point.X, 1e-6)
		case SideRight:
			assert.InDelta(t, r.Right(), got.Point.X, 1e-6)
		case SideTop:
			assert.InDelta(t, r.Y, got.Point.Y, 1e-6)
		case SideBottom:
			assert.InDelta(t, r.Bottom(), got.Point.Y, 1e-6)
		}
		assert.True(t, got.Point.X >= r.X-1e-6 && got.Point.X <= r.Right()+1e-6, "deg %d x out of bounds", deg)
		assert.True(t, got.Point.Y >= r.Y-1e-6 && got.Point.Y <= r.Bottom()+1e-6, "deg %d y out of bounds", deg)
	}
}

func TestIntersectEdgeZeroRay(t *testing.T) {
	r := block(0, 0)
	c := r.Center()
	require.True(t, IsZeroRay(c, c))

	got := IntersectEdge(r, c, c)
	assert.Equal(t, SideRight, got.Side)
	assert.Equal(t, Point{X: 120, Y: 30}, got.Point)
	assert.True(t, got.Point.IsFinite())
}

func TestAnchorsBetweenTwoBlocks(t *testing.T) {
	a := block(100, 100)
	b := block(400, 100)

	start := IntersectEdge(a, a.Center(), b.Center())
	end := IntersectEdge(b, b.Center(), a.Center())

	assert.Equal(t, SideRight, start.Side)
	assert.Equal(t, SideLeft, end.Side)
	assert.InDelta(t, 220, start.Point.X, eps)
	assert.InDelta(t, 400, end.Point.X, eps)
	assert.InDelta(t, 130, start.Point.Y, eps)
	assert.InDelta(t, 130, end.Point.Y, eps)
}

func TestEdgePosition(t *testing.T) {
	r := block(100, 100)

	tests := []struct {
		name  string
		point Point
		side  Side
		want  float64
	}{
		{"top middle", Point{X: 160, Y: 100}, SideTop, 0.5},
		{"bottom left corner", Point{X: 100, Y: 160}, SideBottom, 0},
		{"right quarter", Point{X: 220, Y: 115}, SideRight, 0.25},
		{"left clamps low", Point{X: 100, Y: 20}, SideLeft, 0},
		{"top clamps high", Point{X: 900, Y: 100}, SideTop, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EdgePosition(tt.point, tt.side, r), eps)
		})
	}

	assert.Equal(t, 0.5, EdgePosition(Point{}, SideTop, Rect{}))
}

func TestPointOnSideInvertsEdgePosition(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 80, Height: 40}
	for _, side := range Sides {
		for _, off := range []float64{0, 0.3, 1} {
			p := PointOnSide(side, off, r)
			assert.InDelta(t, off, EdgePosition(p, side, r), eps, "side %s", side)
		}
	}
}

func TestDistanceToSegment(t *testing.T) {
	a, b := Point{X: 0, Y: 0}, Point{X: 10, Y: 0}
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 5, Y: 5}, a, b), eps)
	assert.InDelta(t, 5, DistanceToSegment(Point{X: -3, Y: 4}, a, b), eps)
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 3, Y: 4}, a, a), eps)
	assert.Equal(t, Point{X: 5, Y: 0}, Midpoint(a, b))
}

func TestRect(t *testing.T) {
	r := block(10, 10)
	assert.True(t, r.Contains(Point{X: 10, Y: 10}))
	assert.True(t, r.Contains(Point{X: 130, Y: 70}))
	assert.False(t, r.Contains(Point{X: 131, Y: 70}))

	in := r.Inset(16, 6, 6, 6)
	assert.Equal(t, Rect{X: 16, Y: 26, Width: 108, Height: 38}, in)
	assert.Equal(t, Rect{X: 15, Y: 15}, Rect{X: 10, Y: 10, Width: 2, Height: 2}.Inset(5, 5, 5, 5))
}

func TestSideText(t *testing.T) {
	for _, s := range Sides {
		b, err := json.Marshal(s)
		require.NoError(t, err)
		var back Side
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, s, back)
	}
	_, err := ParseSide("north")
	assert.Error(t, err)
	assert.Equal(t, "Side(9)", Side(9).String())
}
