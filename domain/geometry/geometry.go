// Package geometry holds the pure functions that place connection anchors on
// the boundary of rectangular blocks. Nothing here keeps state.
package geometry

import "math"

// Point is a canvas-local coordinate. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Center returns the rectangle's center.
func (r Rect) Center() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }

func (r Rect) HalfWidth() float64  { return r.Width / 2 }
func (r Rect) HalfHeight() float64 { return r.Height / 2 }
func (r Rect) Right() float64      { return r.X + r.Width }
func (r Rect) Bottom() float64     { return r.Y + r.Height }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// MoveTo returns r with its top-left corner at p.
func (r Rect) MoveTo(p Point) Rect {
	r.X, r.Y = p.X, p.Y
	return r
}

// Inset shrinks r by the given margins. Sizes never go negative.
func (r Rect) Inset(top, right, bottom, left float64) Rect {
	out := Rect{X: r.X + left, Y: r.Y + top, Width: r.Width - left - right, Height: r.Height - top - bottom}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// Intersection is where a ray from a block's center leaves the block.
type Intersection struct {
	Point Point `json:"point"`
	Side  Side  `json:"side"`
}

// IsZeroRay reports whether center and target coincide, which leaves the ray
// direction undefined.
func IsZeroRay(center, target Point) bool {
	return center.X == target.X && center.Y == target.Y
}

// IntersectEdge finds where the ray from center toward target exits bounds.
//
// With cos and sin the direction cosines of the ray, the exit is through the
// left or right side when |cos|*halfHeight > |sin|*halfWidth, otherwise
// through the top or bottom. A zero-length ray is treated as pointing right so
// the result stays deterministic; callers should guard with IsZeroRay.
func IntersectEdge(bounds Rect, center, target Point) Intersection {
	dx := target.X - center.X
	dy := target.Y - center.Y
	length := math.Hypot(dx, dy)

	cos, sin := 1.0, 0.0
	if length > 0 {
		cos, sin = dx/length, dy/length
	}

	hw, hh := bounds.HalfWidth(), bounds.HalfHeight()

	if math.Abs(cos)*hh > math.Abs(sin)*hw {
		// Exits through a vertical side.
		side := SideRight
		sx := 1.0
		if cos < 0 {
			side = SideLeft
			sx = -1
		}
		return Intersection{
			Point: Point{X: center.X + sx*hw, Y: center.Y + hw*sin/math.Abs(cos)},
			Side:  side,
		}
	}

	side := SideBottom
	sy := 1.0
	if sin < 0 {
		side = SideTop
		sy = -1
	}
	x := center.X
	if sin != 0 {
		x = center.X + hh*cos/math.Abs(sin)
	}
	return Intersection{
		Point: Point{X: x, Y: center.Y + sy*hh},
		Side:  side,
	}
}

// EdgePosition returns the normalized offset in [0,1] of point along side of
// bounds: left to right for top and bottom, top to bottom for left and right.
func EdgePosition(point Point, side Side, bounds Rect) float64 {
	var offset, extent float64
	switch side {
	case SideTop, SideBottom:
		offset, extent = point.X-bounds.X, bounds.Width
	default:
		offset, extent = point.Y-bounds.Y, bounds.Height
	}
	if extent <= 0 {
		return 0.5
	}
	return clamp01(offset / extent)
}

// PointOnSide is the inverse of EdgePosition.
func PointOnSide(side Side, offset float64, bounds Rect) Point {
	offset = clamp01(offset)
	switch side {
	case SideTop:
		return Point{X: bounds.X + offset*bounds.Width, Y: bounds.Y}
	case SideBottom:
		return Point{X: bounds.X + offset*bounds.Width, Y: bounds.Bottom()}
	case SideLeft:
		return Point{X: bounds.X, Y: bounds.Y + offset*bounds.Height}
	default:
		return Point{X: bounds.Right(), Y: bounds.Y + offset*bounds.Height}
	}
}

// SideLength returns the length of the given side of bounds.
func SideLength(side Side, bounds Rect) float64 {
	if side == SideTop || side == SideBottom {
		return bounds.Width
	}
	return bounds.Height
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// DistanceToSegment returns the shortest distance from p to the segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	lenSq := vx*vx + vy*vy
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*vx + (p.Y-a.Y)*vy) / lenSq
	t = clamp01(t)
	return p.Distance(Point{X: a.X + t*vx, Y: a.Y + t*vy})
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
