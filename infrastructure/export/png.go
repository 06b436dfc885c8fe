// Package export rasterizes a canvas scene to PNG.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"

	"canvas-backend/application/render"
	"canvas-backend/domain/geometry"
	"canvas-backend/domain/services"
)

// Options controls PNG output.
type Options struct {
	// Margin is added around the scene's bounding box.
	Margin float64
	// MaxSide caps either image dimension.
	MaxSide int
	// FontPath is a TrueType font for block content and tag labels. Text is
	// skipped when empty.
	FontPath string
	FontSize float64
}

// DefaultOptions returns the options used by the HTTP endpoint and the CLI.
func DefaultOptions() Options {
	return Options{Margin: 24, MaxSide: 8192, FontSize: 11}
}

// Palette colors, as hex strings understood by gg.
const (
	colorBackground = "#FAFAF7"
	colorBlock      = "#FFFFFF"
	colorBorder     = "#3C4048"
	colorEdge       = "#6B7280"
	colorControl    = "#E5484D"
	colorHandle     = "#3E63DD"
	colorBadge      = "#E0E7FF"
	colorFocus      = "#F5A524"
	colorText       = "#1F2328"
)

// Bounds returns the box that encloses every block, badge and edge in snap.
// ok is false for an empty scene.
func Bounds(snap render.Snapshot) (geometry.Rect, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	include := func(r geometry.Rect) {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}

	for _, n := range snap.Entities {
		include(n.Bounds)
		for _, b := range n.Tags {
			include(b.Bounds)
		}
	}
	for i := range snap.Edges {
		e := &snap.Edges[i]
		include(geometry.Rect{X: math.Min(e.X1, e.X2), Y: math.Min(e.Y1, e.Y2), Width: math.Abs(e.X2 - e.X1), Height: math.Abs(e.Y2 - e.Y1)})
	}
	if math.IsInf(minX, 1) {
		return geometry.Rect{}, false
	}
	return geometry.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// WritePNG draws snap and encodes it to w.
func WritePNG(w io.Writer, snap render.Snapshot, opts Options) error {
	dc, err := Draw(snap, opts)
	if err != nil {
		return err
	}
	defer dc.Close()

	if err := dc.FlushGPU(); err != nil {
		return fmt.Errorf("flush canvas: %w", err)
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Draw paints snap onto a new context sized to fit it.
func Draw(snap render.Snapshot, opts Options) (*gg.Context, error) {
	box, ok := Bounds(snap)
	if !ok {
		box = geometry.Rect{Width: 160, Height: 90}
	}
	width := int(math.Ceil(box.Width + 2*opts.Margin))
	height := int(math.Ceil(box.Height + 2*opts.Margin))
	if opts.MaxSide > 0 && (width > opts.MaxSide || height > opts.MaxSide) {
		return nil, fmt.Errorf("scene of %dx%d exceeds the %d pixel limit", width, height, opts.MaxSide)
	}

	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.Hex(colorBackground))
	if opts.FontPath != "" {
		if err := dc.LoadFontFace(opts.FontPath, opts.FontSize); err != nil {
			dc.Close()
			return nil, fmt.Errorf("load font: %w", err)
		}
	}

	dc.Push()
	dc.Translate(opts.Margin-box.X, opts.Margin-box.Y)
	p := painter{dc: dc}
	for i := range snap.Edges {
		p.edge(&snap.Edges[i])
	}
	for i := range snap.Entities {
		p.entity(&snap.Entities[i])
	}
	for _, ind := range snap.Indicators {
		p.indicator(ind, colorEdge)
	}
	if snap.Candidate != nil {
		p.indicator(*snap.Candidate, colorHandle)
	}
	if snap.DragLine != nil {
		p.line(snap.DragLine.From, snap.DragLine.To, colorHandle, true)
	}
	dc.Pop()

	if p.err != nil {
		dc.Close()
		return nil, p.err
	}
	return dc, nil
}

var plain = services.NewDefaultTagExtractor(0)

// painter keeps the first draw error so callers check once.
type painter struct {
	dc  *gg.Context
	err error
}

func (p *painter) check(err error) {
	if p.err == nil && err != nil {
		p.err = fmt.Errorf("draw: %w", err)
	}
}

func (p *painter) line(from, to geometry.Point, color string, dashed bool) {
	p.dc.SetHexColor(color)
	p.dc.SetLineWidth(2)
	if dashed {
		p.dc.SetDash(6, 4)
	}
	p.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	p.check(p.dc.Stroke())
	p.dc.ClearDash()
}

func (p *painter) edge(e *render.Edge) {
	p.line(e.Start(), e.End(), colorEdge, e.Dashed)
	p.dc.SetHexColor(colorBackground)
	p.dc.DrawCircle(e.DeleteAt.X, e.DeleteAt.Y, e.DeleteRadius)
	p.check(p.dc.FillPreserve())
	p.dc.SetHexColor(colorEdge)
	p.dc.SetLineWidth(1)
	p.check(p.dc.Stroke())
}

func (p *painter) entity(n *render.EntityNode) {
	b := n.Bounds
	p.dc.SetHexColor(colorBlock)
	p.dc.DrawRoundedRectangle(b.X, b.Y, b.Width, b.Height, 4)
	p.check(p.dc.FillPreserve())

	border := colorBorder
	if n.Focused {
		border = colorFocus
	}
	p.dc.SetHexColor(border)
	p.dc.SetLineWidth(1.5)
	if n.Dashed {
		p.dc.SetDash(5, 3)
	}
	p.check(p.dc.Stroke())
	p.dc.ClearDash()

	p.rect(n.DeleteControl, colorControl)
	p.rect(n.ConnectHandle, colorHandle)

	p.dc.SetHexColor(colorText)
	p.dc.DrawString(firstLine(plain.PlainText(n.Content)), n.ContentRegion.X, n.ContentRegion.Y+12)

	for _, badge := range n.Tags {
		p.dc.SetHexColor(colorBadge)
		p.dc.DrawRoundedRectangle(badge.Bounds.X, badge.Bounds.Y, badge.Bounds.Width, badge.Bounds.Height, badge.Bounds.Height/2)
		p.check(p.dc.Fill())
		p.dc.SetHexColor(colorText)
		p.dc.DrawStringAnchored("#"+badge.Label, badge.Bounds.Center().X, badge.Bounds.Center().Y, 0.5, 0.5)
	}
}

func (p *painter) rect(r geometry.Rect, color string) {
	p.dc.SetHexColor(color)
	p.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	p.check(p.dc.Fill())
}

func (p *painter) indicator(ind render.Indicator, color string) {
	p.dc.SetHexColor(color)
	p.dc.DrawCircle(ind.Point.X, ind.Point.Y, 3)
	p.check(p.dc.Fill())
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
