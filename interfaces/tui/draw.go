package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"canvas-backend/application/render"
	"canvas-backend/domain/geometry"
	"canvas-backend/domain/services"
)

var (
	blockStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	focusStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	edgeStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	dragStyle    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	controlStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	handleStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	tagStyle     = tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
	statusStyle  = tcell.StyleDefault.Reverse(true)
)

var plain = services.NewDefaultTagExtractor(0)

// Draw paints snap in paint order: edges under blocks, then the drag line.
func (a *App) Draw(snap render.Snapshot) {
	for i := range snap.Edges {
		e := &snap.Edges[i]
		a.line(e.Start(), e.End(), '·', edgeStyle)
		x, y := a.cell(e.DeleteAt)
		a.screen.SetContent(x, y, '⊗', nil, controlStyle)
	}
	for i := range snap.Entities {
		a.block(&snap.Entities[i])
	}
	for _, ind := range snap.Indicators {
		x, y := a.cell(ind.Point)
		a.screen.SetContent(x, y, '•', nil, edgeStyle)
	}
	if snap.DragLine != nil {
		a.line(snap.DragLine.From, snap.DragLine.To, '─', dragStyle)
	}
	if snap.Candidate != nil {
		x, y := a.cell(snap.Candidate.Point)
		a.screen.SetContent(x, y, '◉', nil, dragStyle)
	}
}

func (a *App) block(n *render.EntityNode) {
	style := blockStyle
	if n.Focused {
		style = focusStyle
	}
	x0, y0 := a.cell(n.Bounds.Origin())
	x1, y1 := a.cell(geometry.Point{X: n.Bounds.Right() - 1, Y: n.Bounds.Bottom() - 1})

	horiz, vert := '─', '│'
	if n.Dashed {
		horiz, vert = '╌', '╎'
	}
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			r := ' '
			switch {
			case y == y0 || y == y1:
				r = horiz
			case x == x0 || x == x1:
				r = vert
			}
			a.screen.SetContent(x, y, r, nil, style)
		}
	}
	a.screen.SetContent(x0, y0, '┌', nil, style)
	a.screen.SetContent(x1, y0, '┐', nil, style)
	a.screen.SetContent(x0, y1, '└', nil, style)
	a.screen.SetContent(x1, y1, '┘', nil, style)

	cx, cy := a.cell(n.DeleteControl.Center())
	a.screen.SetContent(cx, cy, '×', nil, controlStyle)
	hx, hy := a.cell(n.ConnectHandle.Center())
	a.screen.SetContent(hx, hy, '+', nil, handleStyle)

	tx, ty := a.cell(n.ContentRegion.Origin())
	if tx <= x0 {
		tx = x0 + 1
	}
	if ty <= y0 {
		ty = y0 + 1
	}
	if ty < y1 {
		text := strings.SplitN(plain.PlainText(n.Content), "\n", 2)[0]
		a.text(tx, ty, x1-tx, text, style)
	}

	if len(n.Tags) > 0 {
		labels := make([]string, len(n.Tags))
		for i, t := range n.Tags {
			labels[i] = "#" + t.Label
		}
		a.text(x0, y1+1, x1-x0+1, strings.Join(labels, " "), tagStyle)
	}
}

// line steps along from-to at half a cell so no cell is skipped.
func (a *App) line(from, to geometry.Point, r rune, style tcell.Style) {
	step := a.opts.CellWidth / 2
	if a.opts.CellHeight/2 < step {
		step = a.opts.CellHeight / 2
	}
	n := int(from.Distance(to)/step) + 1
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		x, y := a.cell(geometry.Point{X: from.X + (to.X-from.X)*t, Y: from.Y + (to.Y-from.Y)*t})
		a.screen.SetContent(x, y, r, nil, style)
	}
}

// text writes s from (x, y), clipped to width columns.
func (a *App) text(x, y, width int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		if i >= width {
			return
		}
		a.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}
