// Package tui hosts a canvas session in a terminal. One terminal cell stands
// for a fixed block of canvas pixels; mouse input is translated to pointer
// events at the center of the cell.
package tui

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/interaction"
	"canvas-backend/application/render"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/geometry"
)

// Canvas is the part of a session the terminal host drives.
type Canvas interface {
	CreateEntity(ctx context.Context, dashed bool, page *geometry.Point) (canvas.EntityView, error)
	DeleteEntity(ctx context.Context, id valueobjects.EntityID) (bool, error)
	Pointer(ctx context.Context, kind interaction.EventKind, page geometry.Point, target *render.Target) (interaction.Result, error)
	Cancel(ctx context.Context) error
	SetViewport(ctx context.Context, v canvas.Viewport) error
	Scene(ctx context.Context) (render.Snapshot, error)
}

// Options configures the terminal host.
type Options struct {
	CellWidth  float64 // canvas pixels per column
	CellHeight float64 // canvas pixels per row
	// FocusDelay should match the session's; the screen redraws once it
	// has passed so the focus ring shows up.
	FocusDelay time.Duration
}

// DefaultOptions returns a cell size close to a monospace glyph.
func DefaultOptions() Options {
	return Options{CellWidth: 10, CellHeight: 20, FocusDelay: 10 * time.Millisecond}
}

// App is the terminal event loop.
type App struct {
	screen tcell.Screen
	canvas Canvas
	opts   Options
	logger *zap.Logger

	pressed bool
	lastX   int
	lastY   int
	status  string
	phase   interaction.Phase
}

// NewApp creates an App over an initialized screen.
func NewApp(screen tcell.Screen, c Canvas, opts Options, logger *zap.Logger) *App {
	if opts.CellWidth <= 0 || opts.CellHeight <= 0 {
		opts = DefaultOptions()
	}
	return &App{
		screen: screen,
		canvas: c,
		opts:   opts,
		logger: logger,
		status: "n: new  d: dashed  x: delete focused  esc: cancel  q: quit",
	}
}

// Run polls events until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()
	if err := a.resize(ctx); err != nil {
		return err
	}
	a.Redraw(ctx)

	go func() {
		<-ctx.Done()
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		ev := a.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		quit, err := a.Handle(ctx, ev)
		if err != nil {
			a.status = err.Error()
			a.logger.Warn("Canvas event failed", zap.Error(err))
		}
		if quit {
			return nil
		}
		a.Redraw(ctx)
	}
}

// Handle applies one terminal event. It reports true when the user quits.
func (a *App) Handle(ctx context.Context, ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		return false, a.resize(ctx)
	case *tcell.EventKey:
		return a.key(ctx, ev)
	case *tcell.EventMouse:
		return false, a.mouse(ctx, ev)
	}
	return false, nil
}

func (a *App) key(ctx context.Context, ev *tcell.EventKey) (bool, error) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true, nil
	case tcell.KeyEscape:
		a.pressed = false
		return false, a.canvas.Cancel(ctx)
	case tcell.KeyRune:
	default:
		return false, nil
	}

	switch ev.Rune() {
	case 'q':
		return true, nil
	case 'n', 'd':
		at := a.page(a.lastX, a.lastY)
		view, err := a.canvas.CreateEntity(ctx, ev.Rune() == 'd', &at)
		if err != nil {
			return false, err
		}
		a.status = "created " + view.ID
		a.redrawLater()
	case 'x':
		snap, err := a.canvas.Scene(ctx)
		if err != nil || snap.Focus == "" {
			return false, err
		}
		id, err := valueobjects.EntityIDFromString(snap.Focus)
		if err != nil {
			return false, err
		}
		if _, err := a.canvas.DeleteEntity(ctx, id); err != nil {
			return false, err
		}
		a.status = "deleted " + snap.Focus
	}
	return false, nil
}

// mouse turns button transitions into down, move and up events. Moves with
// no button held are ignored.
func (a *App) mouse(ctx context.Context, ev *tcell.EventMouse) error {
	x, y := ev.Position()
	a.lastX, a.lastY = x, y
	down := ev.Buttons()&tcell.Button1 != 0

	var kind interaction.EventKind
	switch {
	case down && !a.pressed:
		kind = interaction.PointerDown
	case down && a.pressed:
		kind = interaction.PointerMove
	case !down && a.pressed:
		kind = interaction.PointerUp
	default:
		return nil
	}
	a.pressed = down

	res, err := a.canvas.Pointer(ctx, kind, a.page(x, y), nil)
	if err != nil {
		return err
	}
	a.phase = res.Phase
	if res.ConnectionID != "" && res.Committed {
		a.status = "connected " + res.ConnectionID
	}
	return nil
}

// page returns the canvas point at the center of a cell.
func (a *App) page(x, y int) geometry.Point {
	return geometry.Point{
		X: (float64(x) + 0.5) * a.opts.CellWidth,
		Y: (float64(y) + 0.5) * a.opts.CellHeight,
	}
}

func (a *App) cell(p geometry.Point) (int, int) {
	return int(math.Floor(p.X / a.opts.CellWidth)), int(math.Floor(p.Y / a.opts.CellHeight))
}

func (a *App) resize(ctx context.Context) error {
	w, h := a.screen.Size()
	return a.canvas.SetViewport(ctx, canvas.Viewport{
		Width:       float64(w) * a.opts.CellWidth,
		Height:      float64(h) * a.opts.CellHeight,
		CanvasWidth: float64(w) * a.opts.CellWidth,
	})
}

func (a *App) redrawLater() {
	time.AfterFunc(a.opts.FocusDelay+5*time.Millisecond, func() {
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
}

// Redraw paints the current scene and the status line.
func (a *App) Redraw(ctx context.Context) {
	snap, err := a.canvas.Scene(ctx)
	if err != nil {
		a.status = err.Error()
	}
	a.screen.Clear()
	a.Draw(snap)
	w, h := a.screen.Size()
	a.text(0, h-1, w, fmt.Sprintf("[%s] %s", a.phase, a.status), statusStyle)
	a.screen.Show()
}
