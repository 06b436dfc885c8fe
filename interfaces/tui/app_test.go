package tui

import (
	"context"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-backend/application/canvas"
	"canvas-backend/application/services"
	"canvas-backend/domain/config"
	"canvas-backend/domain/geometry"
	"canvas-backend/infrastructure/persistence/memory"
)

func newTestApp(t *testing.T) (*App, *canvas.Session, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	cfg := config.DefaultDomainConfig()
	cfg.FocusDelay = 0
	storage := services.NewStorage(memory.NewKeyValueStore(), zap.NewNop(), nil)
	session := canvas.NewSession(context.Background(), storage, canvas.Options{Config: cfg})
	t.Cleanup(session.Close)

	app := NewApp(screen, session, Options{CellWidth: 10, CellHeight: 20}, zap.NewNop())
	require.NoError(t, app.resize(context.Background()))
	return app, session, screen
}

func runeAt(screen tcell.SimulationScreen, x, y int) rune {
	cells, w, _ := screen.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func TestDrawBlock(t *testing.T) {
	ctx := context.Background()
	app, session, screen := newTestApp(t)
	_, err := session.CreateEntity(ctx, false, &geometry.Point{X: 100, Y: 100})
	require.NoError(t, err)

	app.Redraw(ctx)

	assert.Equal(t, '┌', runeAt(screen, 10, 5))
	assert.Equal(t, '└', runeAt(screen, 10, 7))
	assert.Equal(t, '×', runeAt(screen, 21, 5), "delete control")
	assert.Equal(t, '+', runeAt(screen, 21, 7), "connect handle")
}

func TestMouseDragMovesBlock(t *testing.T) {
	ctx := context.Background()
	app, session, _ := newTestApp(t)
	_, err := session.CreateEntity(ctx, false, &geometry.Point{X: 100, Y: 100})
	require.NoError(t, err)

	for _, ev := range []tcell.Event{
		tcell.NewEventMouse(10, 5, tcell.Button1, tcell.ModNone),
		tcell.NewEventMouse(15, 6, tcell.Button1, tcell.ModNone),
		tcell.NewEventMouse(15, 6, tcell.ButtonNone, tcell.ModNone),
	} {
		quit, err := app.Handle(ctx, ev)
		require.NoError(t, err)
		require.False(t, quit)
	}

	views, err := session.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 150.0, views[0].Position.X())
	assert.Equal(t, 120.0, views[0].Position.Y())
}

func TestKeys(t *testing.T) {
	ctx := context.Background()
	app, session, _ := newTestApp(t)

	_, err := app.Handle(ctx, tcell.NewEventMouse(15, 6, tcell.ButtonNone, tcell.ModNone))
	require.NoError(t, err)
	_, err = app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone))
	require.NoError(t, err)

	views, err := session.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Dashed)
	assert.Equal(t, 155.0, views[0].Position.X())
	assert.Equal(t, 130.0, views[0].Position.Y())

	quit, err := app.Handle(ctx, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	require.NoError(t, err)
	assert.True(t, quit)
}
