package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-backend/application/services"
	"canvas-backend/domain/config"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/geometry"
	domainservices "canvas-backend/domain/services"
	"canvas-backend/infrastructure/persistence/memory"
)

type fixture struct {
	store *services.GraphStore
	sync  *Sync
	cfg   *config.DomainConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	storage := services.NewStorage(memory.NewKeyValueStore(), zap.NewNop(), nil)
	tick := int64(1700000000000)
	store := services.NewGraphStore(context.Background(), storage, cfg, zap.NewNop(), nil, func() time.Time {
		tick++
		return time.UnixMilli(tick)
	})
	sync := NewSync(store, domainservices.NewDefaultTagExtractor(cfg.MaxTagsPerEntity), cfg, zap.NewNop())
	return &fixture{store: store, sync: sync, cfg: cfg}
}

func (f *fixture) entity(t *testing.T, x, y float64, dashed bool) valueobjects.EntityID {
	t.Helper()
	p, err := valueobjects.NewPosition(x, y)
	require.NoError(t, err)
	e, err := f.store.CreateEntity(context.Background(), p, dashed)
	require.NoError(t, err)
	require.True(t, f.sync.RenderEntity(e.ID()))
	return e.ID()
}

func (f *fixture) connect(t *testing.T, a, b valueobjects.EntityID) valueobjects.ConnectionID {
	t.Helper()
	c, ok := f.store.CreateConnection(context.Background(), a, b)
	require.True(t, ok)
	require.True(t, f.sync.RenderConnection(c.ID()))
	return c.ID()
}

func TestRenderConnectionAnchors(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 100, 100, false)
	b := f.entity(t, 400, 100, false)
	cid := f.connect(t, a, b)

	edge, ok := f.sync.Snapshot().Edge(cid.String())
	require.True(t, ok)
	assert.InDelta(t, 220, edge.X1, 1e-9)
	assert.InDelta(t, 400, edge.X2, 1e-9)
	assert.InDelta(t, 130, edge.Y1, 1e-9)
	assert.InDelta(t, 130, edge.Y2, 1e-9)
	assert.Equal(t, geometry.SideRight, edge.SourceSide)
	assert.Equal(t, geometry.SideLeft, edge.TargetSide)
	assert.False(t, edge.Dashed)
	assert.Equal(t, geometry.Point{X: 310, Y: 130}, edge.DeleteAt)
	assert.Equal(t, f.cfg.HitRegionWidth, edge.Hit.Width)
}

func TestEdgeDashedWhenEitherEndpointDashed(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	b := f.entity(t, 300, 0, true)
	c := f.entity(t, 0, 300, false)

	dashed := f.connect(t, a, b)
	solid := f.connect(t, a, c)

	snap := f.sync.Snapshot()
	e1, _ := snap.Edge(dashed.String())
	e2, _ := snap.Edge(solid.String())
	assert.True(t, e1.Dashed)
	assert.False(t, e2.Dashed)
}

func TestMoveRedrawsOnlyTouchingConnections(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	b := f.entity(t, 300, 0, false)
	c := f.entity(t, 0, 300, false)
	d := f.entity(t, 300, 300, false)
	ab := f.connect(t, a, b)
	cd := f.connect(t, c, d)

	before := f.sync.Snapshot()
	require.True(t, f.sync.MoveEntity(a, geometry.Point{X: 50, Y: 80}))
	after := f.sync.Snapshot()

	abBefore, _ := before.Edge(ab.String())
	abAfter, _ := after.Edge(ab.String())
	cdBefore, _ := before.Edge(cd.String())
	cdAfter, _ := after.Edge(cd.String())

	assert.Greater(t, abAfter.Revision, abBefore.Revision)
	assert.Equal(t, cdBefore.Revision, cdAfter.Revision)
	assert.Equal(t, cdBefore, cdAfter)
	assert.NotEqual(t, abBefore.X1, abAfter.X1)

	for _, id := range []valueobjects.EntityID{b, c, d} {
		nb, _ := before.Entity(id.String())
		na, _ := after.Entity(id.String())
		assert.Equal(t, nb, na, "entity %s untouched", id)
	}

	stored, _ := f.store.Entity(a)
	assert.Equal(t, 0.0, stored.Position().X(), "live moves do not write the store")
}

func TestIndicatorsSpreadOnSharedSide(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 100, false)
	b := f.entity(t, 400, 100, false)
	c := f.entity(t, 400, 100, false)
	f.connect(t, a, b)
	f.connect(t, a, c)

	inds := f.sync.Indicators(a)
	require.Len(t, inds, 2)
	assert.Equal(t, geometry.SideRight, inds[0].Side)
	assert.Equal(t, geometry.SideRight, inds[1].Side)

	gap := f.cfg.IndicatorMinGap / f.cfg.DefaultEntityHeight
	assert.GreaterOrEqual(t, inds[1].Offset-inds[0].Offset, gap-1e-9)
	assert.NotEqual(t, inds[0].Point, inds[1].Point)
	assert.InDelta(t, 120, inds[0].Point.X, 1e-9)
}

func TestUpdateContentRefreshesTagsKeepsFocus(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	b := f.entity(t, 300, 0, false)
	require.True(t, f.sync.Focus(a))

	require.True(t, f.store.UpdateEntityContent(context.Background(), b, "ship #launch and #Docs #docs"))
	require.True(t, f.sync.UpdateContent(b))

	snap := f.sync.Snapshot()
	nb, _ := snap.Entity(b.String())
	require.Len(t, nb.Tags, 2)
	assert.Equal(t, "launch", nb.Tags[0].Label)
	assert.Equal(t, "Docs", nb.Tags[1].Label)
	assert.Equal(t, a.String(), snap.Focus)

	na, _ := snap.Entity(a.String())
	assert.True(t, na.Focused)
}

func TestRenderAllAfterDelete(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	b := f.entity(t, 300, 0, false)
	c := f.entity(t, 0, 300, false)
	f.connect(t, a, b)
	bc := f.connect(t, b, c)
	f.sync.Focus(a)

	_, ok := f.store.DeleteEntity(context.Background(), a)
	require.True(t, ok)
	f.sync.RenderAll()

	snap := f.sync.Snapshot()
	assert.Len(t, snap.Entities, 2)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, bc.String(), snap.Edges[0].ID)
	assert.Empty(t, snap.Focus)
	for _, ind := range snap.Indicators {
		assert.NotEqual(t, a.String(), ind.EntityID)
	}
}

func TestRemoveConnectionClearsIndicators(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	b := f.entity(t, 300, 0, false)
	cid := f.connect(t, a, b)

	require.True(t, f.store.DeleteConnection(context.Background(), cid))
	f.sync.RemoveConnection(cid)

	assert.Empty(t, f.sync.Snapshot().Edges)
	assert.Empty(t, f.sync.Indicators(a))
	assert.Empty(t, f.sync.Indicators(b))
}

func TestRenderEntityRemovesMissing(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	_, _ = f.store.DeleteEntity(context.Background(), a)

	assert.False(t, f.sync.RenderEntity(a))
	assert.False(t, f.sync.HasEntity(a))
}

func TestSetEntitySize(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	b := f.entity(t, 400, 20, false)
	cid := f.connect(t, a, b)

	require.True(t, f.sync.SetEntitySize(a, Size{Width: 200, Height: 100}))
	edge, _ := f.sync.Snapshot().Edge(cid.String())
	assert.InDelta(t, 200, edge.X1, 1e-9)
	assert.InDelta(t, 50, edge.Y1, 1e-9)

	f.sync.RenderAll()
	bounds, _ := f.sync.Bounds(a)
	assert.Equal(t, 200.0, bounds.Width, "measured size survives a full render")
	assert.False(t, f.sync.SetEntitySize(a, Size{}))
}

func TestDragLineAndCandidate(t *testing.T) {
	f := newFixture(t)
	a := f.entity(t, 0, 0, false)
	v := f.sync.Version()

	f.sync.ShowDragLine(a, geometry.Point{X: 120, Y: 30}, geometry.Point{X: 300, Y: 30})
	f.sync.ShowCandidate(a, geometry.SideRight, geometry.Point{X: 120, Y: 30})
	snap := f.sync.Snapshot()
	require.NotNil(t, snap.DragLine)
	require.NotNil(t, snap.Candidate)
	assert.InDelta(t, 0.5, snap.Candidate.Offset, 1e-9)
	assert.Greater(t, snap.Version, v)

	f.sync.ClearDragLine()
	f.sync.ClearCandidate()
	snap = f.sync.Snapshot()
	assert.Nil(t, snap.DragLine)
	assert.Nil(t, snap.Candidate)
}
