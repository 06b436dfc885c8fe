package aggregates

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvas-backend/domain/config"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/events"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func pos(x, y float64) valueobjects.Position {
	p, _ := valueobjects.NewPosition(x, y)
	return p
}

func id(s string) valueobjects.EntityID {
	v, _ := valueobjects.EntityIDFromString(s)
	return v
}

func newGraphWith(t *testing.T, n int) *Graph {
	t.Helper()
	g := NewGraph(config.DefaultDomainConfig(), fixedClock(1700000000000))
	for i := 0; i < n; i++ {
		_, err := g.AddEntity(pos(float64(i*200), 0), false)
		require.NoError(t, err)
	}
	return g
}

func TestAddEntityAssignsSequentialIDs(t *testing.T) {
	g := newGraphWith(t, 3)
	ids := []string{}
	for _, e := range g.Entities() {
		ids = append(ids, e.ID().String())
	}
	assert.Equal(t, []string{"entity-1", "entity-2", "entity-3"}, ids)
}

func TestNextIDAfterGapIsHighestPlusOne(t *testing.T) {
	g := NewGraph(config.DefaultDomainConfig(), nil)
	g.Hydrate([]entities.EntityRecord{
		{ID: "entity-1", Kind: "block", Position: pos(0, 0)},
		{ID: "entity-3", Kind: "block", Position: pos(200, 0)},
	}, nil)

	e, err := g.AddEntity(pos(10, 10), false)
	require.NoError(t, err)
	assert.Equal(t, "entity-4", e.ID().String())
}

func TestIDsAreNeverReusedAfterDelete(t *testing.T) {
	g := newGraphWith(t, 2)
	_, err := g.RemoveEntity(id("entity-2"))
	require.NoError(t, err)

	e, err := g.AddEntity(pos(0, 0), false)
	require.NoError(t, err)
	assert.Equal(t, "entity-3", e.ID().String())
}

func TestLegacyIDsCountAsZero(t *testing.T) {
	g := NewGraph(config.DefaultDomainConfig(), nil)
	g.Hydrate([]entities.EntityRecord{{ID: "note-abc", Position: pos(0, 0)}}, nil)
	assert.Equal(t, "entity-1", g.NextEntityID().String())
	e, _ := g.Entity(id("note-abc"))
	assert.Equal(t, entities.KindBlock, e.Kind())
}

func TestConnectRejectsSelfLoop(t *testing.T) {
	g := newGraphWith(t, 1)
	_, err := g.Connect(id("entity-1"), id("entity-1"))
	assert.ErrorIs(t, err, ErrSelfConnection)
	assert.Empty(t, g.Connections())
}

func TestConnectRejectsDuplicateInEitherOrder(t *testing.T) {
	g := newGraphWith(t, 2)

	_, err := g.Connect(id("entity-1"), id("entity-2"))
	require.NoError(t, err)
	_, err = g.Connect(id("entity-2"), id("entity-1"))
	assert.ErrorIs(t, err, ErrDuplicateConnection)
	_, err = g.Connect(id("entity-1"), id("entity-2"))
	assert.ErrorIs(t, err, ErrDuplicateConnection)

	assert.Len(t, g.Connections(), 1)
}

func TestConnectRejectsUnknownEndpoint(t *testing.T) {
	g := newGraphWith(t, 1)
	_, err := g.Connect(id("entity-1"), id("entity-9"))
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestConnectionIDsBumpOnSameMillisecond(t *testing.T) {
	g := newGraphWith(t, 3)

	c1, err := g.Connect(id("entity-1"), id("entity-2"))
	require.NoError(t, err)
	c2, err := g.Connect(id("entity-2"), id("entity-3"))
	require.NoError(t, err)

	assert.Equal(t, "conn-1700000000000", c1.ID().String())
	assert.Equal(t, "conn-1700000000001", c2.ID().String())
	assert.Equal(t, id("entity-2"), c2.Source(), "drag source is kept as source")
}

func TestRemoveEntityCascades(t *testing.T) {
	g := newGraphWith(t, 3)
	_, _ = g.Connect(id("entity-1"), id("entity-2"))
	_, _ = g.Connect(id("entity-3"), id("entity-1"))
	_, _ = g.Connect(id("entity-2"), id("entity-3"))

	removed, err := g.RemoveEntity(id("entity-1"))
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	for _, c := range g.Connections() {
		assert.False(t, c.Touches(id("entity-1")))
	}
	assert.Len(t, g.Connections(), 1)
	assert.False(t, g.HasConnectionBetween(id("entity-1"), id("entity-2")))
	assert.NoError(t, g.Validate())

	_, err = g.RemoveEntity(id("entity-1"))
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestDisconnect(t *testing.T) {
	g := newGraphWith(t, 2)
	c, _ := g.Connect(id("entity-1"), id("entity-2"))

	_, err := g.Disconnect(c.ID())
	require.NoError(t, err)
	assert.Empty(t, g.Connections())

	// The pair is free again.
	_, err = g.Connect(id("entity-2"), id("entity-1"))
	assert.NoError(t, err)

	_, err = g.Disconnect(valueobjects.NewConnectionID("conn-", 1))
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestHydrateRepairs(t *testing.T) {
	g := NewGraph(config.DefaultDomainConfig(), nil)
	report := g.Hydrate(
		[]entities.EntityRecord{
			{ID: "entity-1", Position: pos(0, 0)},
			{ID: "entity-2", Position: pos(200, 0)},
			{ID: "entity-2", Position: pos(999, 0)},
			{ID: "", Position: pos(0, 0)},
		},
		[]entities.ConnectionRecord{
			{ID: "conn-1", Source: "entity-1", Target: "entity-2"},
			{ID: "conn-2", Source: "entity-2", Target: "entity-1"},
			{ID: "conn-3", Source: "entity-1", Target: "entity-9"},
			{ID: "conn-4", Source: "entity-2", Target: "entity-2"},
			{ID: "conn-5", Source: "ghost", Target: "entity-2"},
		},
	)

	assert.Equal(t, 2, report.Orphaned)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 1, report.SelfLoops)
	assert.Equal(t, 1, report.DuplicateEntities)
	assert.Equal(t, 1, report.InvalidRecords)
	assert.True(t, report.Changed())

	conns := g.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "conn-1", conns[0].ID().String(), "first occurrence is kept")
	assert.NoError(t, g.Validate())

	e, _ := g.Entity(id("entity-2"))
	assert.Equal(t, 200.0, e.Position().X())

	evs := g.GetUncommittedEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeGraphRepaired, evs[0].GetEventType())
}

func TestHydrateCleanGraphReportsNothing(t *testing.T) {
	g := NewGraph(config.DefaultDomainConfig(), nil)
	report := g.Hydrate(
		[]entities.EntityRecord{{ID: "entity-1"}, {ID: "entity-2"}},
		[]entities.ConnectionRecord{{ID: "conn-1", Source: "entity-1", Target: "entity-2"}},
	)
	assert.False(t, report.Changed())
	assert.Empty(t, g.GetUncommittedEvents())
}

func TestMutationsRaiseEvents(t *testing.T) {
	g := newGraphWith(t, 2)
	g.MarkEventsAsCommitted()

	changed, err := g.UpdateContent(id("entity-1"), "#idea")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, _ = g.UpdateContent(id("entity-1"), "#idea")
	assert.False(t, changed)

	changed, err = g.MoveEntity(id("entity-2"), pos(300, 40))
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = g.MoveEntity(id("entity-7"), pos(0, 0))
	assert.True(t, errors.Is(err, ErrEntityNotFound))

	types := []string{}
	for _, e := range g.GetUncommittedEvents() {
		types = append(types, e.GetEventType())
	}
	assert.Equal(t, []string{events.TypeEntityContentUpdated, events.TypeEntityMoved}, types)
}

func TestEntityLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxEntities = 1
	g := NewGraph(cfg, nil)
	_, err := g.AddEntity(pos(0, 0), false)
	require.NoError(t, err)
	_, err = g.AddEntity(pos(0, 0), false)
	assert.ErrorIs(t, err, ErrEntityLimit)
}

func TestRecordsRoundTrip(t *testing.T) {
	g := newGraphWith(t, 2)
	_, _ = g.UpdateContent(id("entity-2"), "hi")
	_, _ = g.Connect(id("entity-1"), id("entity-2"))

	ents, conns := g.Records()
	other := NewGraph(config.DefaultDomainConfig(), nil)
	report := other.Hydrate(ents, conns)

	assert.False(t, report.Changed())
	o1, o2 := other.Records()
	assert.Equal(t, ents, o1)
	assert.Equal(t, conns, o2)
}
