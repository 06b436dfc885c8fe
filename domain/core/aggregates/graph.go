// Package aggregates holds the canvas graph: the single owner of entity and
// connection collections and of every rule that keeps them consistent.
package aggregates

import (
	"errors"
	"fmt"
	"time"

	"canvas-backend/domain/config"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/events"
	apperrors "canvas-backend/pkg/errors"
)

// Sentinels for errors.Is. Returned errors are fresh values with the same
// type and code.
var (
	ErrSelfConnection      = apperrors.NewValidationError("cannot connect an entity to itself").WithCode("SELF_CONNECTION")
	ErrDuplicateConnection = apperrors.NewConflictError("entities are already connected").WithCode("DUPLICATE_CONNECTION")
	ErrEntityNotFound      = apperrors.NewNotFoundError("entity").WithCode("ENTITY_NOT_FOUND")
	ErrConnectionNotFound  = apperrors.NewNotFoundError("connection").WithCode("CONNECTION_NOT_FOUND")
	ErrEntityLimit         = apperrors.NewConflictError("maximum entities reached").WithCode("ENTITY_LIMIT")
)

// Graph holds entities and connections in insertion order.
type Graph struct {
	cfg *config.DomainConfig
	now func() time.Time

	entities    []*entities.Entity
	entityIndex map[valueobjects.EntityID]*entities.Entity

	connections     []*entities.Connection
	connectionIndex map[valueobjects.ConnectionID]*entities.Connection
	pairs           map[entities.PairKey]valueobjects.ConnectionID

	// lastIssued is the highest entity sequence handed out this session, so
	// deleting the newest entity never frees its id.
	lastIssued int

	events []events.DomainEvent
}

// RepairReport counts what Hydrate dropped.
type RepairReport struct {
	Orphaned          int `json:"orphaned"`
	Duplicates        int `json:"duplicates"`
	SelfLoops         int `json:"self_loops"`
	DuplicateEntities int `json:"duplicate_entities"`
	InvalidRecords    int `json:"invalid_records"`
}

// Changed reports whether anything was dropped.
func (r RepairReport) Changed() bool {
	return r.Orphaned+r.Duplicates+r.SelfLoops+r.DuplicateEntities+r.InvalidRecords > 0
}

// ConnectionsDropped is the number of connection records removed.
func (r RepairReport) ConnectionsDropped() int {
	return r.Orphaned + r.Duplicates + r.SelfLoops
}

// NewGraph creates an empty graph. now defaults to time.Now.
func NewGraph(cfg *config.DomainConfig, now func() time.Time) *Graph {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if now == nil {
		now = time.Now
	}
	return &Graph{
		cfg:             cfg,
		now:             now,
		entityIndex:     make(map[valueobjects.EntityID]*entities.Entity),
		connectionIndex: make(map[valueobjects.ConnectionID]*entities.Connection),
		pairs:           make(map[entities.PairKey]valueobjects.ConnectionID),
	}
}

// Hydrate replaces the graph contents with persisted records and repairs them:
// connections with a missing endpoint are dropped first, then connections whose
// unordered pair was already seen. The first occurrence always wins.
func (g *Graph) Hydrate(entityRecords []entities.EntityRecord, connectionRecords []entities.ConnectionRecord) RepairReport {
	var report RepairReport

	g.entities = g.entities[:0]
	g.connections = g.connections[:0]
	clear(g.entityIndex)
	clear(g.connectionIndex)
	clear(g.pairs)

	for _, rec := range entityRecords {
		e, err := entities.ReconstructEntity(rec)
		if err != nil {
			report.InvalidRecords++
			continue
		}
		if _, dup := g.entityIndex[e.ID()]; dup {
			report.DuplicateEntities++
			continue
		}
		g.entities = append(g.entities, e)
		g.entityIndex[e.ID()] = e
	}

	for _, rec := range connectionRecords {
		c, err := entities.ReconstructConnection(rec)
		if err != nil {
			report.InvalidRecords++
			continue
		}
		switch {
		case c.IsSelfLoop():
			report.SelfLoops++
		case !g.HasEntity(c.Source()) || !g.HasEntity(c.Target()):
			report.Orphaned++
		case g.hasPair(c.Pair()):
			report.Duplicates++
		case g.connectionIndex[c.ID()] != nil:
			report.Duplicates++
		default:
			g.appendConnection(c)
		}
	}

	g.lastIssued = g.highestSequence()

	if report.Changed() {
		g.addEvent(events.NewGraphRepaired(report.Orphaned, report.Duplicates, report.SelfLoops, g.now()))
	}
	return report
}

// NextEntityID returns the id the next AddEntity call will use.
func (g *Graph) NextEntityID() valueobjects.EntityID {
	return valueobjects.NewEntityID(g.cfg.EntityIDPrefix, g.nextSequence())
}

// AddEntity creates an empty block at position with the next free id.
func (g *Graph) AddEntity(position valueobjects.Position, dashed bool) (*entities.Entity, error) {
	if len(g.entities) >= g.cfg.MaxEntities {
		return nil, apperrors.NewConflictError(fmt.Sprintf("maximum of %d entities reached", g.cfg.MaxEntities)).WithCode(ErrEntityLimit.Code)
	}

	seq := g.nextSequence()
	e, err := entities.NewEntity(valueobjects.NewEntityID(g.cfg.EntityIDPrefix, seq), position, dashed)
	if err != nil {
		return nil, err
	}
	g.lastIssued = seq
	g.entities = append(g.entities, e)
	g.entityIndex[e.ID()] = e

	g.addEvent(events.NewEntityCreated(e.ID(), dashed, g.now()))
	return e, nil
}

// UpdateContent sets an entity's content. It reports whether anything changed.
func (g *Graph) UpdateContent(id valueobjects.EntityID, content string) (bool, error) {
	e, ok := g.entityIndex[id]
	if !ok {
		return false, entityNotFound(id)
	}
	if !e.UpdateContent(content) {
		return false, nil
	}
	g.addEvent(events.NewEntityContentUpdated(id, g.now()))
	return true, nil
}

// MoveEntity sets an entity's position. It reports whether anything changed.
func (g *Graph) MoveEntity(id valueobjects.EntityID, position valueobjects.Position) (bool, error) {
	e, ok := g.entityIndex[id]
	if !ok {
		return false, entityNotFound(id)
	}
	from := e.Position()
	if !e.MoveTo(position) {
		return false, nil
	}
	g.addEvent(events.NewEntityMoved(id, from, position, g.now()))
	return true, nil
}

// RemoveEntity deletes an entity together with every connection touching it
// and returns the removed connections.
func (g *Graph) RemoveEntity(id valueobjects.EntityID) ([]*entities.Connection, error) {
	if _, ok := g.entityIndex[id]; !ok {
		return nil, entityNotFound(id)
	}

	var removed []*entities.Connection
	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.Touches(id) {
			removed = append(removed, c)
			delete(g.connectionIndex, c.ID())
			delete(g.pairs, c.Pair())
			continue
		}
		kept = append(kept, c)
	}
	clearTail(g.connections, len(kept))
	g.connections = kept

	for i, e := range g.entities {
		if e.ID() == id {
			g.entities = append(g.entities[:i], g.entities[i+1:]...)
			break
		}
	}
	delete(g.entityIndex, id)

	ids := make([]valueobjects.ConnectionID, len(removed))
	for i, c := range removed {
		ids[i] = c.ID()
	}
	g.addEvent(events.NewEntityDeleted(id, ids, g.now()))
	return removed, nil
}

// Connect links source to target. Self loops, duplicates in either direction
// and unknown endpoints are rejected. The id is conn-<millis>, bumped by one
// millisecond until it is unused.
func (g *Graph) Connect(source, target valueobjects.EntityID) (*entities.Connection, error) {
	if source == target {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot connect %s to itself", source)).WithCode(ErrSelfConnection.Code)
	}
	if !g.HasEntity(source) {
		return nil, entityNotFound(source)
	}
	if !g.HasEntity(target) {
		return nil, entityNotFound(target)
	}
	if g.HasConnectionBetween(source, target) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("%s and %s are already connected", source, target)).WithCode(ErrDuplicateConnection.Code)
	}

	at := g.now()
	millis := at.UnixMilli()
	id := valueobjects.NewConnectionID(g.cfg.ConnectionIDPrefix, millis)
	for g.connectionIndex[id] != nil {
		millis++
		id = valueobjects.NewConnectionID(g.cfg.ConnectionIDPrefix, millis)
	}

	c, err := entities.NewConnection(id, source, target)
	if err != nil {
		return nil, err
	}
	g.appendConnection(c)
	g.addEvent(events.NewEntitiesConnected(id, source, target, at))
	return c, nil
}

// Disconnect removes a connection by id.
func (g *Graph) Disconnect(id valueobjects.ConnectionID) (*entities.Connection, error) {
	c, ok := g.connectionIndex[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("connection "+id.String()).WithCode(ErrConnectionNotFound.Code)
	}
	for i, existing := range g.connections {
		if existing.ID() == id {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			break
		}
	}
	delete(g.connectionIndex, id)
	delete(g.pairs, c.Pair())

	g.addEvent(events.NewConnectionRemoved(id, g.now()))
	return c, nil
}

// Entity returns the entity with the given id.
func (g *Graph) Entity(id valueobjects.EntityID) (*entities.Entity, error) {
	e, ok := g.entityIndex[id]
	if !ok {
		return nil, entityNotFound(id)
	}
	return e, nil
}

// Connection returns the connection with the given id.
func (g *Graph) Connection(id valueobjects.ConnectionID) (*entities.Connection, bool) {
	c, ok := g.connectionIndex[id]
	return c, ok
}

// HasEntity checks if an entity exists
func (g *Graph) HasEntity(id valueobjects.EntityID) bool {
	_, ok := g.entityIndex[id]
	return ok
}

// HasConnectionBetween checks both directions.
func (g *Graph) HasConnectionBetween(a, b valueobjects.EntityID) bool {
	return g.hasPair(entities.NewPairKey(a, b))
}

// Entities returns the entities in creation order.
func (g *Graph) Entities() []*entities.Entity {
	out := make([]*entities.Entity, len(g.entities))
	copy(out, g.entities)
	return out
}

// Connections returns the connections in creation order.
func (g *Graph) Connections() []*entities.Connection {
	out := make([]*entities.Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

// ConnectionsOf returns every connection touching id.
func (g *Graph) ConnectionsOf(id valueobjects.EntityID) []*entities.Connection {
	var out []*entities.Connection
	for _, c := range g.connections {
		if c.Touches(id) {
			out = append(out, c)
		}
	}
	return out
}

// Records returns the persisted form of both collections.
func (g *Graph) Records() ([]entities.EntityRecord, []entities.ConnectionRecord) {
	ents := make([]entities.EntityRecord, len(g.entities))
	for i, e := range g.entities {
		ents[i] = e.Record()
	}
	conns := make([]entities.ConnectionRecord, len(g.connections))
	for i, c := range g.connections {
		conns[i] = c.Record()
	}
	return ents, conns
}

// Validate checks referential integrity and pair uniqueness.
func (g *Graph) Validate() error {
	seen := make(map[entities.PairKey]bool, len(g.connections))
	var errs []error
	for _, c := range g.connections {
		if c.IsSelfLoop() {
			errs = append(errs, fmt.Errorf("connection %s is a self loop", c.ID()))
		}
		if !g.HasEntity(c.Source()) {
			errs = append(errs, fmt.Errorf("connection %s has missing source %s", c.ID(), c.Source()))
		}
		if !g.HasEntity(c.Target()) {
			errs = append(errs, fmt.Errorf("connection %s has missing target %s", c.ID(), c.Target()))
		}
		if seen[c.Pair()] {
			errs = append(errs, fmt.Errorf("connection %s duplicates an existing pair", c.ID()))
		}
		seen[c.Pair()] = true
	}
	return errors.Join(errs...)
}

// GetUncommittedEvents returns events raised since the last commit.
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(g.events))
	copy(out, g.events)
	return out
}

// MarkEventsAsCommitted clears the event buffer.
func (g *Graph) MarkEventsAsCommitted() {
	g.events = g.events[:0]
}

func (g *Graph) addEvent(e events.DomainEvent) {
	g.events = append(g.events, e)
}

func (g *Graph) appendConnection(c *entities.Connection) {
	g.connections = append(g.connections, c)
	g.connectionIndex[c.ID()] = c
	g.pairs[c.Pair()] = c.ID()
}

func (g *Graph) hasPair(k entities.PairKey) bool {
	_, ok := g.pairs[k]
	return ok
}

func (g *Graph) highestSequence() int {
	highest := 0
	for _, e := range g.entities {
		if n, ok := e.ID().Sequence(g.cfg.EntityIDPrefix); ok && n > highest {
			highest = n
		}
	}
	return highest
}

func (g *Graph) nextSequence() int {
	return max(g.highestSequence(), g.lastIssued) + 1
}

func entityNotFound(id valueobjects.EntityID) error {
	return apperrors.NewNotFoundError("entity "+id.String()).WithCode(ErrEntityNotFound.Code)
}

func clearTail(s []*entities.Connection, from int) {
	for i := from; i < len(s); i++ {
		s[i] = nil
	}
}
