package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"canvas-backend/application/ports"
	"canvas-backend/domain/config"
	"canvas-backend/domain/core/aggregates"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/events"
	apperrors "canvas-backend/pkg/errors"
)

// GraphStore owns the canvas graph. It is the only component that mutates
// entities and connections, and it persists after every mutation. Rule
// violations (self loops, duplicate pairs, unknown ids) are no-ops.
//
// GraphStore is not safe for concurrent use; the canvas loop serializes access.
type GraphStore struct {
	graph   *aggregates.Graph
	storage *Storage
	logger  *zap.Logger
	metrics ports.MetricsRecorder
}

// NewGraphStore builds the store and runs LoadAndRepair.
func NewGraphStore(
	ctx context.Context,
	storage *Storage,
	cfg *config.DomainConfig,
	logger *zap.Logger,
	metrics ports.MetricsRecorder,
	now func() time.Time,
) *GraphStore {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	s := &GraphStore{
		graph:   aggregates.NewGraph(cfg, now),
		storage: storage,
		logger:  logger,
		metrics: metrics,
	}
	s.LoadAndRepair(ctx)
	return s
}

// LoadAndRepair replaces the in-memory graph with the stored one, drops
// orphaned and duplicate connections and writes the repaired set back when
// anything was removed.
func (s *GraphStore) LoadAndRepair(ctx context.Context) aggregates.RepairReport {
	ents := LoadValue(ctx, s.storage, KeyEntities, []entities.EntityRecord{})
	conns := LoadValue(ctx, s.storage, KeyConnections, []entities.ConnectionRecord{})

	report := s.graph.Hydrate(ents, conns)
	if report.Changed() {
		s.logger.Info("Repaired stored graph",
			zap.Int("orphaned", report.Orphaned),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("selfLoops", report.SelfLoops),
			zap.Int("duplicateEntities", report.DuplicateEntities),
			zap.Int("invalidRecords", report.InvalidRecords),
		)
		s.persistEntities(ctx)
		s.persistConnections(ctx)
	}
	s.commitEvents()

	s.logger.Debug("Graph loaded",
		zap.Int("entities", len(s.graph.Entities())),
		zap.Int("connections", len(s.graph.Connections())),
	)
	return report
}

// CreateEntity places an empty block at position.
func (s *GraphStore) CreateEntity(ctx context.Context, position valueobjects.Position, dashed bool) (entities.Entity, error) {
	e, err := s.graph.AddEntity(position, dashed)
	if err != nil {
		s.reject("create_entity", err)
		return entities.Entity{}, err
	}
	s.persistEntities(ctx)
	s.commitEvents()
	return e.Clone(), nil
}

// UpdateEntityContent replaces an entity's content. It reports whether the
// entity exists and the content changed.
func (s *GraphStore) UpdateEntityContent(ctx context.Context, id valueobjects.EntityID, content string) bool {
	changed, err := s.graph.UpdateContent(id, content)
	if err != nil {
		s.reject("update_content", err)
		return false
	}
	if changed {
		s.persistEntities(ctx)
		s.commitEvents()
	}
	return changed
}

// UpdateEntityPosition commits a new position. It reports whether the entity
// exists and moved.
func (s *GraphStore) UpdateEntityPosition(ctx context.Context, id valueobjects.EntityID, position valueobjects.Position) bool {
	changed, err := s.graph.MoveEntity(id, position)
	if err != nil {
		s.reject("update_position", err)
		return false
	}
	if changed {
		s.persistEntities(ctx)
		s.commitEvents()
	}
	return changed
}

// DeleteEntity removes an entity and every connection touching it. It
// returns the removed connections and whether the entity existed.
func (s *GraphStore) DeleteEntity(ctx context.Context, id valueobjects.EntityID) ([]entities.Connection, bool) {
	removed, err := s.graph.RemoveEntity(id)
	if err != nil {
		s.reject("delete_entity", err)
		return nil, false
	}
	s.persistEntities(ctx)
	s.persistConnections(ctx)
	s.commitEvents()

	out := make([]entities.Connection, len(removed))
	for i, c := range removed {
		out[i] = c.Clone()
	}
	return out, true
}

// CreateConnection links source to target. Self loops, existing pairs in
// either direction and unknown endpoints are ignored and reported as false.
func (s *GraphStore) CreateConnection(ctx context.Context, source, target valueobjects.EntityID) (entities.Connection, bool) {
	c, err := s.graph.Connect(source, target)
	if err != nil {
		s.reject("create_connection", err)
		return entities.Connection{}, false
	}
	s.persistConnections(ctx)
	s.commitEvents()
	return c.Clone(), true
}

// DeleteConnection removes a connection. Unknown ids are ignored and do not
// touch storage.
func (s *GraphStore) DeleteConnection(ctx context.Context, id valueobjects.ConnectionID) bool {
	if _, err := s.graph.Disconnect(id); err != nil {
		s.reject("delete_connection", err)
		return false
	}
	s.persistConnections(ctx)
	s.commitEvents()
	return true
}

// Entity returns a copy of the entity with the given id.
func (s *GraphStore) Entity(id valueobjects.EntityID) (entities.Entity, bool) {
	e, err := s.graph.Entity(id)
	if err != nil {
		return entities.Entity{}, false
	}
	return e.Clone(), true
}

// Entities returns copies of all entities in creation order.
func (s *GraphStore) Entities() []entities.Entity {
	src := s.graph.Entities()
	out := make([]entities.Entity, len(src))
	for i, e := range src {
		out[i] = e.Clone()
	}
	return out
}

// Connection returns a copy of the connection with the given id.
func (s *GraphStore) Connection(id valueobjects.ConnectionID) (entities.Connection, bool) {
	c, ok := s.graph.Connection(id)
	if !ok {
		return entities.Connection{}, false
	}
	return c.Clone(), true
}

// Connections returns copies of all connections in creation order.
func (s *GraphStore) Connections() []entities.Connection {
	return cloneConnections(s.graph.Connections())
}

// ConnectionsOf returns copies of every connection touching id.
func (s *GraphStore) ConnectionsOf(id valueobjects.EntityID) []entities.Connection {
	return cloneConnections(s.graph.ConnectionsOf(id))
}

// HasConnectionBetween checks both directions.
func (s *GraphStore) HasConnectionBetween(a, b valueobjects.EntityID) bool {
	return s.graph.HasConnectionBetween(a, b)
}

// Validate checks the collection invariants.
func (s *GraphStore) Validate() error {
	return s.graph.Validate()
}

func (s *GraphStore) persistEntities(ctx context.Context) {
	ents, _ := s.graph.Records()
	s.storage.Save(ctx, KeyEntities, ents)
}

func (s *GraphStore) persistConnections(ctx context.Context) {
	_, conns := s.graph.Records()
	s.storage.Save(ctx, KeyConnections, conns)
}

func (s *GraphStore) reject(operation string, err error) {
	reason := "invalid"
	if appErr := apperrors.GetAppError(err); appErr != nil && appErr.Code != "" {
		reason = appErr.Code
	}
	s.metrics.RecordRejected(operation, reason)
	s.logger.Debug("Ignored graph mutation",
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func (s *GraphStore) commitEvents() {
	for _, ev := range s.graph.GetUncommittedEvents() {
		switch e := ev.(type) {
		case events.GraphRepaired:
			s.metrics.RecordRepair(e.Orphaned, e.Duplicates, e.SelfLoops)
		default:
			s.metrics.RecordMutation(ev.GetEventType())
		}
		s.logger.Debug("Graph event",
			zap.String("type", ev.GetEventType()),
			zap.String("aggregateID", ev.GetAggregateID()),
		)
	}
	s.graph.MarkEventsAsCommitted()
}

func cloneConnections(src []*entities.Connection) []entities.Connection {
	out := make([]entities.Connection, len(src))
	for i, c := range src {
		out[i] = c.Clone()
	}
	return out
}
