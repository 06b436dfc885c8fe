package events

import (
	"time"

	"canvas-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

const (
	TypeEntityCreated        = "entity.created"
	TypeEntityContentUpdated = "entity.content_updated"
	TypeEntityMoved          = "entity.moved"
	TypeEntityDeleted        = "entity.deleted"
	TypeEntitiesConnected    = "entities.connected"
	TypeConnectionRemoved    = "connection.removed"
	TypeGraphRepaired        = "graph.repaired"
)

// EntityCreated is raised when a new block is placed on the canvas
type EntityCreated struct {
	BaseEvent
	EntityID valueobjects.EntityID `json:"entity_id"`
	Dashed   bool                  `json:"dashed"`
}

func NewEntityCreated(id valueobjects.EntityID, dashed bool, at time.Time) EntityCreated {
	return EntityCreated{
		BaseEvent: BaseEvent{AggregateID: id.String(), EventType: TypeEntityCreated, Timestamp: at},
		EntityID:  id,
		Dashed:    dashed,
	}
}

// EntityContentUpdated is raised when the text of a block changes
type EntityContentUpdated struct {
	BaseEvent
	EntityID valueobjects.EntityID `json:"entity_id"`
}

func NewEntityContentUpdated(id valueobjects.EntityID, at time.Time) EntityContentUpdated {
	return EntityContentUpdated{
		BaseEvent: BaseEvent{AggregateID: id.String(), EventType: TypeEntityContentUpdated, Timestamp: at},
		EntityID:  id,
	}
}

// EntityMoved is raised when a block is committed at a new position
type EntityMoved struct {
	BaseEvent
	EntityID    valueobjects.EntityID `json:"entity_id"`
	OldPosition valueobjects.Position `json:"old_position"`
	NewPosition valueobjects.Position `json:"new_position"`
}

func NewEntityMoved(id valueobjects.EntityID, from, to valueobjects.Position, at time.Time) EntityMoved {
	return EntityMoved{
		BaseEvent:   BaseEvent{AggregateID: id.String(), EventType: TypeEntityMoved, Timestamp: at},
		EntityID:    id,
		OldPosition: from,
		NewPosition: to,
	}
}

// EntityDeleted is raised when a block and its connections are removed
type EntityDeleted struct {
	BaseEvent
	EntityID           valueobjects.EntityID     `json:"entity_id"`
	RemovedConnections []valueobjects.ConnectionID `json:"removed_connections"`
}

func NewEntityDeleted(id valueobjects.EntityID, removed []valueobjects.ConnectionID, at time.Time) EntityDeleted {
	return EntityDeleted{
		BaseEvent:          BaseEvent{AggregateID: id.String(), EventType: TypeEntityDeleted, Timestamp: at},
		EntityID:           id,
		RemovedConnections: removed,
	}
}

// EntitiesConnected is raised when a connection is created
type EntitiesConnected struct {
	BaseEvent
	ConnectionID valueobjects.ConnectionID `json:"connection_id"`
	Source       valueobjects.EntityID     `json:"source"`
	Target       valueobjects.EntityID     `json:"target"`
}

func NewEntitiesConnected(id valueobjects.ConnectionID, source, target valueobjects.EntityID, at time.Time) EntitiesConnected {
	return EntitiesConnected{
		BaseEvent:    BaseEvent{AggregateID: id.String(), EventType: TypeEntitiesConnected, Timestamp: at},
		ConnectionID: id,
		Source:       source,
		Target:       target,
	}
}

// ConnectionRemoved is raised when a single connection is deleted explicitly
type ConnectionRemoved struct {
	BaseEvent
	ConnectionID valueobjects.ConnectionID `json:"connection_id"`
}

func NewConnectionRemoved(id valueobjects.ConnectionID, at time.Time) ConnectionRemoved {
	return ConnectionRemoved{
		BaseEvent:    BaseEvent{AggregateID: id.String(), EventType: TypeConnectionRemoved, Timestamp: at},
		ConnectionID: id,
	}
}

// GraphRepaired is raised when loading purged invalid connections
type GraphRepaired struct {
	BaseEvent
	Orphaned   int `json:"orphaned"`
	Duplicates int `json:"duplicates"`
	SelfLoops  int `json:"self_loops"`
}

func NewGraphRepaired(orphaned, duplicates, selfLoops int, at time.Time) GraphRepaired {
	return GraphRepaired{
		BaseEvent:  BaseEvent{AggregateID: "graph", EventType: TypeGraphRepaired, Timestamp: at},
		Orphaned:   orphaned,
		Duplicates: duplicates,
		SelfLoops:  selfLoops,
	}
}
