package entities

import (
	"canvas-backend/domain/core/valueobjects"
	apperrors "canvas-backend/pkg/errors"
)

// Connection is a link between two distinct entities. The entity the user
// dragged from is always the source.
type Connection struct {
	id     valueobjects.ConnectionID
	source valueobjects.EntityID
	target valueobjects.EntityID
}

// NewConnection validates endpoints and creates a connection.
func NewConnection(id valueobjects.ConnectionID, source, target valueobjects.EntityID) (*Connection, error) {
	if id.IsZero() {
		return nil, apperrors.NewValidationError("connection ID cannot be empty")
	}
	if source.IsZero() || target.IsZero() {
		return nil, apperrors.NewValidationError("connection endpoints cannot be empty")
	}
	if source == target {
		return nil, apperrors.NewValidationError("cannot connect an entity to itself").WithCode("SELF_CONNECTION")
	}
	return &Connection{id: id, source: source, target: target}, nil
}

// ReconstructConnection rebuilds a connection from storage without checking
// endpoints, so that repair can see and drop invalid records.
func ReconstructConnection(r ConnectionRecord) (*Connection, error) {
	id, err := valueobjects.ConnectionIDFromString(r.ID)
	if err != nil {
		return nil, err
	}
	source, err := valueobjects.EntityIDFromString(r.Source)
	if err != nil {
		return nil, err
	}
	target, err := valueobjects.EntityIDFromString(r.Target)
	if err != nil {
		return nil, err
	}
	return &Connection{id: id, source: source, target: target}, nil
}

func (c *Connection) ID() valueobjects.ConnectionID { return c.id }
func (c *Connection) Source() valueobjects.EntityID { return c.source }
func (c *Connection) Target() valueobjects.EntityID { return c.target }

// IsSelfLoop reports whether both endpoints are the same entity.
func (c *Connection) IsSelfLoop() bool { return c.source == c.target }

// Touches reports whether id is one of the endpoints.
func (c *Connection) Touches(id valueobjects.EntityID) bool {
	return c.source == id || c.target == id
}

// Pair returns the direction-insensitive key of the endpoints.
func (c *Connection) Pair() PairKey { return NewPairKey(c.source, c.target) }

// Record returns the persisted form of the connection.
func (c *Connection) Record() ConnectionRecord {
	return ConnectionRecord{ID: c.id.String(), Source: c.source.String(), Target: c.target.String()}
}

// Clone returns a detached copy.
func (c *Connection) Clone() Connection { return *c }

// ConnectionRecord is the JSON shape stored under the connections key.
type ConnectionRecord struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// PairKey identifies an unordered pair of entities.
type PairKey struct {
	a, b valueobjects.EntityID
}

// NewPairKey orders the two ids so that (a,b) and (b,a) produce the same key.
func NewPairKey(x, y valueobjects.EntityID) PairKey {
	if y.String() < x.String() {
		x, y = y, x
	}
	return PairKey{a: x, b: y}
}
