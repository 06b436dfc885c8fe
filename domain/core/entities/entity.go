package entities

import (
	"canvas-backend/domain/core/valueobjects"
	apperrors "canvas-backend/pkg/errors"
)

// KindBlock is the only entity kind the canvas creates.
const KindBlock = "block"

// Entity is a positioned block on the canvas.
type Entity struct {
	id       valueobjects.EntityID
	kind     string
	content  string
	position valueobjects.Position
	dashed   bool
}

// NewEntity creates an empty block at position.
func NewEntity(id valueobjects.EntityID, position valueobjects.Position, dashed bool) (*Entity, error) {
	if id.IsZero() {
		return nil, apperrors.NewValidationError("entity ID cannot be empty")
	}
	return &Entity{
		id:       id,
		kind:     KindBlock,
		position: position,
		dashed:   dashed,
	}, nil
}

// ReconstructEntity rebuilds an entity from its persisted record.
func ReconstructEntity(r EntityRecord) (*Entity, error) {
	id, err := valueobjects.EntityIDFromString(r.ID)
	if err != nil {
		return nil, err
	}
	kind := r.Kind
	if kind == "" {
		kind = KindBlock
	}
	return &Entity{
		id:       id,
		kind:     kind,
		content:  r.Content,
		position: r.Position,
		dashed:   r.Dashed,
	}, nil
}

func (e *Entity) ID() valueobjects.EntityID        { return e.id }
func (e *Entity) Kind() string                     { return e.kind }
func (e *Entity) Content() string                  { return e.content }
func (e *Entity) Position() valueobjects.Position { return e.position }
func (e *Entity) Dashed() bool                     { return e.dashed }

// UpdateContent replaces the content and reports whether it changed.
func (e *Entity) UpdateContent(content string) bool {
	if e.content == content {
		return false
	}
	e.content = content
	return true
}

// MoveTo sets the position and reports whether it changed.
func (e *Entity) MoveTo(position valueobjects.Position) bool {
	if e.position.Equals(position) {
		return false
	}
	e.position = position
	return true
}

// Record returns the persisted form of the entity.
func (e *Entity) Record() EntityRecord {
	return EntityRecord{
		ID:       e.id.String(),
		Kind:     e.kind,
		Content:  e.content,
		Position: e.position,
		Dashed:   e.dashed,
	}
}

// Clone returns a detached copy.
func (e *Entity) Clone() Entity {
	return *e
}

// EntityRecord is the JSON shape stored under the entities key.
type EntityRecord struct {
	ID       string                `json:"id"`
	Kind     string                `json:"kind"`
	Content  string                `json:"content"`
	Position valueobjects.Position `json:"position"`
	Dashed   bool                  `json:"dashed"`
}
