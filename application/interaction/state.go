package interaction

import (
	"fmt"

	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/geometry"
)

// Phase is the tag of the interaction state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDraggingEntity
	PhaseDraggingConnection
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDraggingEntity:
		return "dragging-entity"
	case PhaseDraggingConnection:
		return "dragging-connection"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is one of Idle, DraggingEntity or DraggingConnection.
type State interface {
	Phase() Phase
	isState()
}

// Idle means no drag is in progress.
type Idle struct{}

// DraggingEntity tracks a block being moved. Offset is the pointer position
// relative to the block's top-left corner when the drag started.
type DraggingEntity struct {
	EntityID valueobjects.EntityID
	Offset   geometry.Point
	Origin   geometry.Point
	Current  geometry.Point
}

// DraggingConnection tracks a new connection being drawn from Source.
type DraggingConnection struct {
	Source  valueobjects.EntityID
	Pointer geometry.Point
}

func (Idle) Phase() Phase               { return PhaseIdle }
func (DraggingEntity) Phase() Phase     { return PhaseDraggingEntity }
func (DraggingConnection) Phase() Phase { return PhaseDraggingConnection }

func (Idle) isState()               {}
func (DraggingEntity) isState()     {}
func (DraggingConnection) isState() {}

// EventKind is the kind of a pointer event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerCancel
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ParseEventKind converts an event name back to an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	for k := PointerDown; k <= PointerCancel; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown pointer event %q", s)
}
