package render

import (
	"fmt"

	"canvas-backend/domain/geometry"
)

// Part names the element of the scene under a point.
type Part int

const (
	PartNone Part = iota
	PartBody
	PartContent
	PartDeleteControl
	PartConnectHandle
	PartConnection
	PartConnectionDelete
)

func (p Part) String() string {
	switch p {
	case PartNone:
		return "none"
	case PartBody:
		return "body"
	case PartContent:
		return "content"
	case PartDeleteControl:
		return "delete"
	case PartConnectHandle:
		return "connect"
	case PartConnection:
		return "connection"
	case PartConnectionDelete:
		return "connection-delete"
	default:
		return fmt.Sprintf("Part(%d)", int(p))
	}
}

// ParsePart converts a part name back to a Part.
func ParsePart(s string) (Part, error) {
	for p := PartNone; p <= PartConnectionDelete; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return PartNone, fmt.Errorf("unknown part %q", s)
}

func (p Part) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Part) UnmarshalText(b []byte) error {
	v, err := ParsePart(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// OnEntity reports whether the part belongs to an entity.
func (p Part) OnEntity() bool {
	return p == PartBody || p == PartContent || p == PartDeleteControl || p == PartConnectHandle
}

// Target is the result of a hit test.
type Target struct {
	Part         Part   `json:"part"`
	EntityID     string `json:"entity_id,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// TagBadge is one rendered #tag below a block.
type TagBadge struct {
	Label  string        `json:"label"`
	Bounds geometry.Rect `json:"bounds"`
}

// EntityNode is the visual form of an entity.
type EntityNode struct {
	ID            string        `json:"id"`
	Bounds        geometry.Rect `json:"bounds"`
	Content       string        `json:"content"`
	Dashed        bool          `json:"dashed"`
	ContentRegion geometry.Rect `json:"content_region"`
	DeleteControl geometry.Rect `json:"delete_control"`
	ConnectHandle geometry.Rect `json:"connect_handle"`
	Tags          []TagBadge    `json:"tags"`
	Focused       bool          `json:"focused"`
	Revision      int           `json:"revision"`
}

// HitRegion is the invisible wide stroke used to pick a connection.
type HitRegion struct {
	From  geometry.Point `json:"from"`
	To    geometry.Point `json:"to"`
	Width float64        `json:"width"`
}

// Edge is the visual form of a connection.
type Edge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	X1           float64        `json:"x1"`
	Y1           float64        `json:"y1"`
	X2           float64        `json:"x2"`
	Y2           float64        `json:"y2"`
	SourceSide   geometry.Side  `json:"source_side"`
	TargetSide   geometry.Side  `json:"target_side"`
	Dashed       bool           `json:"dashed"`
	Hit          HitRegion      `json:"hit"`
	DeleteAt     geometry.Point `json:"delete_at"`
	DeleteRadius float64        `json:"delete_radius"`
	Revision     int            `json:"revision"`
}

// Start returns the source anchor.
func (e *Edge) Start() geometry.Point { return geometry.Point{X: e.X1, Y: e.Y1} }

// End returns the target anchor.
func (e *Edge) End() geometry.Point { return geometry.Point{X: e.X2, Y: e.Y2} }

// Indicator is a small marker on an entity side where a connection attaches.
type Indicator struct {
	EntityID     string         `json:"entity_id"`
	ConnectionID string         `json:"connection_id,omitempty"`
	Side         geometry.Side  `json:"side"`
	Offset       float64        `json:"offset"`
	Point        geometry.Point `json:"point"`
}

// DragLine is the temporary line drawn while dragging a new connection.
type DragLine struct {
	Source string         `json:"source"`
	From   geometry.Point `json:"from"`
	To     geometry.Point `json:"to"`
}

// Snapshot is a detached copy of the scene in paint order.
type Snapshot struct {
	Version    int          `json:"version"`
	Entities   []EntityNode `json:"entities"`
	Edges      []Edge       `json:"edges"`
	Indicators []Indicator  `json:"indicators"`
	DragLine   *DragLine    `json:"drag_line,omitempty"`
	Candidate  *Indicator   `json:"candidate,omitempty"`
	Focus      string       `json:"focus,omitempty"`
}

// Entity finds a node in the snapshot.
func (s Snapshot) Entity(id string) (EntityNode, bool) {
	for _, n := range s.Entities {
		if n.ID == id {
			return n, true
		}
	}
	return EntityNode{}, false
}

// Edge finds an edge in the snapshot.
func (s Snapshot) Edge(id string) (Edge, bool) {
	for _, e := range s.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}
