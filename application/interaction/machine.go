// Package interaction turns pointer events into drags: moving a block, or
// drawing a new connection from a block's connect handle.
package interaction

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"canvas-backend/application/ports"
	"canvas-backend/application/render"
	"canvas-backend/domain/config"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/geometry"
)

// Graph is what the machine needs from the graph store.
type Graph interface {
	Entity(id valueobjects.EntityID) (entities.Entity, bool)
	UpdateEntityPosition(ctx context.Context, id valueobjects.EntityID, position valueobjects.Position) bool
	CreateConnection(ctx context.Context, source, target valueobjects.EntityID) (entities.Connection, bool)
}

// Scene is what the machine needs from render sync.
type Scene interface {
	HitTest(p geometry.Point) render.Target
	Bounds(id valueobjects.EntityID) (geometry.Rect, bool)
	MoveEntity(id valueobjects.EntityID, topLeft geometry.Point) bool
	RenderEntity(id valueobjects.EntityID) bool
	RedrawConnectionsFor(id valueobjects.EntityID)
	RenderConnection(id valueobjects.ConnectionID) bool
	ShowDragLine(source valueobjects.EntityID, from, to geometry.Point)
	ClearDragLine()
	ShowCandidate(id valueobjects.EntityID, side geometry.Side, point geometry.Point)
	ClearCandidate()
}

// Event is a pointer event in canvas-local coordinates. Target carries the
// element the host already resolved; when nil the scene is hit-tested.
type Event struct {
	Kind   EventKind
	Point  geometry.Point
	Target *render.Target
}

// Result describes what an event did.
type Result struct {
	Phase        Phase         `json:"phase"`
	Target       render.Target `json:"target"`
	Handled      bool          `json:"handled"`
	Committed    bool          `json:"committed,omitempty"`
	ConnectionID string        `json:"connection_id,omitempty"`
}

// Machine is the interaction state machine. Drags start only from Idle and
// always end in Idle. It is not safe for concurrent use.
type Machine struct {
	state   State
	graph   Graph
	scene   Scene
	cfg     *config.DomainConfig
	logger  *zap.Logger
	metrics ports.MetricsRecorder

	canvasWidth float64
}

// NewMachine creates a machine in Idle.
func NewMachine(graph Graph, scene Scene, cfg *config.DomainConfig, logger *zap.Logger, metrics ports.MetricsRecorder) *Machine {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Machine{
		state:       Idle{},
		graph:       graph,
		scene:       scene,
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		canvasWidth: cfg.CanvasWidth,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// SetCanvasWidth sets the width that bounds horizontal drags.
func (m *Machine) SetCanvasWidth(w float64) {
	if w > 0 {
		m.canvasWidth = w
	}
}

// CanvasWidth returns the width that bounds horizontal drags.
func (m *Machine) CanvasWidth() float64 { return m.canvasWidth }

// SetConfig swaps the tunables. An explicit canvas width set by the host is kept.
func (m *Machine) SetConfig(cfg *config.DomainConfig) {
	if m.canvasWidth == m.cfg.CanvasWidth {
		m.canvasWidth = cfg.CanvasWidth
	}
	m.cfg = cfg
}

// Handle dispatches ev to the matching handler.
func (m *Machine) Handle(ctx context.Context, ev Event) Result {
	m.metrics.RecordPointerEvent(ev.Kind.String())
	switch ev.Kind {
	case PointerDown:
		return m.PointerDown(ev.Point, ev.Target)
	case PointerMove:
		return m.PointerMove(ev.Point)
	case PointerUp:
		return m.PointerUp(ctx, ev.Point, ev.Target)
	default:
		m.Cancel()
		return Result{Phase: m.state.Phase(), Handled: true}
	}
}

// PointerDown starts a drag when the pointer lands on a block body or a
// connect handle. Other targets, and any event outside Idle, are ignored.
func (m *Machine) PointerDown(p geometry.Point, target *render.Target) Result {
	hit := m.resolve(p, target)
	res := Result{Phase: m.state.Phase(), Target: hit}
	if _, idle := m.state.(Idle); !idle {
		return res
	}

	switch hit.Part {
	case render.PartBody:
		id, bounds, ok := m.entityBounds(hit.EntityID)
		if !ok {
			return res
		}
		origin := bounds.Origin()
		m.transition(DraggingEntity{
			EntityID: id,
			Offset:   p.Sub(origin),
			Origin:   origin,
			Current:  origin,
		})

	case render.PartConnectHandle:
		id, _, ok := m.entityBounds(hit.EntityID)
		if !ok {
			return res
		}
		m.transition(DraggingConnection{Source: id, Pointer: p})
		m.drawConnectionDrag(id, p)

	default:
		return res
	}

	res.Phase = m.state.Phase()
	res.Handled = true
	return res
}

// PointerMove advances the active drag.
func (m *Machine) PointerMove(p geometry.Point) Result {
	switch st := m.state.(type) {
	case Idle:
		return Result{Phase: PhaseIdle}

	case DraggingEntity:
		bounds, ok := m.liveBounds(st.EntityID)
		if !ok {
			m.abort("entity disappeared during drag", st.EntityID)
			return Result{Phase: PhaseIdle, Handled: true}
		}
		next := m.constrain(p.Sub(st.Offset), bounds.Width)
		m.scene.MoveEntity(st.EntityID, next)
		st.Current = next
		m.state = st
		return Result{Phase: PhaseDraggingEntity, Handled: true}

	case DraggingConnection:
		if _, ok := m.liveBounds(st.Source); !ok {
			m.abort("connection source disappeared during drag", st.Source)
			return Result{Phase: PhaseIdle, Handled: true}
		}
		st.Pointer = p
		m.state = st
		m.drawConnectionDrag(st.Source, p)
		return Result{Phase: PhaseDraggingConnection, Handled: true}

	default:
		return m.resetUnknown()
	}
}

// PointerUp ends the active drag. A block drag commits its position unless
// the block moved less than the significant-move threshold, in which case it
// snaps back. A connection drag creates a connection when released over a
// different block. Either way the machine returns to Idle.
func (m *Machine) PointerUp(ctx context.Context, p geometry.Point, target *render.Target) Result {
	switch st := m.state.(type) {
	case Idle:
		return Result{Phase: PhaseIdle, Target: m.resolve(p, target)}

	case DraggingEntity:
		if _, ok := m.liveBounds(st.EntityID); !ok {
			m.abort("entity disappeared before release", st.EntityID)
			return Result{Phase: PhaseIdle, Handled: true}
		}
		m.transition(Idle{})

		if st.Current.Distance(st.Origin) < m.cfg.SignificantMoveThreshold {
			m.scene.MoveEntity(st.EntityID, st.Origin)
			return Result{Phase: PhaseIdle, Handled: true}
		}
		pos, err := valueobjects.PositionFromPoint(st.Current)
		if err != nil {
			m.logger.Warn("Dropping drag with invalid position", zap.Error(err))
			m.scene.MoveEntity(st.EntityID, st.Origin)
			return Result{Phase: PhaseIdle, Handled: true}
		}
		committed := m.graph.UpdateEntityPosition(ctx, st.EntityID, pos)
		return Result{Phase: PhaseIdle, Handled: true, Committed: committed}

	case DraggingConnection:
		m.scene.ClearDragLine()
		m.scene.ClearCandidate()
		m.transition(Idle{})

		hit := m.resolve(p, target)
		res := Result{Phase: PhaseIdle, Target: hit, Handled: true}
		if !hit.Part.OnEntity() || hit.EntityID == st.Source.String() {
			return res
		}
		targetID, err := valueobjects.EntityIDFromString(hit.EntityID)
		if err != nil {
			return res
		}
		c, ok := m.graph.CreateConnection(ctx, st.Source, targetID)
		if !ok {
			return res
		}
		m.scene.RenderConnection(c.ID())
		res.Committed = true
		res.ConnectionID = c.ID().String()
		return res

	default:
		return m.resetUnknown()
	}
}

// Cancel abandons any drag without committing. A moved block goes back to
// where it started.
func (m *Machine) Cancel() {
	switch st := m.state.(type) {
	case Idle:
		return
	case DraggingEntity:
		if _, ok := m.liveBounds(st.EntityID); ok {
			m.scene.MoveEntity(st.EntityID, st.Origin)
		}
	case DraggingConnection:
		m.scene.ClearDragLine()
		m.scene.ClearCandidate()
	}
	m.transition(Idle{})
}

// EntityRemoved must be called when an entity is deleted so a drag on it
// ends at once.
func (m *Machine) EntityRemoved(id valueobjects.EntityID) {
	switch st := m.state.(type) {
	case DraggingEntity:
		if st.EntityID == id {
			m.abort("dragged entity deleted", id)
		}
	case DraggingConnection:
		if st.Source == id {
			m.abort("connection source deleted", id)
		}
	}
}

func (m *Machine) drawConnectionDrag(source valueobjects.EntityID, p geometry.Point) {
	bounds, ok := m.scene.Bounds(source)
	if !ok {
		return
	}
	center := bounds.Center()
	if geometry.IsZeroRay(center, p) {
		// Direction undefined; keep whatever is drawn.
		return
	}
	exit := geometry.IntersectEdge(bounds, center, p)
	m.scene.ShowDragLine(source, exit.Point, p)
	m.scene.ShowCandidate(source, exit.Side, exit.Point)
}

// constrain keeps x within [0, canvasWidth-width]; y is free.
func (m *Machine) constrain(p geometry.Point, width float64) geometry.Point {
	maxX := math.Max(0, m.canvasWidth-width)
	p.X = math.Min(math.Max(p.X, 0), maxX)
	return p
}

func (m *Machine) resolve(p geometry.Point, target *render.Target) render.Target {
	if target != nil {
		return *target
	}
	return m.scene.HitTest(p)
}

func (m *Machine) entityBounds(raw string) (valueobjects.EntityID, geometry.Rect, bool) {
	id, err := valueobjects.EntityIDFromString(raw)
	if err != nil {
		return valueobjects.EntityID{}, geometry.Rect{}, false
	}
	bounds, ok := m.liveBounds(id)
	return id, bounds, ok
}

// liveBounds returns the rendered bounds of an entity that still exists in
// the graph.
func (m *Machine) liveBounds(id valueobjects.EntityID) (geometry.Rect, bool) {
	if _, ok := m.graph.Entity(id); !ok {
		return geometry.Rect{}, false
	}
	return m.scene.Bounds(id)
}

func (m *Machine) abort(reason string, id valueobjects.EntityID) {
	m.logger.Debug("Aborting drag", zap.String("reason", reason), zap.String("entityID", id.String()))
	m.scene.ClearDragLine()
	m.scene.ClearCandidate()
	m.transition(Idle{})
}

// Redraw re-applies the live drag visuals after the scene was rebuilt from
// the graph. It does nothing while idle.
func (m *Machine) Redraw() {
	switch st := m.state.(type) {
	case DraggingEntity:
		m.scene.MoveEntity(st.EntityID, st.Current)
	case DraggingConnection:
		m.drawConnectionDrag(st.Source, st.Pointer)
	}
}

// resetUnknown resets a state the machine does not know back to Idle.
func (m *Machine) resetUnknown() Result {
	m.logger.Error("Unknown interaction state, resetting to idle", zap.String("state", fmt.Sprintf("%T", m.state)))
	m.scene.ClearDragLine()
	m.scene.ClearCandidate()
	m.state = Idle{}
	return Result{Phase: PhaseIdle, Handled: true}
}

func (m *Machine) transition(next State) {
	prev := m.state
	m.state = next
	if prev.Phase() != next.Phase() {
		m.metrics.RecordTransition(prev.Phase().String(), next.Phase().String())
	}
}
