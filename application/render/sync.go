// Package render keeps the visual scene in step with the graph store. It never
// mutates the graph; it reads copies and derives positions, anchors, indicators
// and tag badges.
package render

import (
	"go.uber.org/zap"

	"canvas-backend/domain/config"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/geometry"
	"canvas-backend/domain/services"
)

// GraphReader is the read side of the graph store.
type GraphReader interface {
	Entity(id valueobjects.EntityID) (entities.Entity, bool)
	Entities() []entities.Entity
	Connection(id valueobjects.ConnectionID) (entities.Connection, bool)
	Connections() []entities.Connection
	ConnectionsOf(id valueobjects.EntityID) []entities.Connection
}

// Size is a host-measured block size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Sync owns the scene. It is not safe for concurrent use.
type Sync struct {
	graph  GraphReader
	tags   services.TagExtractor
	cfg    *config.DomainConfig
	logger *zap.Logger

	nodes     map[valueobjects.EntityID]*EntityNode
	nodeOrder []valueobjects.EntityID
	edges     map[valueobjects.ConnectionID]*Edge
	edgeOrder []valueobjects.ConnectionID

	indicators map[valueobjects.EntityID][]Indicator
	sizes      map[valueobjects.EntityID]Size

	dragLine  *DragLine
	candidate *Indicator
	focus     valueobjects.EntityID

	version int
}

// NewSync creates an empty scene bound to graph.
func NewSync(graph GraphReader, tags services.TagExtractor, cfg *config.DomainConfig, logger *zap.Logger) *Sync {
	return &Sync{
		graph:      graph,
		tags:       tags,
		cfg:        cfg,
		logger:     logger,
		nodes:      make(map[valueobjects.EntityID]*EntityNode),
		edges:      make(map[valueobjects.ConnectionID]*Edge),
		indicators: make(map[valueobjects.EntityID][]Indicator),
		sizes:      make(map[valueobjects.EntityID]Size),
	}
}

// SetConfig swaps the tunables and re-lays out the whole scene.
func (s *Sync) SetConfig(cfg *config.DomainConfig) {
	s.cfg = cfg
	s.RenderAll()
}

// RenderAll rebuilds the scene from the graph. Focus survives when its
// entity still exists; transient drag visuals are dropped.
func (s *Sync) RenderAll() {
	clear(s.nodes)
	clear(s.edges)
	clear(s.indicators)
	s.nodeOrder = s.nodeOrder[:0]
	s.edgeOrder = s.edgeOrder[:0]
	s.dragLine = nil
	s.candidate = nil

	for _, e := range s.graph.Entities() {
		s.upsertNode(e)
	}
	for _, c := range s.graph.Connections() {
		s.upsertEdge(c)
	}
	for id := range s.nodes {
		s.refreshIndicators(id)
	}
	for id := range s.sizes {
		if _, ok := s.nodes[id]; !ok {
			delete(s.sizes, id)
		}
	}
	if _, ok := s.nodes[s.focus]; !ok {
		s.focus = valueobjects.EntityID{}
	}
	s.version++
}

// RenderEntity adds or refreshes one entity node from the graph. Its edges
// are not touched. A missing entity is removed from the scene.
func (s *Sync) RenderEntity(id valueobjects.EntityID) bool {
	e, ok := s.graph.Entity(id)
	if !ok {
		s.RemoveEntity(id)
		return false
	}
	s.upsertNode(e)
	s.version++
	return true
}

// RemoveEntity drops a node with its edges and indicators.
func (s *Sync) RemoveEntity(id valueobjects.EntityID) {
	if _, ok := s.nodes[id]; !ok {
		return
	}
	affected := map[valueobjects.EntityID]bool{}
	for _, cid := range append([]valueobjects.ConnectionID(nil), s.edgeOrder...) {
		edge := s.edges[cid]
		if edge.Source == id.String() || edge.Target == id.String() {
			for _, end := range []string{edge.Source, edge.Target} {
				if other, err := valueobjects.EntityIDFromString(end); err == nil && other != id {
					affected[other] = true
				}
			}
			s.dropEdge(cid)
		}
	}
	delete(s.nodes, id)
	delete(s.indicators, id)
	delete(s.sizes, id)
	s.nodeOrder = removeID(s.nodeOrder, id)
	if s.focus == id {
		s.focus = valueobjects.EntityID{}
	}
	for other := range affected {
		s.refreshIndicators(other)
	}
	s.version++
}

// RenderConnection draws one connection and refreshes the indicators of both
// endpoints. Both endpoints must already be rendered.
func (s *Sync) RenderConnection(id valueobjects.ConnectionID) bool {
	c, ok := s.graph.Connection(id)
	if !ok {
		s.RemoveConnection(id)
		return false
	}
	if !s.upsertEdge(c) {
		return false
	}
	s.refreshIndicators(c.Source())
	s.refreshIndicators(c.Target())
	s.version++
	return true
}

// RemoveConnection drops one edge and refreshes its endpoints' indicators.
func (s *Sync) RemoveConnection(id valueobjects.ConnectionID) {
	edge, ok := s.edges[id]
	if !ok {
		return
	}
	source, target := edge.Source, edge.Target
	s.dropEdge(id)
	for _, end := range []string{source, target} {
		if eid, err := valueobjects.EntityIDFromString(end); err == nil {
			s.refreshIndicators(eid)
		}
	}
	s.version++
}

// MoveEntity moves a node to topLeft without touching the graph and redraws
// its connections. Used while dragging.
func (s *Sync) MoveEntity(id valueobjects.EntityID, topLeft geometry.Point) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.Bounds = n.Bounds.MoveTo(topLeft)
	layoutParts(n, s.cfg)
	n.Tags = layoutBadges(tagLabels(n.Tags), n.Bounds, s.cfg)
	n.Revision++
	s.RedrawConnectionsFor(id)
	return true
}

// RedrawConnectionsFor recomputes both anchors of every connection touching
// id, and the indicators of every entity on those connections. Nothing else
// in the scene changes.
func (s *Sync) RedrawConnectionsFor(id valueobjects.EntityID) {
	affected := map[valueobjects.EntityID]bool{id: true}
	for _, c := range s.graph.ConnectionsOf(id) {
		if s.upsertEdge(c) {
			affected[c.Source()] = true
			affected[c.Target()] = true
		}
	}
	for eid := range affected {
		s.refreshIndicators(eid)
	}
	s.version++
}

// UpdateContent re-reads an entity's content and redraws its tag badges.
// Focus is left alone so typing is not interrupted.
func (s *Sync) UpdateContent(id valueobjects.EntityID) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	e, ok := s.graph.Entity(id)
	if !ok {
		s.RemoveEntity(id)
		return false
	}
	n.Content = e.Content()
	n.Tags = layoutBadges(s.tags.ExtractTags(n.Content), n.Bounds, s.cfg)
	n.Revision++
	s.version++
	return true
}

// SetEntitySize records a host-measured size for a block and re-lays it out.
func (s *Sync) SetEntitySize(id valueobjects.EntityID, size Size) bool {
	if size.Width <= 0 || size.Height <= 0 {
		return false
	}
	s.sizes[id] = size
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.Bounds.Width, n.Bounds.Height = size.Width, size.Height
	layoutParts(n, s.cfg)
	n.Tags = layoutBadges(tagLabels(n.Tags), n.Bounds, s.cfg)
	n.Revision++
	s.RedrawConnectionsFor(id)
	return true
}

// Bounds returns the rendered bounds of an entity.
func (s *Sync) Bounds(id valueobjects.EntityID) (geometry.Rect, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return geometry.Rect{}, false
	}
	return n.Bounds, true
}

// HasEntity reports whether the entity is on screen.
func (s *Sync) HasEntity(id valueobjects.EntityID) bool {
	_, ok := s.nodes[id]
	return ok
}

// ShowDragLine draws or moves the temporary connection line.
func (s *Sync) ShowDragLine(source valueobjects.EntityID, from, to geometry.Point) {
	s.dragLine = &DragLine{Source: source.String(), From: from, To: to}
	s.version++
}

// ClearDragLine removes the temporary connection line.
func (s *Sync) ClearDragLine() {
	if s.dragLine != nil {
		s.dragLine = nil
		s.version++
	}
}

// ShowCandidate shows the single indicator previewing where a new
// connection would attach on id.
func (s *Sync) ShowCandidate(id valueobjects.EntityID, side geometry.Side, point geometry.Point) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	s.candidate = &Indicator{
		EntityID: id.String(),
		Side:     side,
		Offset:   geometry.EdgePosition(point, side, n.Bounds),
		Point:    point,
	}
	s.version++
}

// ClearCandidate hides the candidate indicator.
func (s *Sync) ClearCandidate() {
	if s.candidate != nil {
		s.candidate = nil
		s.version++
	}
}

// Focus moves input focus to an entity's content. It reports false when the
// entity is no longer rendered.
func (s *Sync) Focus(id valueobjects.EntityID) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	s.focus = id
	s.version++
	return true
}

// FocusedEntity returns the focused entity, if any.
func (s *Sync) FocusedEntity() (valueobjects.EntityID, bool) {
	return s.focus, !s.focus.IsZero()
}

// Version increases on every scene change.
func (s *Sync) Version() int { return s.version }

// Snapshot returns a detached copy of the scene.
func (s *Sync) Snapshot() Snapshot {
	snap := Snapshot{
		Version:    s.version,
		Entities:   make([]EntityNode, 0, len(s.nodeOrder)),
		Edges:      make([]Edge, 0, len(s.edgeOrder)),
		Indicators: []Indicator{},
		Focus:      s.focus.String(),
	}
	for _, id := range s.nodeOrder {
		n := *s.nodes[id]
		n.Tags = append([]TagBadge(nil), n.Tags...)
		n.Focused = id == s.focus
		snap.Entities = append(snap.Entities, n)
		snap.Indicators = append(snap.Indicators, s.indicators[id]...)
	}
	for _, id := range s.edgeOrder {
		snap.Edges = append(snap.Edges, *s.edges[id])
	}
	if s.dragLine != nil {
		dl := *s.dragLine
		snap.DragLine = &dl
	}
	if s.candidate != nil {
		c := *s.candidate
		snap.Candidate = &c
	}
	return snap
}

// Indicators returns the indicators currently drawn on an entity.
func (s *Sync) Indicators(id valueobjects.EntityID) []Indicator {
	return append([]Indicator(nil), s.indicators[id]...)
}

func (s *Sync) sizeOf(id valueobjects.EntityID) Size {
	if sz, ok := s.sizes[id]; ok {
		return sz
	}
	return Size{Width: s.cfg.DefaultEntityWidth, Height: s.cfg.DefaultEntityHeight}
}

func (s *Sync) upsertNode(e entities.Entity) {
	id := e.ID()
	size := s.sizeOf(id)
	n, exists := s.nodes[id]
	if !exists {
		n = &EntityNode{ID: id.String()}
		s.nodes[id] = n
		s.nodeOrder = append(s.nodeOrder, id)
	}
	n.Bounds = geometry.Rect{X: e.Position().X(), Y: e.Position().Y(), Width: size.Width, Height: size.Height}
	n.Content = e.Content()
	n.Dashed = e.Dashed()
	layoutParts(n, s.cfg)
	n.Tags = layoutBadges(s.tags.ExtractTags(n.Content), n.Bounds, s.cfg)
	n.Revision++
}

// upsertEdge computes the edge for c from the rendered endpoint bounds.
func (s *Sync) upsertEdge(c entities.Connection) bool {
	src, okS := s.nodes[c.Source()]
	tgt, okT := s.nodes[c.Target()]
	if !okS || !okT {
		s.logger.Debug("Skipping connection with unrendered endpoint",
			zap.String("connectionID", c.ID().String()),
			zap.String("source", c.Source().String()),
			zap.String("target", c.Target().String()),
		)
		return false
	}

	a, b := src.Bounds, tgt.Bounds
	start := geometry.IntersectEdge(a, a.Center(), b.Center())
	end := geometry.IntersectEdge(b, b.Center(), a.Center())

	edge, exists := s.edges[c.ID()]
	if !exists {
		edge = &Edge{ID: c.ID().String()}
		s.edges[c.ID()] = edge
		s.edgeOrder = append(s.edgeOrder, c.ID())
	}
	edge.Source = c.Source().String()
	edge.Target = c.Target().String()
	edge.X1, edge.Y1 = start.Point.X, start.Point.Y
	edge.X2, edge.Y2 = end.Point.X, end.Point.Y
	edge.SourceSide = start.Side
	edge.TargetSide = end.Side
	edge.Dashed = src.Dashed || tgt.Dashed
	edge.Hit = HitRegion{From: start.Point, To: end.Point, Width: s.cfg.HitRegionWidth}
	edge.DeleteAt = geometry.Midpoint(start.Point, end.Point)
	edge.DeleteRadius = s.cfg.DeleteAffordanceRadius
	edge.Revision++
	return true
}

func (s *Sync) dropEdge(id valueobjects.ConnectionID) {
	delete(s.edges, id)
	for i, cid := range s.edgeOrder {
		if cid == id {
			s.edgeOrder = append(s.edgeOrder[:i], s.edgeOrder[i+1:]...)
			break
		}
	}
}

// refreshIndicators regroups the anchors of every rendered edge on id.
func (s *Sync) refreshIndicators(id valueobjects.EntityID) {
	n, ok := s.nodes[id]
	if !ok {
		delete(s.indicators, id)
		return
	}
	var anchors []anchor
	for _, cid := range s.edgeOrder {
		e := s.edges[cid]
		if e.Source == n.ID {
			anchors = append(anchors, anchor{connectionID: e.ID, side: e.SourceSide, point: e.Start()})
		}
		if e.Target == n.ID {
			anchors = append(anchors, anchor{connectionID: e.ID, side: e.TargetSide, point: e.End()})
		}
	}
	if len(anchors) == 0 {
		delete(s.indicators, id)
		return
	}
	s.indicators[id] = groupIndicators(n.ID, n.Bounds, anchors, s.cfg.IndicatorMinGap)
}

func tagLabels(badges []TagBadge) []string {
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = b.Label
	}
	return out
}

func removeID(ids []valueobjects.EntityID, id valueobjects.EntityID) []valueobjects.EntityID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
