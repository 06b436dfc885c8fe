package render

import (
	"canvas-backend/domain/geometry"
)

// HitTest resolves the topmost scene element under p. Entities are painted
// above edges, later entities above earlier ones; within an entity the delete
// control wins over the connect handle, which wins over the content region.
func (s *Sync) HitTest(p geometry.Point) Target {
	for i := len(s.nodeOrder) - 1; i >= 0; i-- {
		n := s.nodes[s.nodeOrder[i]]
		switch {
		case !n.Bounds.Contains(p):
			continue
		case n.DeleteControl.Contains(p):
			return Target{Part: PartDeleteControl, EntityID: n.ID}
		case n.ConnectHandle.Contains(p):
			return Target{Part: PartConnectHandle, EntityID: n.ID}
		case n.ContentRegion.Contains(p):
			return Target{Part: PartContent, EntityID: n.ID}
		default:
			return Target{Part: PartBody, EntityID: n.ID}
		}
	}

	for i := len(s.edgeOrder) - 1; i >= 0; i-- {
		e := s.edges[s.edgeOrder[i]]
		if p.Distance(e.DeleteAt) <= e.DeleteRadius {
			return Target{Part: PartConnectionDelete, ConnectionID: e.ID}
		}
	}
	for i := len(s.edgeOrder) - 1; i >= 0; i-- {
		e := s.edges[s.edgeOrder[i]]
		if geometry.DistanceToSegment(p, e.Hit.From, e.Hit.To) <= e.Hit.Width/2 {
			return Target{Part: PartConnection, ConnectionID: e.ID}
		}
	}
	return Target{Part: PartNone}
}

// EntityAt returns the topmost entity whose bounds contain p.
func (s *Sync) EntityAt(p geometry.Point) (string, bool) {
	for i := len(s.nodeOrder) - 1; i >= 0; i-- {
		n := s.nodes[s.nodeOrder[i]]
		if n.Bounds.Contains(p) {
			return n.ID, true
		}
	}
	return "", false
}
