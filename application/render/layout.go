package render

import (
	"sort"
	"unicode/utf8"

	"canvas-backend/domain/config"
	"canvas-backend/domain/geometry"
)

// layoutParts positions the interactive parts of a block inside bounds.
func layoutParts(n *EntityNode, cfg *config.DomainConfig) {
	b := n.Bounds
	n.ContentRegion = b.Inset(cfg.HeaderHeight, cfg.ContentPadding, cfg.ContentPadding, cfg.ContentPadding)
	n.DeleteControl = geometry.Rect{
		X:      b.Right() - cfg.DeleteControlSize,
		Y:      b.Y,
		Width:  cfg.DeleteControlSize,
		Height: cfg.DeleteControlSize,
	}
	n.ConnectHandle = geometry.Rect{
		X:      b.Right() - cfg.ConnectHandleSize,
		Y:      b.Bottom() - cfg.ConnectHandleSize,
		Width:  cfg.ConnectHandleSize,
		Height: cfg.ConnectHandleSize,
	}
}

// layoutBadges lays tags out in rows under the block, wrapping at its width.
func layoutBadges(tags []string, bounds geometry.Rect, cfg *config.DomainConfig) []TagBadge {
	badges := make([]TagBadge, 0, len(tags))
	x := bounds.X
	y := bounds.Bottom() + cfg.TagBadgeGap

	for _, tag := range tags {
		// One extra character for the leading '#'.
		w := float64(utf8.RuneCountInString(tag)+1)*cfg.TagBadgeCharWidth + 2*cfg.TagBadgePadding
		if x > bounds.X && x+w > bounds.Right() {
			x = bounds.X
			y += cfg.TagBadgeHeight + cfg.TagBadgeGap
		}
		badges = append(badges, TagBadge{
			Label:  tag,
			Bounds: geometry.Rect{X: x, Y: y, Width: w, Height: cfg.TagBadgeHeight},
		})
		x += w + cfg.TagBadgeGap
	}
	return badges
}

// spreadOffsets pushes sorted offsets apart so neighbours are at least gap
// apart, keeping them inside [0,1]. When they cannot all fit they are spaced
// evenly along the side.
func spreadOffsets(offsets []float64, gap float64) []float64 {
	n := len(offsets)
	out := make([]float64, n)
	copy(out, offsets)
	if n < 2 || gap <= 0 {
		return out
	}
	if gap*float64(n-1) > 1 {
		for i := range out {
			out[i] = float64(i+1) / float64(n+1)
		}
		return out
	}

	for i := 1; i < n; i++ {
		if out[i] < out[i-1]+gap {
			out[i] = out[i-1] + gap
		}
	}
	if over := out[n-1] - 1; over > 0 {
		for i := range out {
			out[i] -= over
		}
	}
	for i := n - 2; i >= 0; i-- {
		if out[i] > out[i+1]-gap {
			out[i] = out[i+1] - gap
		}
	}
	for i := range out {
		if out[i] < 0 {
			out[i] = 0
		}
	}
	return out
}

// anchor is one endpoint of an edge as seen from the entity it sits on.
type anchor struct {
	connectionID string
	side         geometry.Side
	point        geometry.Point
}

// groupIndicators builds the indicators of one entity from its anchors,
// grouped by side and spread apart.
func groupIndicators(entityID string, bounds geometry.Rect, anchors []anchor, minGap float64) []Indicator {
	bySide := make(map[geometry.Side][]anchor)
	for _, a := range anchors {
		bySide[a.side] = append(bySide[a.side], a)
	}

	var out []Indicator
	for _, side := range geometry.Sides {
		group := bySide[side]
		if len(group) == 0 {
			continue
		}
		offsets := make([]float64, len(group))
		for i, a := range group {
			offsets[i] = geometry.EdgePosition(a.point, side, bounds)
		}
		idx := make([]int, len(group))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			if offsets[idx[a]] != offsets[idx[b]] {
				return offsets[idx[a]] < offsets[idx[b]]
			}
			return group[idx[a]].connectionID < group[idx[b]].connectionID
		})

		sorted := make([]float64, len(idx))
		for i, j := range idx {
			sorted[i] = offsets[j]
		}
		gap := 0.0
		if l := geometry.SideLength(side, bounds); l > 0 {
			gap = minGap / l
		}
		spread := spreadOffsets(sorted, gap)

		for i, j := range idx {
			out = append(out, Indicator{
				EntityID:     entityID,
				ConnectionID: group[j].connectionID,
				Side:         side,
				Offset:       spread[i],
				Point:        geometry.PointOnSide(side, spread[i], bounds),
			})
		}
	}
	return out
}
