package hlt

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ObjectsBetween returns the planets and ships whose forecast collision circle
// crosses the segment start→target. Planets come first in id order, then ships
// in AllShips order. Entities sitting exactly on either endpoint are skipped so
// the query's own origin and destination never count as obstructions.
func (m *Map) ObjectsBetween(start, target Position) []Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []Entity
	for _, id := range m.planetIDs {
		p := m.planets[id]
		if obstructs(start, target, p) {
			objects = append(objects, p)
		}
	}
	for _, s := range m.ships {
		if obstructs(start, target, s) {
			objects = append(objects, s)
		}
	}

	m.log.Debug("objects between", "start", start, "target", target, "objects", len(objects))
	return objects
}

// ObjectsBetweenEntities is ObjectsBetween for two entity centers.
func (m *Map) ObjectsBetweenEntities(start, target Entity) []Entity {
	return m.ObjectsBetween(start.Center(), target.Center())
}

func obstructs(start, target Position, e Entity) bool {
	c := e.Center()
	if c == start || c == target {
		return false
	}
	return SegmentCircleIntersect(start, target, c, e.CollisionRadius(), ForecastFudgeFactor)
}

// IsOutOfBounds reports whether (x, y) lies outside [0,width) x [0,height).
func (m *Map) IsOutOfBounds(x, y float64) bool {
	return x < 0 || x >= float64(m.width) || y < 0 || y >= float64(m.height)
}

// PositionDelta translates origin by delta. ok is false when the result
// falls off the map; that is a blocked move, not an error.
func (m *Map) PositionDelta(origin, delta Position) (pos Position, ok bool) {
	pos = origin.Add(delta)
	if m.IsOutOfBounds(pos.X, pos.Y) {
		return Position{}, false
	}
	return pos, true
}

// ClosestPoint returns the point targetRadius+MinApproachDistance away from
// target along the start→target bearing, i.e. on the far side of target as
// seen from start. The bearing is rounded to a whole degree first.
//
// Unless Options.ExactApproach is set, each coordinate is truncated toward
// zero, which loses up to one unit of precision.
func (m *Map) ClosestPoint(start, target Position, targetRadius float64) Position {
	radius := targetRadius + MinApproachDistance
	angle := mgl64.DegToRad(float64(start.OrientTowardsDeg(target)))

	p := target.Add(Position{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)})
	if !m.opts.ExactApproach {
		p.X = math.Trunc(p.X)
		p.Y = math.Trunc(p.Y)
	}
	return p
}

// ClosestPointTo is ClosestPoint toward an entity, using its radius.
func (m *Map) ClosestPointTo(start, target Entity) Position {
	return m.ClosestPoint(start.Center(), target.Center(), target.CollisionRadius())
}

// IsPathable reports whether target is on the map and the straight segment
// from start reaches it without crossing any planet's forecast circle.
// Ships are not considered; use IsPathableAll for that.
func (m *Map) IsPathable(start, target Position) bool {
	if m.IsOutOfBounds(target.X, target.Y) {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.planetIDs {
		p := m.planets[id]
		if SegmentCircleIntersect(start, target, p.Position, p.Radius, ForecastFudgeFactor) {
			return false
		}
	}
	return true
}

// IsPathableAll is IsPathable that also treats ships as obstructions. As with
// ObjectsBetween, entities exactly at start or target are ignored.
func (m *Map) IsPathableAll(start, target Position) bool {
	if m.IsOutOfBounds(target.X, target.Y) {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.planetIDs {
		if obstructs(start, target, m.planets[id]) {
			return false
		}
	}
	for _, s := range m.ships {
		if obstructs(start, target, s) {
			return false
		}
	}
	return true
}
