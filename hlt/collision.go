package hlt

import "github.com/go-gl/mathgl/mgl64"

// SegmentCircleIntersect reports whether the segment start→end passes within
// radius+fudge of center.
//
// The segment is parameterised as start + t*(end-start); t of the closest
// approach is the projection of center onto the segment, clamped to [0,1].
func SegmentCircleIntersect(start, end, center Position, radius, fudge float64) bool {
	origin := start.vec()
	dir := end.vec().Sub(origin)
	reach := radius + fudge

	a := dir.Dot(dir)
	if a == 0 {
		return start.DistanceTo(center) <= reach
	}

	t := mgl64.Clamp(center.vec().Sub(origin).Dot(dir)/a, 0, 1)
	closest := fromVec(origin.Add(dir.Mul(t)))
	return closest.DistanceTo(center) <= reach
}
