package hlt

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Position is a point on the map. (0,0) is the top-left corner.
type Position struct {
	X float64
	Y float64
}

func (p Position) vec() mgl64.Vec2 { return mgl64.Vec2{p.X, p.Y} }

func fromVec(v mgl64.Vec2) Position { return Position{X: v.X(), Y: v.Y()} }

func (p Position) Add(d Position) Position {
	return fromVec(p.vec().Add(d.vec()))
}

func (p Position) DistanceTo(o Position) float64 {
	return o.vec().Sub(p.vec()).Len()
}

// OrientTowardsRad is the bearing from p to target in radians.
func (p Position) OrientTowardsRad(target Position) float64 {
	d := target.vec().Sub(p.vec())
	return math.Atan2(d.Y(), d.X())
}

// OrientTowardsDeg is the bearing from p to target rounded to a whole degree
// in [0, 360). Thrust commands only carry whole degrees.
func (p Position) OrientTowardsDeg(target Position) int {
	deg := int(math.Round(mgl64.RadToDeg(p.OrientTowardsRad(target))))
	return ((deg % 360) + 360) % 360
}
