// Package hlt is the per-turn world model for a Halite II bot.
//
// A Map is built once per game and rebuilt from the engine's turn snapshot
// every turn. It answers the spatial questions the decision layer asks before
// issuing moves: what lies between two points, whether a straight path is
// clear, and where to stop when approaching a planet.
package hlt

// Game constants. Distances are in map units.
const (
	MaxPlayers = 4

	ShipRadius    = 0.5
	MaxShipHealth = 255
	MaxSpeed      = 7

	WeaponCooldown = 1
	WeaponRadius   = 5.0
	WeaponDamage   = 64

	DockRadius = 4.0
	DockTurns  = 5

	// ForecastFudgeFactor is added to every entity radius when testing a
	// segment for obstructions. Both ObjectsBetween and IsPathable use it.
	ForecastFudgeFactor = ShipRadius + 0.1

	// MinApproachDistance is the standoff kept from a planet's surface by
	// ClosestPoint.
	MinApproachDistance = 3
)
