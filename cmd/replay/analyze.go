package main

import (
	"sync/atomic"

	"github.com/brensch/halite/hlt"
)

// turnStats summarizes the spatial picture from the local player's side.
type turnStats struct {
	Ships      int // all ships on the map
	Planets    int
	Approaches int // undocked own ship × planet pairs checked
	Pathable   int // approaches clear of planets
	Obstructed int // approaches with any planet or ship in the way
	Drifting   int // own ships whose velocity carries them off the map
}

func analyzeTurn(m *hlt.Map) turnStats {
	planets := m.AllPlanets()
	st := turnStats{
		Ships:   len(m.AllShips()),
		Planets: len(planets),
	}

	me, err := m.MyPlayer()
	if err != nil {
		return st
	}
	for _, s := range me.Ships() {
		if _, ok := m.PositionDelta(s.Position, s.Velocity); !ok {
			st.Drifting++
		}
		if s.DockingStatus != hlt.Undocked {
			continue
		}
		for _, p := range planets {
			target := nearApproach(m, s, p)
			st.Approaches++
			if m.IsPathable(s.Position, target) {
				st.Pathable++
			}
			if len(m.ObjectsBetween(s.Position, target)) > 0 {
				st.Obstructed++
			}
		}
	}
	return st
}

// nearApproach is the approach point on the ship's side of the planet.
// ClosestPoint measures along the bearing into the target, so it is asked
// from the ship's mirror image behind the planet.
func nearApproach(m *hlt.Map, s hlt.Ship, p hlt.Planet) hlt.Position {
	mirror := hlt.Position{
		X: 2*p.Position.X - s.Position.X,
		Y: 2*p.Position.Y - s.Position.Y,
	}
	return m.ClosestPoint(mirror, p.Position, p.Radius)
}

// counters are shared between the archiver and the monitor.
type counters struct {
	Games      atomic.Int64
	Skipped    atomic.Int64
	Failed     atomic.Int64
	Turns      atomic.Int64
	Rows       atomic.Int64
	Batches    atomic.Int64
	Approaches atomic.Int64
	Pathable   atomic.Int64
	Obstructed atomic.Int64
	Drifting   atomic.Int64
}

func (c *counters) addTurn(st turnStats) {
	c.Turns.Add(1)
	c.Approaches.Add(int64(st.Approaches))
	c.Pathable.Add(int64(st.Pathable))
	c.Obstructed.Add(int64(st.Obstructed))
	c.Drifting.Add(int64(st.Drifting))
}
