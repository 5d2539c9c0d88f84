package hlt

import (
	"errors"
	"fmt"
)

type (
	// PlayerID is a player's slot in the turn snapshot. Parsed as a 16-bit value.
	PlayerID int
	// EntityID identifies a ship or planet. Stable across turns.
	EntityID int64
)

// NoOwner marks an unowned planet.
const NoOwner PlayerID = -1

// Entity is anything with a collision circle.
type Entity interface {
	EntityID() EntityID
	Center() Position
	CollisionRadius() float64
}

type DockingStatus int

const (
	Undocked DockingStatus = iota
	Docking
	Docked
	Undocking
)

func (s DockingStatus) String() string {
	switch s {
	case Undocked:
		return "undocked"
	case Docking:
		return "docking"
	case Docked:
		return "docked"
	case Undocking:
		return "undocking"
	default:
		return fmt.Sprintf("DockingStatus(%d)", int(s))
	}
}

type Ship struct {
	ID              EntityID
	Owner           PlayerID
	Position        Position
	Radius          float64
	Health          int
	Velocity        Position
	DockingStatus   DockingStatus
	DockedPlanet    EntityID
	DockingProgress int
	WeaponCooldown  int
}

func (s Ship) EntityID() EntityID       { return s.ID }
func (s Ship) Center() Position         { return s.Position }
func (s Ship) CollisionRadius() float64 { return s.Radius }

// CanDock reports whether p is close enough to start docking.
func (s Ship) CanDock(p Planet) bool {
	return s.Position.DistanceTo(p.Position) <= ShipRadius+DockRadius+p.Radius
}

type Planet struct {
	ID                  EntityID
	Owner               PlayerID
	Position            Position
	Radius              float64
	Health              int
	DockingSpots        int
	CurrentProduction   int
	RemainingProduction int
	DockedShips         []EntityID
}

func (p Planet) EntityID() EntityID       { return p.ID }
func (p Planet) Center() Position         { return p.Position }
func (p Planet) CollisionRadius() float64 { return p.Radius }

func (p Planet) IsOwned() bool { return p.Owner != NoOwner }

func (p Planet) IsFull() bool { return len(p.DockedShips) >= p.DockingSpots }

var errNegativeRadius = errors.New("negative radius")

// readShips consumes a ship count followed by that many ship records.
// Layout per ship: id x y health velX velY dockingStatus dockedPlanet dockingProgress weaponCooldown
func readShips(owner PlayerID, t *Tokens) ([]Ship, error) {
	n, err := t.Int("ship count")
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &MalformedSnapshotError{Field: "ship count", Token: fmt.Sprint(n), Err: errors.New("negative count")}
	}

	// Each ship needs at least one token, so the remaining count bounds n.
	ships := make([]Ship, 0, min(n, t.Remaining()))
	for i := 0; i < n; i++ {
		s, err := readShip(owner, t)
		if err != nil {
			return nil, err
		}
		ships = append(ships, s)
	}
	return ships, nil
}

func readShip(owner PlayerID, t *Tokens) (Ship, error) {
	s := Ship{Owner: owner, Radius: ShipRadius}

	id, err := t.Int64("ship id")
	if err != nil {
		return Ship{}, err
	}
	s.ID = EntityID(id)

	if s.Position.X, err = t.Float("ship x"); err != nil {
		return Ship{}, err
	}
	if s.Position.Y, err = t.Float("ship y"); err != nil {
		return Ship{}, err
	}
	if s.Health, err = t.Int("ship health"); err != nil {
		return Ship{}, err
	}
	if s.Velocity.X, err = t.Float("ship velocity x"); err != nil {
		return Ship{}, err
	}
	if s.Velocity.Y, err = t.Float("ship velocity y"); err != nil {
		return Ship{}, err
	}

	status, err := t.Int("ship docking status")
	if err != nil {
		return Ship{}, err
	}
	s.DockingStatus = DockingStatus(status)

	docked, err := t.Int64("ship docked planet")
	if err != nil {
		return Ship{}, err
	}
	s.DockedPlanet = EntityID(docked)

	if s.DockingProgress, err = t.Int("ship docking progress"); err != nil {
		return Ship{}, err
	}
	if s.WeaponCooldown, err = t.Int("ship weapon cooldown"); err != nil {
		return Ship{}, err
	}
	return s, nil
}

// readPlanet consumes one planet record.
// Layout: id x y health radius dockingSpots currentProduction remainingProduction
// hasOwner owner dockedCount dockedIds...
func readPlanet(t *Tokens) (Planet, error) {
	var p Planet

	id, err := t.Int64("planet id")
	if err != nil {
		return Planet{}, err
	}
	p.ID = EntityID(id)

	if p.Position.X, err = t.Float("planet x"); err != nil {
		return Planet{}, err
	}
	if p.Position.Y, err = t.Float("planet y"); err != nil {
		return Planet{}, err
	}
	if p.Health, err = t.Int("planet health"); err != nil {
		return Planet{}, err
	}
	if p.Radius, err = t.Float("planet radius"); err != nil {
		return Planet{}, err
	}
	if p.Radius < 0 {
		return Planet{}, &MalformedSnapshotError{Field: "planet radius", Token: fmt.Sprint(p.Radius), Err: errNegativeRadius}
	}
	if p.DockingSpots, err = t.Int("planet docking spots"); err != nil {
		return Planet{}, err
	}
	if p.CurrentProduction, err = t.Int("planet current production"); err != nil {
		return Planet{}, err
	}
	if p.RemainingProduction, err = t.Int("planet remaining production"); err != nil {
		return Planet{}, err
	}

	hasOwner, err := t.Int("planet has owner")
	if err != nil {
		return Planet{}, err
	}
	owner, err := t.Int16("planet owner")
	if err != nil {
		return Planet{}, err
	}
	p.Owner = NoOwner
	if hasOwner != 0 {
		p.Owner = PlayerID(owner)
	}

	n, err := t.Int("planet docked ship count")
	if err != nil {
		return Planet{}, err
	}
	if n < 0 {
		return Planet{}, &MalformedSnapshotError{Field: "planet docked ship count", Token: fmt.Sprint(n), Err: errors.New("negative count")}
	}
	if n > 0 {
		p.DockedShips = make([]EntityID, 0, min(n, t.Remaining()))
	}
	for i := 0; i < n; i++ {
		docked, err := t.Int64("planet docked ship id")
		if err != nil {
			return Planet{}, err
		}
		p.DockedShips = append(p.DockedShips, EntityID(docked))
	}
	return p, nil
}
