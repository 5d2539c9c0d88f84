package hlt

import "sort"

// Player owns the ships it fielded this turn. Replaced wholesale every turn.
type Player struct {
	ID    PlayerID
	ships map[EntityID]Ship
	order []EntityID
}

func newPlayer(id PlayerID, ships []Ship) Player {
	p := Player{ID: id, ships: make(map[EntityID]Ship, len(ships))}
	for _, s := range ships {
		p.ships[s.ID] = s
	}
	p.order = make([]EntityID, 0, len(p.ships))
	for id := range p.ships {
		p.order = append(p.order, id)
	}
	sort.Slice(p.order, func(i, j int) bool { return p.order[i] < p.order[j] })
	return p
}

// Ship looks up one of the player's ships by id.
func (p Player) Ship(id EntityID) (Ship, bool) {
	s, ok := p.ships[id]
	return s, ok
}

// Ships returns the player's ships in ascending id order.
func (p Player) Ships() []Ship {
	out := make([]Ship, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.ships[id])
	}
	return out
}

func (p Player) Len() int { return len(p.ships) }
