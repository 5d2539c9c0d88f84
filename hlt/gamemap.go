package hlt

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Options tunes behavior the engine protocol leaves open.
type Options struct {
	// PruneMissingPlanets drops planets that are absent from a newer snapshot.
	// Off by default: planets are only ever inserted or updated.
	PruneMissingPlanets bool

	// ExactApproach makes ClosestPoint return the exact float point instead
	// of truncating each coordinate toward zero.
	ExactApproach bool

	Logger *slog.Logger
}

// Map is the world state for the current turn.
//
// The decision layer owns one Map for the whole game and calls Update once per
// turn before issuing queries. Update holds the write lock while it commits,
// queries hold the read lock, so concurrent readers never see a half-built turn.
type Map struct {
	mu sync.RWMutex

	width  int
	height int
	myID   PlayerID
	opts   Options
	log    *slog.Logger

	turn      int
	players   []Player
	planets   map[EntityID]Planet
	planetIDs []EntityID // ascending
	ships     []Ship     // every player's ships, slot order then id
}

func NewMap(width, height int, myID PlayerID, opts Options) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid map dimensions: %dx%d", width, height)
	}
	if myID < 0 {
		return nil, fmt.Errorf("invalid player id: %d", myID)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Map{
		width:   width,
		height:  height,
		myID:    myID,
		opts:    opts,
		log:     logger,
		players: make([]Player, 0, MaxPlayers),
		planets: make(map[EntityID]Planet),
	}, nil
}

func (m *Map) Width() int           { return m.width }
func (m *Map) Height() int          { return m.height }
func (m *Map) MyPlayerID() PlayerID { return m.myID }

// Turn is the number of successful updates so far.
func (m *Map) Turn() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turn
}

// AllPlayers returns the players in snapshot slot order.
func (m *Map) AllPlayers() []Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Player, len(m.players))
	copy(out, m.players)
	return out
}

func (m *Map) MyPlayer() (Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(m.myID) >= len(m.players) {
		return Player{}, &UnknownEntityError{Player: m.myID, Ship: -1}
	}
	return m.players[m.myID], nil
}

// Ship looks up a ship by owning player slot and ship id.
func (m *Map) Ship(player PlayerID, id EntityID) (Ship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if player < 0 || int(player) >= len(m.players) {
		return Ship{}, &UnknownEntityError{Player: player, Ship: id}
	}
	s, ok := m.players[player].Ship(id)
	if !ok {
		return Ship{}, &UnknownEntityError{Player: player, Ship: id}
	}
	return s, nil
}

func (m *Map) Planet(id EntityID) (Planet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.planets[id]
	return p, ok
}

// AllPlanets returns every known planet in ascending id order.
func (m *Map) AllPlanets() []Planet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Planet, 0, len(m.planetIDs))
	for _, id := range m.planetIDs {
		out = append(out, m.planets[id])
	}
	return out
}

// AllShips returns every player's ships for this turn, ordered by player slot
// and then ship id.
func (m *Map) AllShips() []Ship {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Ship, len(m.ships))
	copy(out, m.ships)
	return out
}

// Update parses a turn snapshot and replaces players and ships; planets are
// upserted. The snapshot is parsed in full before anything is committed, so a
// MalformedSnapshotError leaves the previous turn in place. Tokens left over
// after the planets are ignored.
func (m *Map) Update(t *Tokens) (*Map, error) {
	numPlayers, err := t.Int16("player count")
	if err != nil {
		return m, err
	}
	if numPlayers < 0 {
		return m, &MalformedSnapshotError{Field: "player count", Token: fmt.Sprint(numPlayers), Err: errors.New("negative count")}
	}

	players := make([]Player, 0, numPlayers)
	var ships []Ship
	for i := int16(0); i < numPlayers; i++ {
		tag, err := t.Int16("player tag")
		if err != nil {
			return m, err
		}
		owned, err := readShips(PlayerID(tag), t)
		if err != nil {
			return m, err
		}
		p := newPlayer(PlayerID(tag), owned)
		players = append(players, p)
		ships = append(ships, p.Ships()...)
	}
	if int(m.myID) >= len(players) {
		return m, &MalformedSnapshotError{
			Field: "player count",
			Token: fmt.Sprint(numPlayers),
			Err:   fmt.Errorf("local player %d not in snapshot", m.myID),
		}
	}

	numPlanets, err := t.Int64("planet count")
	if err != nil {
		return m, err
	}
	if numPlanets < 0 {
		return m, &MalformedSnapshotError{Field: "planet count", Token: fmt.Sprint(numPlanets), Err: errors.New("negative count")}
	}

	parsed := make([]Planet, 0, min(numPlanets, int64(t.Remaining())))
	for i := int64(0); i < numPlanets; i++ {
		p, err := readPlanet(t)
		if err != nil {
			return m, err
		}
		parsed = append(parsed, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.players = players
	m.ships = ships
	m.upsertPlanets(parsed)
	m.turn++

	m.log.Debug("turn updated",
		"turn", m.turn,
		"players", len(players),
		"ships", len(ships),
		"planets", len(m.planets),
		"leftover_tokens", t.Remaining(),
	)
	return m, nil
}

// upsertPlanets must be called with the write lock held.
func (m *Map) upsertPlanets(parsed []Planet) {
	var seen map[EntityID]bool
	if m.opts.PruneMissingPlanets {
		seen = make(map[EntityID]bool, len(parsed))
	}
	for _, p := range parsed {
		m.planets[p.ID] = p
		if seen != nil {
			seen[p.ID] = true
		}
	}
	if seen != nil {
		for id := range m.planets {
			if !seen[id] {
				delete(m.planets, id)
			}
		}
	}

	m.planetIDs = m.planetIDs[:0]
	for id := range m.planets {
		m.planetIDs = append(m.planetIDs, id)
	}
	sort.Slice(m.planetIDs, func(i, j int) bool { return m.planetIDs[i] < m.planetIDs[j] })
}

// Clone returns an independent copy of the current turn.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &Map{
		width:     m.width,
		height:    m.height,
		myID:      m.myID,
		opts:      m.opts,
		log:       m.log,
		turn:      m.turn,
		planets:   make(map[EntityID]Planet, len(m.planets)),
		planetIDs: append([]EntityID(nil), m.planetIDs...),
		ships:     append([]Ship(nil), m.ships...),
	}

	// Players are immutable once built, so sharing their ship maps is safe.
	out.players = append(make([]Player, 0, len(m.players)), m.players...)

	for id, p := range m.planets {
		if len(p.DockedShips) > 0 {
			p.DockedShips = append([]EntityID(nil), p.DockedShips...)
		}
		out.planets[id] = p
	}
	return out
}
