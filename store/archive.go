// Package store archives parsed turns to Parquet.
//
// One row per (game, turn). Planets and ships are stored as nested repeated
// columns so a reader can query positions without re-parsing, and the raw
// snapshot tokens ride along as a msgpack blob for exact replay.
package store

import (
	"fmt"

	"github.com/brensch/halite/hlt"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const archiveSchema = "halite_turn_v1"

// ArchiveTurnRow is one parsed turn.
type ArchiveTurnRow struct {
	GameID     string `parquet:"game_id,dict"`
	Turn       int32  `parquet:"turn"`
	Width      int32  `parquet:"width"`
	Height     int32  `parquet:"height"`
	MyPlayerID int32  `parquet:"my_player_id"`

	Players []ArchivePlayer `parquet:"players"`
	Planets []ArchivePlanet `parquet:"planets"`

	Source string `parquet:"source,dict"`

	// SnapshotFormat names the encoding of Snapshot, currently "msgpack_tokens_v1".
	SnapshotFormat string `parquet:"snapshot_format,dict"`
	Snapshot       []byte `parquet:"snapshot,optional,zstd"`
}

type ArchivePlayer struct {
	ID    int32         `parquet:"id"`
	Ships []ArchiveShip `parquet:"ships"`
}

type ArchiveShip struct {
	ID              int64   `parquet:"id"`
	X               float64 `parquet:"x"`
	Y               float64 `parquet:"y"`
	Health          int32   `parquet:"health"`
	DockingStatus   int32   `parquet:"docking_status"`
	DockedPlanet    int64   `parquet:"docked_planet"`
	DockingProgress int32   `parquet:"docking_progress"`
	WeaponCooldown  int32   `parquet:"weapon_cooldown"`
}

type ArchivePlanet struct {
	ID                  int64   `parquet:"id"`
	Owner               int32   `parquet:"owner"`
	X                   float64 `parquet:"x"`
	Y                   float64 `parquet:"y"`
	Radius              float64 `parquet:"radius"`
	Health              int32   `parquet:"health"`
	DockingSpots        int32   `parquet:"docking_spots"`
	CurrentProduction   int32   `parquet:"current_production"`
	RemainingProduction int32   `parquet:"remaining_production"`
	DockedShips         []int64 `parquet:"docked_ships"`
}

// NewArchiveTurnRow captures the map's current turn. raw is the snapshot the
// map was just updated from; it may be nil.
func NewArchiveTurnRow(gameID, source string, m *hlt.Map, raw []string) (ArchiveTurnRow, error) {
	if gameID == "" {
		return ArchiveTurnRow{}, fmt.Errorf("game id is required")
	}

	row := ArchiveTurnRow{
		GameID:     gameID,
		Turn:       int32(m.Turn()),
		Width:      int32(m.Width()),
		Height:     int32(m.Height()),
		MyPlayerID: int32(m.MyPlayerID()),
		Source:     source,
	}

	for _, p := range m.AllPlayers() {
		ap := ArchivePlayer{ID: int32(p.ID)}
		for _, s := range p.Ships() {
			ap.Ships = append(ap.Ships, ArchiveShip{
				ID:              int64(s.ID),
				X:               s.Position.X,
				Y:               s.Position.Y,
				Health:          int32(s.Health),
				DockingStatus:   int32(s.DockingStatus),
				DockedPlanet:    int64(s.DockedPlanet),
				DockingProgress: int32(s.DockingProgress),
				WeaponCooldown:  int32(s.WeaponCooldown),
			})
		}
		row.Players = append(row.Players, ap)
	}

	for _, p := range m.AllPlanets() {
		docked := make([]int64, len(p.DockedShips))
		for i, id := range p.DockedShips {
			docked[i] = int64(id)
		}
		row.Planets = append(row.Planets, ArchivePlanet{
			ID:                  int64(p.ID),
			Owner:               int32(p.Owner),
			X:                   p.Position.X,
			Y:                   p.Position.Y,
			Radius:              p.Radius,
			Health:              int32(p.Health),
			DockingSpots:        int32(p.DockingSpots),
			CurrentProduction:   int32(p.CurrentProduction),
			RemainingProduction: int32(p.RemainingProduction),
			DockedShips:         docked,
		})
	}

	if raw != nil {
		blob, err := EncodeSnapshot(raw)
		if err != nil {
			return ArchiveTurnRow{}, err
		}
		row.SnapshotFormat = SnapshotFormat
		row.Snapshot = blob
	}
	return row, nil
}

func writeOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("snapshot"),
		parquet.KeyValueMetadata("schema", archiveSchema),
	}
}

// ReadArchiveParquet loads every row of one batch file.
func ReadArchiveParquet(path string) ([]ArchiveTurnRow, error) {
	rows, err := parquet.ReadFile[ArchiveTurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
