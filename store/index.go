package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// ArchivedGameIDs lists the distinct game ids in the finished batches directly
// under outDir. Batches still in outDir/tmp are not included.
func ArchivedGameIDs(ctx context.Context, outDir string) ([]string, error) {
	glob := filepath.Join(outDir, "*.parquet")
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	q := `SELECT DISTINCT game_id FROM read_parquet('` + escapeSQLString(glob) + `', union_by_name=true) ORDER BY game_id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query archived games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SeedGameLog appends to l every game archived under outDir that l does not
// know yet. That happens when a run dies between renaming a batch into
// outDir and recording its games.
func SeedGameLog(ctx context.Context, l *GameLog, outDir string) (int, error) {
	ids, err := ArchivedGameIDs(ctx, outDir)
	if err != nil {
		return 0, err
	}
	var missing []string
	for _, id := range ids {
		if !l.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := l.Add(missing...); err != nil {
		return 0, err
	}
	return len(missing), nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
