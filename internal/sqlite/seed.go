// This file seeds the starter movie catalog on first attach.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/movienight/internal/catalog"
)

// seedStarterCatalog inserts the starter catalog when the movies table is
// empty after loading. It only runs when movies.jsonl held no movies, so a
// user-curated catalog is never overwritten.
func seedStarterCatalog(db *sql.DB, dataDir string) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&count); err != nil {
		return fmt.Errorf("counting movies: %w", err)
	}
	if count > 0 {
		return nil
	}
	return saveMovies(db, dataDir, catalog.Starter())
}
