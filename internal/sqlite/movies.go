// This file implements types.MovieProvider on the SQLite backend.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// LoadMovies returns the movie catalog in insertion order.
func (b *Backend) LoadMovies() ([]types.Movie, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return queryMovies(b.db)
}

func queryMovies(db *sql.DB) ([]types.Movie, error) {
	rows, err := db.Query(`SELECT movie_id, title, age_group, genre, year, runtime_minutes,
        streaming_services, synopsis, discussion_questions
        FROM movies ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying movies: %w", err)
	}
	defer rows.Close()

	movies := []types.Movie{}
	for rows.Next() {
		var (
			rec                 movieJSON
			services, questions sql.NullString
		)
		if err := rows.Scan(&rec.MovieID, &rec.Title, &rec.AgeGroup, &rec.Genre, &rec.Year,
			&rec.RuntimeMinutes, &services, &rec.Synopsis, &questions); err != nil {
			return nil, fmt.Errorf("scanning movie: %w", err)
		}
		if err := scanJSON(services, &rec.StreamingServices); err != nil {
			return nil, fmt.Errorf("decoding services for movie %s: %w", rec.MovieID, err)
		}
		if err := scanJSON(questions, &rec.DiscussionQuestions); err != nil {
			return nil, fmt.Errorf("decoding questions for movie %s: %w", rec.MovieID, err)
		}
		movies = append(movies, rec.toMovie())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movies: %w", err)
	}
	return movies, nil
}

// SaveMovies replaces the catalog and rewrites movies.jsonl.
func (b *Backend) SaveMovies(movies []types.Movie) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}
	return saveMovies(b.db, b.dataDir, movies)
}

func saveMovies(db *sql.DB, dataDir string, movies []types.Movie) error {
	ids := make([]string, len(movies))
	records := make([]movieJSON, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
		records[i] = toMovieJSON(m)
	}
	if err := checkUniqueIDs("movie", ids); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM movies"); err != nil {
		return fmt.Errorf("clearing movies: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO movies (movie_id, title, age_group, genre, year, runtime_minutes,
        streaming_services, synopsis, discussion_questions) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing movie insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		services, err := nullJSON(r.StreamingServices, len(r.StreamingServices) == 0)
		if err != nil {
			return fmt.Errorf("encoding services: %w", err)
		}
		questions, err := nullJSON(r.DiscussionQuestions, len(r.DiscussionQuestions) == 0)
		if err != nil {
			return fmt.Errorf("encoding questions: %w", err)
		}
		if _, err := stmt.Exec(r.MovieID, r.Title, r.AgeGroup, r.Genre, r.Year, r.RuntimeMinutes,
			services, r.Synopsis, questions); err != nil {
			return fmt.Errorf("inserting movie %s: %w", r.MovieID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing movies: %w", err)
	}
	return persistJSONL(dataDir, moviesJSONL, records)
}
