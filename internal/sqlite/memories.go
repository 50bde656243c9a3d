// This file implements types.MemoryProvider on the SQLite backend.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// LoadMemories returns every persisted memory in insertion order.
func (b *Backend) LoadMemories() ([]types.Memory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	rows, err := b.db.Query(`SELECT memory_id, movie_id, watch_date, rating, notes,
        discussion_answers, photos, location, weather_context
        FROM memories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	memories := []types.Memory{}
	for rows.Next() {
		var (
			rec                              memoryJSON
			answers, photos, loc, weatherCol sql.NullString
		)
		if err := rows.Scan(&rec.MemoryID, &rec.MovieID, &rec.WatchDate, &rec.Rating, &rec.Notes,
			&answers, &photos, &loc, &weatherCol); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		if err := scanJSON(answers, &rec.DiscussionAnswers); err != nil {
			return nil, fmt.Errorf("decoding answers for memory %s: %w", rec.MemoryID, err)
		}
		if err := scanJSON(photos, &rec.Photos); err != nil {
			return nil, fmt.Errorf("decoding photos for memory %s: %w", rec.MemoryID, err)
		}
		if err := scanJSON(loc, &rec.Location); err != nil {
			return nil, fmt.Errorf("decoding location for memory %s: %w", rec.MemoryID, err)
		}
		if err := scanJSON(weatherCol, &rec.WeatherContext); err != nil {
			return nil, fmt.Errorf("decoding weather for memory %s: %w", rec.MemoryID, err)
		}
		m, err := rec.toMemory()
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memories: %w", err)
	}
	return memories, nil
}

// SaveMemories replaces the stored memory collection with memories and
// rewrites memories.jsonl. Returns ErrDuplicateID if two memories share an ID.
func (b *Backend) SaveMemories(memories []types.Memory) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}

	ids := make([]string, len(memories))
	records := make([]memoryJSON, len(memories))
	for i, m := range memories {
		ids[i] = m.ID
		records[i] = toMemoryJSON(m)
	}
	if err := checkUniqueIDs("memory", ids); err != nil {
		return err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM memories"); err != nil {
		return fmt.Errorf("clearing memories: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO memories (memory_id, movie_id, watch_date, rating, notes,
        discussion_answers, photos, location, weather_context) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing memory insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		answers, err := nullJSON(r.DiscussionAnswers, len(r.DiscussionAnswers) == 0)
		if err != nil {
			return fmt.Errorf("encoding answers: %w", err)
		}
		photos, err := nullJSON(r.Photos, len(r.Photos) == 0)
		if err != nil {
			return fmt.Errorf("encoding photos: %w", err)
		}
		loc, err := nullJSON(r.Location, r.Location == nil)
		if err != nil {
			return fmt.Errorf("encoding location: %w", err)
		}
		weather, err := nullJSON(r.WeatherContext, r.WeatherContext == nil)
		if err != nil {
			return fmt.Errorf("encoding weather: %w", err)
		}
		if _, err := stmt.Exec(r.MemoryID, r.MovieID, r.WatchDate, r.Rating, r.Notes,
			answers, photos, loc, weather); err != nil {
			return fmt.Errorf("inserting memory %s: %w", r.MemoryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing memories: %w", err)
	}
	return persistJSONL(b.dataDir, memoriesJSONL, records)
}

// LoadDiscussionAnswers returns every persisted discussion answer in
// insertion order.
func (b *Backend) LoadDiscussionAnswers() ([]types.DiscussionAnswer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	rows, err := b.db.Query(`SELECT answer_id, memory_id, question_id, response, child_age
        FROM discussion_answers ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying discussion answers: %w", err)
	}
	defer rows.Close()

	answers := []types.DiscussionAnswer{}
	for rows.Next() {
		var rec discussionAnswerJSON
		if err := rows.Scan(&rec.AnswerID, &rec.MemoryID, &rec.QuestionID, &rec.Response, &rec.ChildAge); err != nil {
			return nil, fmt.Errorf("scanning discussion answer: %w", err)
		}
		answers = append(answers, rec.toDiscussionAnswer())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating discussion answers: %w", err)
	}
	return answers, nil
}

// SaveDiscussionAnswers replaces the stored answer collection and rewrites
// discussion_answers.jsonl.
func (b *Backend) SaveDiscussionAnswers(answers []types.DiscussionAnswer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}

	ids := make([]string, len(answers))
	records := make([]discussionAnswerJSON, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
		records[i] = toDiscussionAnswerJSON(a)
	}
	if err := checkUniqueIDs("discussion answer", ids); err != nil {
		return err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM discussion_answers"); err != nil {
		return fmt.Errorf("clearing discussion answers: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO discussion_answers (answer_id, memory_id, question_id, response, child_age)
        VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing answer insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.AnswerID, r.MemoryID, r.QuestionID, r.Response, r.ChildAge); err != nil {
			return fmt.Errorf("inserting discussion answer %s: %w", r.AnswerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing discussion answers: %w", err)
	}
	return persistJSONL(b.dataDir, discussionAnswersJSONL, records)
}
