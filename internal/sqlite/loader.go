// This file loads JSONL files into SQLite at attach time.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// tableMapping ties a JSONL file to its SQLite table and the columns to
// extract from each record. Column names match JSON field names.
type tableMapping struct {
	file    string
	table   string
	columns []string
}

// tableMappings lists every collection loaded at attach.
var tableMappings = []tableMapping{
	{
		file:  moviesJSONL,
		table: "movies",
		columns: []string{
			"movie_id", "title", "age_group", "genre", "year",
			"runtime_minutes", "streaming_services", "synopsis", "discussion_questions",
		},
	},
	{
		file:  memoriesJSONL,
		table: "memories",
		columns: []string{
			"memory_id", "movie_id", "watch_date", "rating", "notes",
			"discussion_answers", "photos", "location", "weather_context",
		},
	},
	{
		file:    discussionAnswersJSONL,
		table:   "discussion_answers",
		columns: []string{"answer_id", "memory_id", "question_id", "response", "child_age"},
	},
}

// loadAllJSONL reads every JSONL file in dataDir and inserts its records into
// the matching table in one transaction. Missing files are treated as empty.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, mapping := range tableMappings {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if err := insertRecords(tx, mapping.table, mapping.columns, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into a table. Unknown fields are
// ignored. Records that fail to decode or violate a constraint (a duplicate
// primary key, a missing required column) are skipped.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val, ok := obj[col]
			if !ok {
				args[i] = nil
				continue
			}
			// Nested values are stored as their JSON text.
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					args[i] = nil
					continue
				}
				args[i] = string(b)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}
