// Package sqlite implements the SQLite storage backend for movienight.
// SQLite is the query engine; JSONL files in DataDir are the source of truth.
package sqlite

// Schema DDL for all tables.
const (
	createMovies = `CREATE TABLE movies (
    movie_id TEXT NOT NULL PRIMARY KEY,
    title TEXT NOT NULL,
    age_group TEXT NOT NULL,
    genre TEXT NOT NULL DEFAULT '',
    year INTEGER NOT NULL DEFAULT 0,
    runtime_minutes INTEGER NOT NULL DEFAULT 0,
    streaming_services TEXT,
    synopsis TEXT NOT NULL DEFAULT '',
    discussion_questions TEXT
);`

	createMemories = `CREATE TABLE memories (
    memory_id TEXT NOT NULL PRIMARY KEY,
    movie_id TEXT NOT NULL,
    watch_date TEXT NOT NULL,
    rating INTEGER NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    discussion_answers TEXT,
    photos TEXT,
    location TEXT,
    weather_context TEXT
);`

	createDiscussionAnswers = `CREATE TABLE discussion_answers (
    answer_id TEXT NOT NULL PRIMARY KEY,
    memory_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    response TEXT NOT NULL,
    child_age INTEGER NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxMoviesAgeGroup       = `CREATE INDEX idx_movies_age_group ON movies(age_group);`
	idxMemoriesMovie        = `CREATE INDEX idx_memories_movie ON memories(movie_id);`
	idxMemoriesWatchDate    = `CREATE INDEX idx_memories_watch_date ON memories(watch_date);`
	idxDiscussionAnswersMem = `CREATE INDEX idx_discussion_answers_memory ON discussion_answers(memory_id);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createMovies,
	createMemories,
	createDiscussionAnswers,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxMoviesAgeGroup,
	idxMemoriesMovie,
	idxMemoriesWatchDate,
	idxDiscussionAnswersMem,
}
