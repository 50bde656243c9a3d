package types

// MemoryProvider loads and saves whole collections of memories and
// discussion answers. There is no partial-update contract: callers are
// responsible for read-modify-write.
type MemoryProvider interface {
	LoadMemories() ([]Memory, error)
	SaveMemories(memories []Memory) error
	LoadDiscussionAnswers() ([]DiscussionAnswer, error)
	SaveDiscussionAnswers(answers []DiscussionAnswer) error
}

// MovieProvider loads and saves the movie catalog as a whole collection.
type MovieProvider interface {
	LoadMovies() ([]Movie, error)
	SaveMovies(movies []Movie) error
}

// Backend is a storage backend serving every provider. Callers attach to a
// backend with a Config and detach when done.
type Backend interface {
	MemoryProvider
	MovieProvider

	// Attach connects the backend described by config, creating DataDir if
	// needed. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach, provider
	// calls return ErrBackendDetached.
	Detach() error
}
