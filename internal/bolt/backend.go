package bolt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/timshannon/bolthold"
	bbolt "go.etcd.io/bbolt"

	"github.com/mesh-intelligence/movienight/internal/catalog"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

// dbFile is the bolt database name in DataDir.
const dbFile = "movienight.bolt"

// Backend implements types.Backend on a BoltHold store.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	store    *bolthold.Store
}

// NewBackend creates a detached bolt backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens DataDir/movienight.bolt, creating DataDir if needed, and seeds
// the starter catalog when the store holds no movies.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	store, err := bolthold.Open(filepath.Join(dataDir, dbFile), 0o666, &bolthold.Options{
		Encoder: json.Marshal,
		Decoder: json.Unmarshal,
	})
	if err != nil {
		return fmt.Errorf("opening bolt store: %w", err)
	}

	if !config.SkipSeed {
		if err := seedStarterCatalog(store); err != nil {
			store.Close()
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	b.store = store
	b.attached = true
	return nil
}

// Detach closes the store. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.store.Close(); err != nil {
		return fmt.Errorf("closing bolt store: %w", err)
	}
	b.store = nil
	b.attached = false
	return nil
}

func seedStarterCatalog(store *bolthold.Store) error {
	n, err := store.Count(&movieRecord{}, bySeq())
	if err != nil {
		return fmt.Errorf("counting movies: %w", err)
	}
	if n > 0 {
		return nil
	}
	return saveMovies(store, catalog.Starter())
}

// bySeq selects every record of a collection in saved order.
func bySeq() *bolthold.Query {
	return bolthold.Where("Seq").Ge(0).SortBy("Seq")
}

// replaceAll swaps the stored records of one type for records in a single
// transaction.
func replaceAll[T any](store *bolthold.Store, keys []string, records []T) error {
	if err := checkUniqueIDs(keys); err != nil {
		return err
	}
	var zero T
	return store.Bolt().Update(func(tx *bbolt.Tx) error {
		if err := store.TxDeleteMatching(tx, &zero, bySeq()); err != nil {
			return fmt.Errorf("clearing collection: %w", err)
		}
		for i := range records {
			if err := store.TxInsert(tx, keys[i], &records[i]); err != nil {
				return fmt.Errorf("inserting %s: %w", keys[i], err)
			}
		}
		return nil
	})
}

func checkUniqueIDs(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty id", types.ErrInvalidID)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", types.ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return nil
}
