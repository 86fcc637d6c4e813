package dashboard

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/vanderheijden86/mhviz/pkg/loader"
)

// ErrNotLoaded is returned before the first successful load.
var ErrNotLoaded = errors.New("datasets not loaded")

// DatasetLoader loads the four datasets.
type DatasetLoader interface {
	LoadAll(ctx context.Context) (*loader.Datasets, []loader.LoadResult, error)
}

// Snapshot is one immutable generation of loaded data.
type Snapshot struct {
	Datasets   *loader.Datasets
	Metadata   *loader.Metadata
	Loads      []loader.LoadResult
	LoadedAt   time.Time
	Generation int
}

// Failed returns the datasets that could not be loaded.
func (s *Snapshot) Failed() []loader.LoadResult {
	var out []loader.LoadResult
	for _, r := range s.Loads {
		if r.Error != nil {
			out = append(out, r)
		}
	}
	return out
}

// Store holds the current Snapshot. Readers get the snapshot pointer under a
// read lock and never mutate it; Reload swaps in a new one.
type Store struct {
	loader DatasetLoader
	meta   *loader.Metadata
	logger *log.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore creates an empty store. Call Reload to load data.
func NewStore(l DatasetLoader, md *loader.Metadata) *Store {
	return &Store{
		loader: l,
		meta:   md,
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger for reload reporting.
func (s *Store) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Reload loads every dataset and publishes a new snapshot. A failed dataset
// does not prevent the swap; only a cancelled load keeps the old snapshot.
func (s *Store) Reload(ctx context.Context) error {
	ds, results, err := s.loader.LoadAll(ctx)
	if err != nil {
		s.logger.Printf("reload aborted: %v", err)
		return err
	}

	s.mu.Lock()
	gen := 1
	if s.snap != nil {
		gen = s.snap.Generation + 1
	}
	snap := &Snapshot{
		Datasets:   ds,
		Metadata:   s.meta,
		Loads:      results,
		LoadedAt:   time.Now(),
		Generation: gen,
	}
	s.snap = snap
	s.mu.Unlock()

	s.logger.Printf("datasets loaded (generation %d, %d failed)", gen, len(snap.Failed()))
	return nil
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNotLoaded
	}
	return s.snap, nil
}
