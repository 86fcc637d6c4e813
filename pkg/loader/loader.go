// Package loader reads the mhv datasets and country metadata.
package loader

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/debug"
	"github.com/vanderheijden86/mhviz/pkg/metrics"
)

// Kind identifies one of the four datasets.
type Kind int

const (
	KindMental Kind = iota
	KindGDP
	KindPopulation
	KindAlcohol
)

func (k Kind) String() string {
	switch k {
	case KindMental:
		return "mental"
	case KindGDP:
		return "gdp"
	case KindPopulation:
		return "population"
	case KindAlcohol:
		return "alcohol"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// LoadResult contains the result of loading a single dataset
type LoadResult struct {
	Kind     Kind
	Path     string
	Rows     int
	Duration time.Duration

	// Error is set if loading failed
	Error error
}

// Loader loads the four datasets described by a DataConfig.
type Loader struct {
	data   config.DataConfig
	logger *log.Logger
}

// New creates a loader for the given data configuration.
func New(data config.DataConfig) *Loader {
	return &Loader{
		data: data,
		// Silence by default. Callers can opt-in via SetLogger.
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger for error reporting
func (l *Loader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// Paths returns the resolved dataset paths keyed by kind.
func (l *Loader) Paths() map[Kind]string {
	return map[Kind]string{
		KindMental:     l.data.Path(l.data.Mental),
		KindGDP:        l.data.Path(l.data.GDP),
		KindPopulation: l.data.Path(l.data.Population),
		KindAlcohol:    l.data.Path(l.data.Alcohol),
	}
}

// LoadAll loads every dataset in parallel. A failed dataset is logged and
// reported in its LoadResult but does not stop the others; the returned
// Datasets simply lacks its rows. The error is non-nil only when the context
// is cancelled.
func (l *Loader) LoadAll(ctx context.Context) (*Datasets, []LoadResult, error) {
	defer metrics.Timer(metrics.DataLoad)()
	defer debug.LogEnterExit("loader.LoadAll")()

	kinds := []Kind{KindMental, KindGDP, KindPopulation, KindAlcohol}
	paths := l.Paths()
	results := make([]LoadResult, len(kinds))
	parts := make([]*Datasets, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(kinds))

	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			results[i] = LoadResult{Kind: kind, Path: paths[kind]}
			select {
			case <-gctx.Done():
				results[i].Error = gctx.Err()
				return nil
			default:
			}

			start := time.Now()
			part, rows, err := loadOne(kind, paths[kind])
			results[i].Duration = time.Since(start)
			results[i].Rows = rows
			results[i].Error = err
			parts[i] = part
			return nil // captured in results
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, err
	}
	if err := ctx.Err(); err != nil {
		return nil, results, fmt.Errorf("loading datasets: %w", err)
	}

	ds := NewDatasets()
	for i, r := range results {
		if r.Error != nil {
			l.logger.Printf("WARNING: failed to load %s dataset %q: %v", r.Kind, r.Path, r.Error)
			continue
		}
		debug.LogTiming("load "+r.Kind.String(), r.Duration)
		debug.LogIf(r.Rows == 0, "%s dataset %q has a header but no rows", r.Kind, r.Path)
		merge(ds, parts[i])
	}
	l.logger.Printf("Loaded datasets from %s", l.data.Dir)
	return ds, results, nil
}

// LoadKind loads a single dataset from path.
func LoadKind(kind Kind, path string) (*Datasets, error) {
	ds, _, err := loadOne(kind, path)
	return ds, err
}

func loadOne(kind Kind, path string) (*Datasets, int, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, 0, err
	}
	ds := NewDatasets()
	switch kind {
	case KindMental:
		ds.Mental, ds.Issues, err = ParseMental(t)
		return ds, len(ds.Mental), err
	case KindGDP:
		ds.GDPByName, ds.GDPByCode, ds.Years, err = ParseGDP(t)
		return ds, len(ds.GDPByName), err
	case KindPopulation:
		ds.Population, err = ParsePopulation(t)
		return ds, len(ds.Population), err
	case KindAlcohol:
		ds.Alcohol, err = ParseAlcohol(t)
		return ds, len(ds.Alcohol), err
	default:
		return nil, 0, fmt.Errorf("unknown dataset %v", kind)
	}
}

func merge(dst, src *Datasets) {
	if src == nil {
		return
	}
	if src.Mental != nil {
		dst.Mental, dst.Issues = src.Mental, src.Issues
	}
	if len(src.GDPByName) > 0 || len(src.GDPByCode) > 0 {
		dst.GDPByName, dst.GDPByCode, dst.Years = src.GDPByName, src.GDPByCode, src.Years
	}
	if len(src.Population) > 0 {
		dst.Population = src.Population
	}
	if src.Alcohol != nil {
		dst.Alcohol = src.Alcohol
	}
}
