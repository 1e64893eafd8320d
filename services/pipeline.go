package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"house-flipping/geo"
	"house-flipping/models"
	"house-flipping/utils"
)

// TableLoader reads the raw sales table and the zip-code boundaries.
type TableLoader interface {
	LoadTable(ctx context.Context, path string) (dataframe.DataFrame, error)
	LoadBoundaries(ctx context.Context, url string) (*geo.Boundaries, error)
}

// Snapshot is one fully derived load of the sales source. It is never
// modified after Run returns it.
type Snapshot struct {
	RunID    string
	Source   string
	LoadedAt time.Time
	Table    dataframe.DataFrame
}

// Pipeline loads, cleans and derives the sales table and keeps the latest
// successful result.
type Pipeline struct {
	logger  *utils.Logger
	loader  TableLoader
	cleaner *Cleaner
	deriver *Deriver
	source  string
	geoURL  string

	// refreshMu serializes Refresh so a run that loaded older data cannot
	// replace the snapshot of a later run.
	refreshMu sync.Mutex

	mu         sync.RWMutex
	current    *Snapshot
	boundaries *geo.Boundaries
}

// NewPipeline creates a pipeline over source. An empty geoURL disables the
// boundary layer.
func NewPipeline(logger *utils.Logger, loader TableLoader, source, geoURL string) *Pipeline {
	return &Pipeline{
		logger:  logger,
		loader:  loader,
		cleaner: NewCleaner(logger),
		deriver: NewDeriver(logger),
		source:  source,
		geoURL:  geoURL,
	}
}

// Source is the path or URL the pipeline reads.
func (p *Pipeline) Source() string { return p.source }

// Run executes load, deduplication by id, integer coercion and derivation.
// Load and type errors abort the run; a missing id column only skips
// deduplication.
func (p *Pipeline) Run(ctx context.Context) (*Snapshot, error) {
	runID := uuid.NewString()
	start := time.Now()
	p.logger.Info("[pipeline] Run %s started for %s", runID, p.source)

	df, err := p.loader.LoadTable(ctx, p.source)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	df, err = p.cleaner.Deduplicate(df, models.ColID)
	if err != nil {
		if !errors.Is(err, models.ErrMissingKey) {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		p.logger.Warn("[pipeline] %v, keeping duplicates", err)
	}

	df, err = p.cleaner.CoerceInteger(df, IntegerColumns)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	df, err = p.deriver.DeriveAll(df)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	p.logger.Info("[pipeline] Run %s finished: %d rows in %s", runID, df.Nrow(),
		time.Since(start).Round(time.Millisecond))
	return &Snapshot{RunID: runID, Source: p.source, LoadedAt: time.Now(), Table: df}, nil
}

// Refresh runs the pipeline and makes the result current. On failure the
// previous snapshot stays current. Concurrent refreshes run one at a time in
// the order they acquire the lock.
func (p *Pipeline) Refresh(ctx context.Context) (*Snapshot, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	snap, err := p.Run(ctx)
	if err != nil {
		p.logger.Error("[pipeline] Refresh failed: %v", err)
		return nil, err
	}
	p.mu.Lock()
	p.current = snap
	p.mu.Unlock()
	return snap, nil
}

// Current returns the latest successful snapshot, or nil before the first one.
func (p *Pipeline) Current() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Boundaries loads the zip-code boundaries on first use and caches them.
// It returns nil without error when no boundary URL is configured.
func (p *Pipeline) Boundaries(ctx context.Context) (*geo.Boundaries, error) {
	if p.geoURL == "" {
		return nil, nil
	}

	p.mu.RLock()
	b := p.boundaries
	p.mu.RUnlock()
	if b != nil {
		return b, nil
	}

	b, err := p.loader.LoadBoundaries(ctx, p.geoURL)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.boundaries = b
	p.mu.Unlock()
	return b, nil
}
