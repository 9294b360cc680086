package ingest

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/data/cache"
	"github.com/penwyp/go-dreyevr-parser/internal/data/parser"
	"github.com/penwyp/go-dreyevr-parser/internal/data/validator"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

// Phase names recorded in RunStats.
const (
	PhaseCacheLookup = "cache lookup"
	PhaseCountLines  = "count lines"
	PhaseParse       = "parse"
	PhaseMerge       = "merge"
	PhaseValidate    = "validate"
	PhaseCacheStore  = "cache store"
)

type Config struct {
	CacheDir string
	// Workers is the number of line ranges parsed in parallel. Anything
	// below 2 parses the file sequentially.
	Workers     int
	ForceReload bool
	Debug       bool
}

// Coordinator turns a recording into its parsed result, either from the
// cache or by parsing it in one or more line ranges.
type Coordinator struct {
	config Config
	cache  cache.Cache
}

// New creates a Coordinator backed by a file cache in config.CacheDir.
func New(config Config) (*Coordinator, error) {
	fileCache, err := cache.NewFileCache(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", config.CacheDir, err)
	}
	return NewWithCache(config, fileCache), nil
}

func NewWithCache(config Config, c cache.Cache) *Coordinator {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Coordinator{config: config, cache: c}
}

func (c *Coordinator) Config() Config {
	return c.config
}

// Ingest returns the parsed result for path. A cached result is served
// unless ForceReload is set; otherwise the file is parsed, validated in
// debug mode, and stored.
func (c *Coordinator) Ingest(path string) (*model.Group, *RunStats, error) {
	startTime := time.Now()
	stats := &RunStats{
		RunID:    uuid.NewString(),
		Source:   path,
		Identity: cache.ExtractIdentity(path),
	}
	log := util.WithFields(
		util.Field{Key: "run_id", Value: stats.RunID},
		util.Field{Key: "identity", Value: stats.Identity},
	)
	defer func() { stats.Total = time.Since(startTime) }()

	// Phase 1: Cache lookup
	if !c.config.ForceReload {
		lookupStart := time.Now()
		cached := c.cache.Get(stats.Identity)
		log.Debugf("Phase 1 - Cache lookup duration: %v", stats.addPhase(PhaseCacheLookup, lookupStart))
		if cached.Found {
			stats.FromCache = true
			stats.Stale = cached.Stale
			stats.Frames = timelineLen(cached.Data)
			log.Infof("Loaded %s from cache", path)
			return cached.Data, stats, nil
		}
		stats.MissReason = cached.MissReason
		log.Infof("Cache miss for %s (%s), parsing from source", path, cached.MissReason)
	}

	// Phase 2: Count lines
	countStart := time.Now()
	total, err := CountLines(path)
	if err != nil {
		return nil, stats, fmt.Errorf("count lines of %s: %w", path, err)
	}
	stats.Lines = total
	log.Debugf("Phase 2 - Line count duration: %v, %d lines", stats.addPhase(PhaseCountLines, countStart), total)

	workers := c.config.Workers
	if workers > total {
		workers = max(total, 1)
	}
	stats.Workers = workers

	// Phase 3: Parse
	var result *model.Group
	if workers == 1 {
		parseStart := time.Now()
		result, err = parser.NewParser(c.config.Debug).ParseFile(path)
		if err != nil {
			return nil, stats, err
		}
		log.Debugf("Phase 3 - Sequential parse duration: %v", stats.addPhase(PhaseParse, parseStart))
	} else {
		result, err = c.ingestParallel(path, stats, Partition(total, workers), log)
		if err != nil {
			return nil, stats, err
		}
	}
	result.CollapseStandalone()
	stats.Frames = timelineLen(result)

	// Phase 4: Validate
	if c.config.Debug {
		validateStart := time.Now()
		if err := validator.ValidateResult(result); err != nil {
			return nil, stats, fmt.Errorf("validate %s: %w", path, err)
		}
		log.Debugf("Phase 4 - Validation duration: %v", stats.addPhase(PhaseValidate, validateStart))
	}

	// Phase 5: Store
	storeStart := time.Now()
	if err := c.cache.Set(stats.Identity, result, path); err != nil {
		log.Warn(fmt.Sprintf("Failed to save cache for %s: %v", path, err))
	} else {
		log.Debugf("Phase 5 - Cache store duration: %v", stats.addPhase(PhaseCacheStore, storeStart))
	}

	log.Info(fmt.Sprintf("Parsed %s: %d lines, %d frames, %d workers in %v",
		path, stats.Lines, stats.Frames, stats.Workers, time.Since(startTime)))
	return result, stats, nil
}

// ingestParallel runs one parser per range. Workers share nothing; each one
// persists its partial result as a partition blob and the merge reads them
// back in partition order once every worker has finished.
func (c *Coordinator) ingestParallel(path string, stats *RunStats, ranges []Range, log util.LoggerInterface) (*model.Group, error) {
	identity := stats.Identity
	if err := c.cache.RemovePartitions(identity); err != nil {
		log.Warn(fmt.Sprintf("Failed to remove old partitions of %s: %v", identity, err))
	}
	defer func() {
		if err := c.cache.RemovePartitions(identity); err != nil {
			log.Warn(fmt.Sprintf("Failed to remove partitions of %s: %v", identity, err))
		}
	}()

	parseStart := time.Now()
	errs := make([]error, len(ranges))
	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(index int, r Range) {
			defer wg.Done()
			errs[index] = c.runWorker(path, identity, index, r)
		}(i, r)
	}
	wg.Wait()
	log.Debugf("Phase 3 - Parallel parse duration: %v, %d workers", stats.addPhase(PhaseParse, parseStart), len(ranges))

	for i, err := range errs {
		if err != nil {
			return nil, &PartitionError{Index: i, Err: err}
		}
	}

	mergeStart := time.Now()
	parts := make([]*model.Group, len(ranges))
	for i := range ranges {
		part, err := c.cache.GetPartition(identity, i)
		if err != nil {
			return nil, &PartitionError{Index: i, Err: fmt.Errorf("%w: %v", ErrMissingPartition, err)}
		}
		parts[i] = part
	}
	merged, err := Merge(parts)
	if err != nil {
		return nil, err
	}
	log.Debugf("Phase 3b - Merge duration: %v", stats.addPhase(PhaseMerge, mergeStart))
	return merged, nil
}

func (c *Coordinator) runWorker(path, identity string, index int, r Range) error {
	// Per-line validation would fail on ranges that start mid-frame.
	p := parser.NewParser(false)
	part, err := p.ParseRange(path, r.Start, r.End)
	if err != nil {
		return err
	}
	return c.cache.SetPartition(identity, index, part)
}

func timelineLen(g *model.Group) int {
	if g == nil {
		return 0
	}
	f, _ := g.Field(model.TimelineField)
	return f.Len()
}
