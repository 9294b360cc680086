package analyzer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/data/cache"
	"github.com/penwyp/go-dreyevr-parser/internal/data/scanner"
	"github.com/penwyp/go-dreyevr-parser/internal/data/validator"
	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

var (
	// ErrNoRecordings is returned when the scan finds nothing to analyze.
	ErrNoRecordings = errors.New("no recordings found")
	// ErrDuplicateIdentity marks a recording whose cache identity is already
	// taken by an earlier recording of the same batch.
	ErrDuplicateIdentity = errors.New("cache identity already used by another recording")
)

type Config struct {
	DataDir     string
	Pattern     string
	CacheDir    string
	Workers     int // parse workers per recording, below 2 parses sequentially
	Concurrency int // recordings processed at once
	ForceReload bool
	Debug       bool
}

// RecordingReport is the outcome for one recording.
type RecordingReport struct {
	Path       string
	Identity   string
	Frames     int
	Fields     int
	FromCache  bool
	Stale      bool
	MissReason cache.CacheMissReason
	Duration   time.Duration
	// Err holds the ingest or validation failure, nil when the recording is valid.
	Err error
}

func (r RecordingReport) Valid() bool {
	return r.Err == nil
}

// Report is the outcome of a batch run, recordings in scan order.
type Report struct {
	DataDir    string
	Recordings []RecordingReport
	Total      int64
	Hits       int64
	Misses     int64
	Failures   int64
	HitRate    float64
	Duration   time.Duration
}

type Analyzer struct {
	config      *Config
	scanner     *scanner.FileScanner
	coordinator *ingest.Coordinator
}

func New(config *Config) (*Analyzer, error) {
	coordinator, err := ingest.New(ingest.Config{
		CacheDir:    config.CacheDir,
		Workers:     config.Workers,
		ForceReload: config.ForceReload,
		Debug:       config.Debug,
	})
	if err != nil {
		return nil, err
	}
	return NewWithCoordinator(config, coordinator), nil
}

func NewWithCoordinator(config *Config, coordinator *ingest.Coordinator) *Analyzer {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}
	return &Analyzer{
		config:      config,
		scanner:     scanner.NewFileScanner(config.DataDir, config.Pattern),
		coordinator: coordinator,
	}
}

// Run ingests and validates every recording under DataDir. Failures of
// individual recordings are recorded in the report; only a failed scan or an
// empty directory fails the run.
func (a *Analyzer) Run() (*Report, error) {
	startTime := time.Now()
	util.LogInfof("Starting analysis of %s", a.config.DataDir)

	// Phase 1: Scan files
	scanStart := time.Now()
	files, err := a.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", a.config.DataDir, err)
	}
	util.LogDebugf("Phase 1 - File scan duration: %v, found %d files", time.Since(scanStart), len(files))
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRecordings, a.config.DataDir)
	}

	// Phase 2: Resolve identities. Two recordings sharing an identity would
	// overwrite each other's cache entries, so only the first one is kept.
	reports := make([]RecordingReport, len(files))
	owners := make(map[string]string, len(files))
	var pending []int
	for i, file := range files {
		identity := cache.ExtractIdentity(file)
		reports[i] = RecordingReport{Path: file, Identity: identity}
		if owner, taken := owners[identity]; taken {
			reports[i].Err = fmt.Errorf("%w: %s", ErrDuplicateIdentity, owner)
			continue
		}
		owners[identity] = file
		pending = append(pending, i)
	}

	// Phase 3: Ingest and validate
	processStart := time.Now()
	stats := NewCacheStats()
	jobs := make(chan int)
	var wg sync.WaitGroup
	var processed int64
	var progressMu sync.Mutex

	concurrency := min(a.config.Concurrency, max(len(pending), 1))
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				a.process(&reports[i], stats)

				progressMu.Lock()
				processed++
				if processed%progressInterval == 0 {
					stats.PrintProgress(processed, int64(len(pending)))
				}
				progressMu.Unlock()
			}
		}()
	}
	for _, i := range pending {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, r := range reports {
		if errors.Is(r.Err, ErrDuplicateIdentity) {
			stats.IncrementTotal()
			stats.IncrementFailure()
		}
	}
	util.LogDebugf("Phase 3 - Processing duration: %v, %d workers", time.Since(processStart), concurrency)
	stats.PrintFinalStats()

	report := &Report{
		DataDir:    a.config.DataDir,
		Recordings: reports,
		Duration:   time.Since(startTime),
	}
	report.Total, report.Hits, report.Misses, report.Failures, report.HitRate = stats.GetStats()
	return report, nil
}

const progressInterval = 10

func (a *Analyzer) process(r *RecordingReport, stats *CacheStats) {
	start := time.Now()
	defer func() { r.Duration = time.Since(start) }()
	stats.IncrementTotal()

	result, runStats, err := a.coordinator.Ingest(r.Path)
	if runStats != nil {
		r.FromCache = runStats.FromCache
		r.Stale = runStats.Stale
		r.MissReason = runStats.MissReason
	}
	if err == nil {
		err = validator.ValidateResult(result)
	}
	if result != nil {
		r.Frames, r.Fields = countResult(result)
	}

	switch {
	case err != nil && !errors.Is(err, validator.ErrValidation):
		util.LogWarnf("Failed to process %s: %v", r.Path, err)
		stats.IncrementFailure()
	case r.FromCache:
		stats.IncrementHit()
	default:
		stats.IncrementMiss(r.Path, r.MissReason)
	}
	r.Err = err
}

func countResult(g *model.Group) (frames, fields int) {
	if timeline, ok := g.Field(model.TimelineField); ok {
		frames = timeline.Len()
	}
	g.Walk(func(path []string, f *model.Field) {
		fields++
	})
	return frames, fields
}
