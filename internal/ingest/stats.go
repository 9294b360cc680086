package ingest

import (
	"time"

	"github.com/penwyp/go-dreyevr-parser/internal/data/cache"
)

// Phase is the wall time one ingestion step took.
type Phase struct {
	Name     string
	Duration time.Duration
}

// RunStats describes how one Ingest call produced its result.
type RunStats struct {
	RunID    string
	Source   string
	Identity string

	FromCache  bool
	Stale      bool
	MissReason cache.CacheMissReason

	Lines   int
	Workers int
	Frames  int

	Phases []Phase
	Total  time.Duration
}

func (s *RunStats) addPhase(name string, start time.Time) time.Duration {
	d := time.Since(start)
	s.Phases = append(s.Phases, Phase{Name: name, Duration: d})
	return d
}

// Phase returns the duration recorded for name.
func (s *RunStats) Phase(name string) (time.Duration, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p.Duration, true
		}
	}
	return 0, false
}
