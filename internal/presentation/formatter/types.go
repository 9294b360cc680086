package formatter

import (
	"fmt"
	"io"
	"math"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
)

// NameSeparator joins nested names in flat output, e.g. EyeTracker_COMBINEDGazeRay.
const NameSeparator = "_"

// Formatter renders one ingested recording.
type Formatter interface {
	Format(w io.Writer, result *model.Group, stats *ingest.RunStats) error
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "table", "":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "summary":
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json, csv or summary)", name)
	}
}

// FieldSummary describes one flattened field.
type FieldSummary struct {
	Name    string
	Kind    string
	Samples int
	Width   int
	First   string
	Last    string
	Numeric bool
	Min     float64
	Max     float64
}

// Summarize lists every field of result in first-seen order.
func Summarize(result *model.Group) []FieldSummary {
	flat := model.Flatten(result, NameSeparator)
	out := make([]FieldSummary, 0, len(flat))
	for _, ff := range flat {
		out = append(out, summarizeField(ff.Name, ff.Field))
	}
	return out
}

func summarizeField(name string, f *model.Field) FieldSummary {
	s := FieldSummary{
		Name:    name,
		Kind:    fieldKind(f),
		Samples: f.Len(),
		Width:   f.Width(),
	}
	if s.Samples == 0 {
		return s
	}

	s.First = f.Values[0].String()
	last, _ := f.Last()
	s.Last = last.String()

	if nums, err := f.Floats(); err == nil {
		s.Numeric = true
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		for _, n := range nums {
			s.Min = math.Min(s.Min, n)
			s.Max = math.Max(s.Max, n)
		}
	}
	return s
}

func fieldKind(f *model.Field) string {
	if f.Len() == 0 {
		return "-"
	}
	kind := f.Values[0].Kind
	for _, v := range f.Values[1:] {
		if v.Kind != kind {
			return "mixed"
		}
	}
	return kind.String()
}

// recordingSpan returns the first and last timeline values in seconds.
func recordingSpan(result *model.Group) (first, last float64, ok bool) {
	timeline, found := result.Field(model.TimelineField)
	if !found || timeline.Len() == 0 {
		return 0, 0, false
	}
	seconds, err := timeline.Floats()
	if err != nil {
		return 0, 0, false
	}
	return seconds[0], seconds[len(seconds)-1], true
}
