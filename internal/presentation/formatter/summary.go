package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/data/cache"
	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

// SummaryFormatter is responsible for formatting and outputting summary reports.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// GroupSummary counts the fields and samples of one top-level entry.
type GroupSummary struct {
	Name    string
	Fields  int
	Samples int
	IsGroup bool
}

// SummarizeGroups lists top-level entries in first-seen order. Samples is
// the longest field inside the entry.
func SummarizeGroups(result *model.Group) []GroupSummary {
	var out []GroupSummary
	for _, name := range result.Keys() {
		node, _ := result.Get(name)
		if node.Kind == model.NodeField {
			out = append(out, GroupSummary{Name: name, Fields: 1, Samples: node.Field.Len()})
			continue
		}
		gs := GroupSummary{Name: name, IsGroup: true}
		node.Group.Walk(func(_ []string, f *model.Field) {
			gs.Fields++
			gs.Samples = max(gs.Samples, f.Len())
		})
		out = append(out, gs)
	}
	return out
}

func (f *SummaryFormatter) Format(w io.Writer, result *model.Group, stats *ingest.RunStats) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "DReyeVR Recording Summary")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	if stats != nil {
		fmt.Fprintf(&b, "Source:    %s\n", stats.Source)
		fmt.Fprintf(&b, "Identity:  %s\n", stats.Identity)
		fmt.Fprintf(&b, "Result:    %s\n", describeOrigin(stats))
		if !stats.FromCache {
			fmt.Fprintf(&b, "Lines:     %s\n", util.FormatThousands(stats.Lines))
		}
	}

	frames := 0
	if timeline, ok := result.Field(model.TimelineField); ok {
		frames = timeline.Len()
	}
	fmt.Fprintf(&b, "Frames:    %s\n", util.FormatThousands(frames))
	if first, last, ok := recordingSpan(result); ok {
		fmt.Fprintf(&b, "Span:      %s to %s\n", util.FormatSeconds(first), util.FormatSeconds(last))
	}
	fmt.Fprintln(&b)

	groups := SummarizeGroups(result)
	if len(groups) > 0 {
		fmt.Fprintln(&b, "Contents:")
		fmt.Fprintln(&b, strings.Repeat("-", 60))
		for _, g := range groups {
			var detail string
			switch {
			case g.Name == model.SideChannelGroup:
				detail = fmt.Sprintf("%d fields, %s records", g.Fields, util.FormatThousands(g.Samples))
			case g.IsGroup:
				detail = fmt.Sprintf("%d fields", g.Fields)
			default:
				detail = fmt.Sprintf("%s samples", util.FormatThousands(g.Samples))
			}
			fmt.Fprintf(&b, "  %s %s\n", util.PadRight(g.Name, 24), detail)
		}
		fmt.Fprintln(&b)
	}

	if stats != nil && len(stats.Phases) > 0 {
		fmt.Fprintln(&b, "Phases:")
		for _, p := range stats.Phases {
			fmt.Fprintf(&b, "  %s %s\n", util.PadRight(p.Name, 24), util.FormatDuration(p.Duration))
		}
		fmt.Fprintf(&b, "  %s %s\n", util.PadRight("total", 24), util.FormatDuration(stats.Total))
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}

func describeOrigin(stats *ingest.RunStats) string {
	if stats.FromCache {
		if stats.Stale {
			return "cache hit (source changed since it was cached)"
		}
		return "cache hit"
	}
	origin := fmt.Sprintf("parsed with %d worker", stats.Workers)
	if stats.Workers != 1 {
		origin += "s"
	}
	if stats.MissReason != cache.MissReasonNone {
		origin += fmt.Sprintf(" (cache %s)", stats.MissReason)
	}
	return origin
}
