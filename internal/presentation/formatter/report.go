package formatter

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-dreyevr-parser/internal/analyzer"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

// ReportFormatter renders the outcome of a batch run.
type ReportFormatter interface {
	FormatReport(w io.Writer, report *analyzer.Report) error
}

func NewReportFormatter(name string) (ReportFormatter, error) {
	switch name {
	case "table", "":
		return NewReportTableFormatter(), nil
	case "json":
		return NewReportJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want table or json)", name)
	}
}

type ReportTableFormatter struct {
	table *TableFormatter
}

func NewReportTableFormatter() *ReportTableFormatter {
	return &ReportTableFormatter{
		table: &TableFormatter{
			headers:     []string{"Recording", "Identity", "Frames", "Fields", "Result", "Status"},
			flexible:    []int{0},
			leftAligned: 2,
		},
	}
}

// WithMaxWidth fixes the table width instead of asking the terminal.
func (f *ReportTableFormatter) WithMaxWidth(width int) *ReportTableFormatter {
	f.table.maxWidth = width
	return f
}

func (f *ReportTableFormatter) FormatReport(w io.Writer, report *analyzer.Report) error {
	rows := make([][]string, 0, len(report.Recordings))
	valid := 0
	for _, r := range report.Recordings {
		status := "FAIL"
		if r.Valid() {
			status = "OK"
			valid++
		}
		rows = append(rows, []string{
			relativePath(report.DataDir, r.Path),
			r.Identity,
			util.FormatThousands(r.Frames),
			util.FormatThousands(r.Fields),
			describeRecording(r),
			status,
		})
	}

	t := f.table
	widths := t.calculateColumnWidths(rows, t.tableWidth(w))
	t.printBorder(w, widths, "top")
	t.printRow(w, t.headers, widths)
	t.printBorder(w, widths, "middle")
	for _, row := range rows {
		t.printRow(w, row, widths)
	}
	t.printBorder(w, widths, "bottom")

	fmt.Fprintf(w, "%d recordings, %d valid, %d invalid; cache hit rate %.1f%% (%d hits/%d misses/%d failures) in %s\n",
		len(report.Recordings), valid, len(report.Recordings)-valid,
		report.HitRate, report.Hits, report.Misses, report.Failures, util.FormatDuration(report.Duration))

	for _, r := range report.Recordings {
		if r.Err != nil {
			fmt.Fprintf(w, "  %s: %v\n", relativePath(report.DataDir, r.Path), r.Err)
		}
	}
	return nil
}

func describeRecording(r analyzer.RecordingReport) string {
	switch {
	case r.FromCache && r.Stale:
		return "cache (stale)"
	case r.FromCache:
		return "cache"
	case r.Frames == 0 && r.Err != nil:
		return "failed"
	default:
		return "parsed"
	}
}

func relativePath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

type ReportJSONFormatter struct {
	api sonic.API
}

func NewReportJSONFormatter() *ReportJSONFormatter {
	return &ReportJSONFormatter{api: sonic.ConfigStd}
}

type reportDocument struct {
	DataDir    string              `json:"data_dir"`
	Total      int64               `json:"total"`
	Hits       int64               `json:"hits"`
	Misses     int64               `json:"misses"`
	Failures   int64               `json:"failures"`
	HitRate    float64             `json:"hit_rate"`
	DurationMS int64               `json:"duration_ms"`
	Recordings []recordingDocument `json:"recordings"`
}

type recordingDocument struct {
	Path       string `json:"path"`
	Identity   string `json:"identity"`
	Frames     int    `json:"frames"`
	Fields     int    `json:"fields"`
	FromCache  bool   `json:"from_cache"`
	Stale      bool   `json:"stale,omitempty"`
	MissReason string `json:"miss_reason,omitempty"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
}

func (f *ReportJSONFormatter) FormatReport(w io.Writer, report *analyzer.Report) error {
	doc := reportDocument{
		DataDir:    report.DataDir,
		Total:      report.Total,
		Hits:       report.Hits,
		Misses:     report.Misses,
		Failures:   report.Failures,
		HitRate:    report.HitRate,
		DurationMS: report.Duration.Milliseconds(),
		Recordings: make([]recordingDocument, 0, len(report.Recordings)),
	}
	for _, r := range report.Recordings {
		rec := recordingDocument{
			Path:      r.Path,
			Identity:  r.Identity,
			Frames:    r.Frames,
			Fields:    r.Fields,
			FromCache: r.FromCache,
			Stale:     r.Stale,
			Valid:     r.Valid(),
		}
		if !r.FromCache {
			rec.MissReason = r.MissReason.String()
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		doc.Recordings = append(doc.Recordings, rec)
	}

	data, err := f.api.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
