package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
	"golang.org/x/term"
)

const (
	defaultTableWidth = 120
	minValueWidth     = 8
)

type TableFormatter struct {
	headers  []string
	maxWidth int
	// flexible lists the columns that give up width when the table is too wide.
	flexible []int
	// leftAligned is the number of leading left-aligned columns.
	leftAligned int
	sorter      *FieldSorter
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers:     []string{"Field", "Kind", "Samples", "First", "Last", "Min", "Max"},
		flexible:    []int{3, 4},
		leftAligned: 2,
	}
}

// WithMaxWidth fixes the table width instead of asking the terminal.
func (f *TableFormatter) WithMaxWidth(width int) *TableFormatter {
	f.maxWidth = width
	return f
}

// WithSorter orders the rows; without one they follow the recording.
func (f *TableFormatter) WithSorter(sorter *FieldSorter) *TableFormatter {
	f.sorter = sorter
	return f
}

func (f *TableFormatter) Format(w io.Writer, result *model.Group, stats *ingest.RunStats) error {
	summaries := Summarize(result)
	if f.sorter != nil {
		f.sorter.Sort(summaries)
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, f.summaryRow(s))
	}

	widths := f.calculateColumnWidths(rows, f.tableWidth(w))

	f.printBorder(w, widths, "top")
	f.printRow(w, f.headers, widths)
	f.printBorder(w, widths, "middle")
	for _, row := range rows {
		f.printRow(w, row, widths)
	}
	f.printBorder(w, widths, "bottom")

	if stats != nil {
		_, err := fmt.Fprintf(w, "%s fields, %s frames, source %s\n",
			util.FormatThousands(len(rows)), util.FormatThousands(stats.Frames), stats.Source)
		return err
	}
	return nil
}

func (f *TableFormatter) summaryRow(s FieldSummary) []string {
	kind := s.Kind
	if s.Width > 0 {
		kind = fmt.Sprintf("%s[%d]", s.Kind, s.Width)
	}
	minStr, maxStr := "", ""
	if s.Numeric {
		minStr = model.FloatValue(s.Min).String()
		maxStr = model.FloatValue(s.Max).String()
	}
	return []string{
		s.Name,
		kind,
		util.FormatThousands(s.Samples),
		s.First,
		s.Last,
		minStr,
		maxStr,
	}
}

// tableWidth uses the terminal width when w is a terminal.
func (f *TableFormatter) tableWidth(w io.Writer) int {
	if f.maxWidth > 0 {
		return f.maxWidth
	}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 40 {
			return width
		}
	}
	return defaultTableWidth
}

// calculateColumnWidths sizes columns to their content, then shrinks the
// widest flexible column until the table fits maxWidth.
func (f *TableFormatter) calculateColumnWidths(rows [][]string, maxWidth int) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range rows {
		for i, value := range row {
			widths[i] = max(widths[i], util.GetDisplayWidth(value))
		}
	}

	// every column adds 3 (padding and separator), plus the left border
	total := 1
	for _, width := range widths {
		total += width + 3
	}
	for total > maxWidth && len(f.flexible) > 0 {
		i := f.flexible[0]
		for _, col := range f.flexible[1:] {
			if widths[col] > widths[i] {
				i = col
			}
		}
		if widths[i] <= minValueWidth {
			break
		}
		widths[i]--
		total--
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(w io.Writer, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(w, b.String())
}

// printRow left-aligns the leading columns and right-aligns the rest.
func (f *TableFormatter) printRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	b.WriteString("│")
	for i, value := range values {
		value = util.Truncate(value, widths[i])
		if i < f.leftAligned {
			b.WriteString(" " + util.PadRight(value, widths[i]) + " │")
		} else {
			b.WriteString(" " + util.PadLeft(value, widths[i]) + " │")
		}
	}
	fmt.Fprintln(w, b.String())
}
