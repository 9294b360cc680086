package ingest

import (
	"os"

	"github.com/penwyp/go-dreyevr-parser/internal/data/parser"
)

// Range is a half-open line-index interval [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// CountLines counts lines the same way the parser reads them, so ranges
// computed from it cover the file exactly.
func CountLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	scanner := parser.NewLineScanner(file)
	total := 0
	for scanner.Scan() {
		total++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return total, nil
}

// Partition splits [0, total) into w contiguous ranges of total/w lines.
// The last range absorbs the remainder.
func Partition(total, w int) []Range {
	if w < 1 {
		w = 1
	}
	if total < 0 {
		total = 0
	}

	size := total / w
	ranges := make([]Range, w)
	for i := range ranges {
		ranges[i] = Range{Start: i * size, End: (i + 1) * size}
	}
	ranges[w-1].End = total
	return ranges
}
