package formatter

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
)

// CSVFormatter writes one row per frame with a column per flattened field.
// Custom actor records are not frame-aligned and are left out.
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, result *model.Group, _ *ingest.RunStats) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	var columns []model.FlatField
	for _, ff := range model.Flatten(result, NameSeparator) {
		if ff.Name == model.SideChannelGroup || strings.HasPrefix(ff.Name, model.SideChannelGroup+NameSeparator) {
			continue
		}
		columns = append(columns, ff)
	}

	headers := make([]string, len(columns))
	rows := 0
	for i, col := range columns {
		headers[i] = col.Name
		rows = max(rows, col.Field.Len())
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	// Fields one sample short leave the last cell empty.
	record := make([]string, len(columns))
	for r := 0; r < rows; r++ {
		for i, col := range columns {
			record[i] = ""
			if r < col.Field.Len() {
				record[i] = col.Field.Values[r].String()
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
