package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
)

// JSONFormatter writes the whole result as nested objects of sample arrays.
type JSONFormatter struct {
	api sonic.API
}

func NewJSONFormatter() *JSONFormatter {
	// Sorted keys keep the output stable across runs.
	return &JSONFormatter{api: sonic.ConfigStd}
}

type jsonDocument struct {
	Source    string         `json:"source,omitempty"`
	Identity  string         `json:"identity,omitempty"`
	FromCache bool           `json:"from_cache"`
	Frames    int            `json:"frames"`
	Data      map[string]any `json:"data"`
}

func (f *JSONFormatter) Format(w io.Writer, result *model.Group, stats *ingest.RunStats) error {
	doc := jsonDocument{Data: result.ToMap()}
	if stats != nil {
		doc.Source = stats.Source
		doc.Identity = stats.Identity
		doc.FromCache = stats.FromCache
		doc.Frames = stats.Frames
	}

	data, err := f.api.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
