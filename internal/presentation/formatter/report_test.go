package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-dreyevr-parser/internal/analyzer"
	"github.com/penwyp/go-dreyevr-parser/internal/data/cache"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *analyzer.Report {
	return &analyzer.Report{
		DataDir: "/study",
		Recordings: []analyzer.RecordingReport{
			{Path: "/study/exp1.txt", Identity: "exp1", Frames: 1200, Fields: 42, FromCache: true},
			{Path: "/study/p2/exp2.txt", Identity: "exp2", Frames: 900, Fields: 40, MissReason: cache.MissReasonNotFound},
			{Path: "/study/p2/exp2.rec.txt", Identity: "exp2", Err: fmt.Errorf("%w: /study/p2/exp2.txt", analyzer.ErrDuplicateIdentity)},
		},
		Total:    3,
		Hits:     1,
		Misses:   1,
		Failures: 1,
		HitRate:  100.0 / 3,
		Duration: 1500 * time.Millisecond,
	}
}

func TestNewReportFormatter(t *testing.T) {
	for _, name := range []string{"", "table", "json"} {
		f, err := NewReportFormatter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := NewReportFormatter("csv")
	assert.ErrorContains(t, err, "unknown report format")
}

func TestReportTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportTableFormatter().WithMaxWidth(120).FormatReport(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Recording")
	assert.Contains(t, out, "exp1.txt")
	assert.Contains(t, out, "p2/exp2.txt")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "cache")
	assert.Contains(t, out, "parsed")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "3 recordings, 2 valid, 1 invalid; cache hit rate 33.3% (1 hits/1 misses/1 failures) in 1.50s")
	assert.Contains(t, out, "  p2/exp2.rec.txt: cache identity already used by another recording: /study/p2/exp2.txt")
}

func TestReportTableFormatterShrinksPaths(t *testing.T) {
	report := sampleReport()
	report.Recordings[0].Path = "/study/" + strings.Repeat("long-directory-name/", 10) + "exp1.txt"

	var buf bytes.Buffer
	require.NoError(t, NewReportTableFormatter().WithMaxWidth(80).FormatReport(&buf, report))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, 80, util.GetDisplayWidth(lines[0]))
	assert.Contains(t, buf.String(), "…")
}

func TestReportJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportJSONFormatter().FormatReport(&buf, sampleReport()))

	var doc struct {
		DataDir    string `json:"data_dir"`
		Total      int    `json:"total"`
		DurationMS int    `json:"duration_ms"`
		Recordings []struct {
			Identity   string `json:"identity"`
			FromCache  bool   `json:"from_cache"`
			MissReason string `json:"miss_reason"`
			Valid      bool   `json:"valid"`
			Error      string `json:"error"`
		} `json:"recordings"`
	}
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "/study", doc.DataDir)
	assert.Equal(t, 3, doc.Total)
	assert.Equal(t, 1500, doc.DurationMS)
	require.Len(t, doc.Recordings, 3)
	assert.True(t, doc.Recordings[0].FromCache)
	assert.Empty(t, doc.Recordings[0].MissReason)
	assert.Equal(t, "not found", doc.Recordings[1].MissReason)
	assert.True(t, doc.Recordings[1].Valid)
	assert.False(t, doc.Recordings[2].Valid)
	assert.Contains(t, doc.Recordings[2].Error, "cache identity already used")
}
