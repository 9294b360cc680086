package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryNames(fields []FieldSummary) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func TestParseSortField(t *testing.T) {
	tests := []struct {
		name string
		want SortField
	}{
		{"", SortByOrder},
		{"order", SortByOrder},
		{"Name", SortByName},
		{"samples", SortBySamples},
	}
	for _, tt := range tests {
		got, err := ParseSortField(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseSortField("cost")
	assert.ErrorContains(t, err, "unknown sort field")
}

func TestFieldSorter(t *testing.T) {
	fields := func() []FieldSummary {
		return []FieldSummary{
			{Name: "TimeElapsed", Samples: 10},
			{Name: "CustomActor_Name", Samples: 3},
			{Name: "EgoVariables_VehicleVel", Samples: 10},
			{Name: "TimestampCarla", Samples: 9},
		}
	}

	tests := []struct {
		name  string
		field SortField
		order SortOrder
		want  []string
	}{
		{"order", SortByOrder, SortAscending,
			[]string{"TimeElapsed", "CustomActor_Name", "EgoVariables_VehicleVel", "TimestampCarla"}},
		{"order desc", SortByOrder, SortDescending,
			[]string{"TimestampCarla", "EgoVariables_VehicleVel", "CustomActor_Name", "TimeElapsed"}},
		{"name", SortByName, SortAscending,
			[]string{"CustomActor_Name", "EgoVariables_VehicleVel", "TimeElapsed", "TimestampCarla"}},
		{"samples keeps ties stable", SortBySamples, SortAscending,
			[]string{"CustomActor_Name", "TimestampCarla", "TimeElapsed", "EgoVariables_VehicleVel"}},
		{"samples desc", SortBySamples, SortDescending,
			[]string{"TimeElapsed", "EgoVariables_VehicleVel", "TimestampCarla", "CustomActor_Name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fields()
			NewFieldSorter(tt.field, tt.order).Sort(got)
			assert.Equal(t, tt.want, summaryNames(got))
		})
	}
}

func TestTableFormatterWithSorter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter().WithMaxWidth(200).WithSorter(NewFieldSorter(SortByName, SortAscending))
	require.NoError(t, f.Format(&buf, sampleRecording(t), sampleStats()))

	out := buf.String()
	custom := strings.Index(out, "CustomActor_")
	timeline := strings.Index(out, "TimeElapsed")
	require.Positive(t, custom)
	require.Positive(t, timeline)
	assert.Less(t, custom, timeline)
}
