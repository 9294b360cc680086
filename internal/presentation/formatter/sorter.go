package formatter

import (
	"fmt"
	"sort"
	"strings"
)

// SortField represents the column field summaries are sorted by
type SortField int

const (
	// SortByOrder keeps the order fields first appeared in the recording.
	SortByOrder SortField = iota
	SortByName
	SortBySamples
)

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// ParseSortField maps a flag value to a SortField.
func ParseSortField(name string) (SortField, error) {
	switch strings.ToLower(name) {
	case "", "order":
		return SortByOrder, nil
	case "name":
		return SortByName, nil
	case "samples":
		return SortBySamples, nil
	default:
		return SortByOrder, fmt.Errorf("unknown sort field %q (want order, name or samples)", name)
	}
}

// FieldSorter orders field summaries
type FieldSorter struct {
	field SortField
	order SortOrder
}

func NewFieldSorter(field SortField, order SortOrder) *FieldSorter {
	return &FieldSorter{field: field, order: order}
}

// Sort sorts in place. Ties keep their recording order.
func (s *FieldSorter) Sort(fields []FieldSummary) {
	if s.field == SortByOrder {
		if s.order == SortDescending {
			for i, j := 0, len(fields)-1; i < j; i, j = i+1, j-1 {
				fields[i], fields[j] = fields[j], fields[i]
			}
		}
		return
	}

	sort.SliceStable(fields, func(i, j int) bool {
		a, b := fields[i], fields[j]
		if s.order == SortDescending {
			a, b = b, a
		}
		switch s.field {
		case SortByName:
			return a.Name < b.Name
		case SortBySamples:
			return a.Samples < b.Samples
		}
		return false
	})
}
