package ingest

import (
	"errors"
	"fmt"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
)

var (
	ErrPartition        = errors.New("partition merge failed")
	ErrMissingPartition = errors.New("partition result missing")
)

// PartitionError identifies the partition a merge or worker failure came from.
type PartitionError struct {
	Index int
	Err   error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %d: %v", e.Index, e.Err)
}

func (e *PartitionError) Is(target error) bool {
	return target == ErrPartition
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}

// Merge folds partial results left to right. The first part becomes the
// running result and every later part is appended field by field.
func Merge(parts []*model.Group) (*model.Group, error) {
	if len(parts) == 0 {
		return model.NewResult(), nil
	}

	merged := parts[0]
	if merged == nil {
		return nil, &PartitionError{Index: 0, Err: ErrMissingPartition}
	}
	for i := 1; i < len(parts); i++ {
		if parts[i] == nil {
			return nil, &PartitionError{Index: i, Err: ErrMissingPartition}
		}
		if err := merged.Extend(parts[i]); err != nil {
			return nil, &PartitionError{Index: i, Err: err}
		}
	}
	return merged, nil
}
