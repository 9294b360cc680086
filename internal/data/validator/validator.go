// Package validator checks the cardinality invariants of a parsed recording.
package validator

import (
	"errors"
	"fmt"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
)

var (
	// ErrValidation is wrapped by every invariant violation.
	ErrValidation = errors.New("recording failed validation")
	// ErrNoTimeline is returned when the canonical timeline field is absent.
	ErrNoTimeline = errors.New("recording has no " + model.TimelineField + " field")
)

// LengthError reports a field whose length is neither N nor N-1.
type LengthError struct {
	Path string
	Got  int
	Want int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: field %s has %d samples, expected %d or %d",
		ErrValidation, e.Path, e.Got, e.Want, e.Want-1)
}

func (e *LengthError) Unwrap() error { return ErrValidation }

// SideChannelError reports custom actor fields of unequal length.
type SideChannelError struct {
	Path    string
	Lengths map[string]int
}

func (e *SideChannelError) Error() string {
	return fmt.Sprintf("%s: %s fields have unequal lengths %v", ErrValidation, e.Path, e.Lengths)
}

func (e *SideChannelError) Unwrap() error { return ErrValidation }

// ValidateResult validates root against the length of its timeline field.
func ValidateResult(root *model.Group) error {
	timeline, ok := root.Field(model.TimelineField)
	if !ok {
		return ErrNoTimeline
	}
	return Validate(root, timeline.Len())
}

// Validate checks that every field under g has n or n-1 samples. The custom
// actor group is exempt from that rule; its own fields must all be the same length.
func Validate(g *model.Group, n int) error {
	return validate(g, n, "")
}

func validate(g *model.Group, n int, prefix string) error {
	for _, name := range g.Keys() {
		if name == model.SideChannelGroup {
			continue
		}
		node, _ := g.Get(name)
		path := joinPath(prefix, name)

		if node.Kind == model.NodeGroup {
			if err := validate(node.Group, n, path); err != nil {
				return err
			}
			continue
		}

		// n-1 covers fields whose first sample is deferred by one frame
		if l := node.Field.Len(); l != n && l != n-1 {
			return &LengthError{Path: path, Got: l, Want: n}
		}
	}

	if ca, ok := g.Group(model.SideChannelGroup); ok {
		return validateSideChannel(ca, joinPath(prefix, model.SideChannelGroup))
	}
	return nil
}

func validateSideChannel(g *model.Group, path string) error {
	lengths := make(map[string]int)
	want := -1
	equal := true
	for _, name := range g.Keys() {
		f, ok := g.Field(name)
		if !ok {
			continue
		}
		lengths[name] = f.Len()
		if want < 0 {
			want = f.Len()
		} else if f.Len() != want {
			equal = false
		}
	}
	if !equal {
		return &SideChannelError{Path: path, Lengths: lengths}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
