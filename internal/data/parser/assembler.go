package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/data/decoder"
)

// ErrMalformedChunk is returned for a chunk that is not a bare value, a label or a key:value pair.
var ErrMalformedChunk = errors.New("malformed chunk")

// ChunkError describes the chunk that broke the record grammar.
type ChunkError struct {
	Group    string
	Chunk    string
	Segments int
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s: group %q chunk %q has %d colon-separated segments",
		ErrMalformedChunk, e.Group, e.Chunk, e.Segments)
}

func (e *ChunkError) Unwrap() error { return ErrMalformedChunk }

// braces act as extra separators: "A:{B:1,C:2}" reads as "A:,B:1,C:2,".
var braceReplacer = strings.NewReplacer("{", ",", "}", ",")

// AssembleRow folds one marker-stripped record into root.
//
// When group is empty the group name is read from the record itself ("Name:...").
// A non-nil link is appended to the group's "t" field before anything else.
// It returns the group name the record was stored under.
func AssembleRow(root *model.Group, line, group string, link *model.Value) (string, error) {
	chunks := strings.Split(braceReplacer.Replace(line), ",")

	if group == "" {
		group, _, _ = strings.Cut(chunks[0], ":")
		chunks[0] = strings.TrimPrefix(chunks[0], group+":")
	}

	target, err := root.EnsureGroup(group)
	if err != nil {
		return group, err
	}

	if link != nil {
		if err := target.AppendValue(model.LinkField, *link); err != nil {
			return group, err
		}
	}

	subtitle := ""
	for _, chunk := range chunks {
		// empty chunks come from adjacent braces and close the current sub-object
		if chunk == "" {
			subtitle = ""
			continue
		}

		if !strings.Contains(chunk, ":") {
			if err := target.AppendValue(model.BareValueField, decoder.Decode(chunk)); err != nil {
				return group, err
			}
			continue
		}

		segments := nonEmpty(strings.Split(chunk, ":"))
		switch len(segments) {
		case 1:
			subtitle = segments[0]
		case 2:
			key := subtitle + segments[0]
			if err := target.AppendValue(key, decoder.Decode(segments[1])); err != nil {
				return group, err
			}
		default:
			return group, &ChunkError{Group: group, Chunk: chunk, Segments: len(segments)}
		}
	}
	return group, nil
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
