// Package decoder turns the text after a "key:" separator into a typed value.
//
// Decoding is best effort: anything that is not a vector or a recognised
// literal is kept as its raw string, and no error ever escapes.
package decoder

import (
	"strconv"
	"strings"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
)

// axisMarkers identify FVector (X/Y/Z) and FRotator (P/Y/R) components.
var axisMarkers = []string{"X=", "Y=", "Z=", "P=", "R="}

// literalParser tries one literal form and reports whether it matched.
type literalParser func(token string) (model.Value, bool)

// literalParsers are tried in order; the first match wins. It is filled in
// init because parseSequence decodes its elements through decodeLiteral.
var literalParsers []literalParser

func init() {
	literalParsers = []literalParser{
		parseInt,
		parseFloat,
		parseBool,
		parseQuoted,
		parseSequence,
	}
}

// Decode converts one token into a model.Value.
func Decode(token string) model.Value {
	if isVector(token) {
		if v, ok := decodeVector(token); ok {
			return v
		}
		return model.StringValue(token)
	}
	return decodeLiteral(token)
}

// Encode writes v back in recording notation.
func Encode(v model.Value) string {
	return v.String()
}

func isVector(token string) bool {
	for _, m := range axisMarkers {
		if strings.Contains(token, m) {
			return true
		}
	}
	return false
}

// decodeVector splits "X=1.0 Y=2.0 Z=3.0" into labelled components and decodes
// each component on its own.
func decodeVector(token string) (model.Value, bool) {
	parts := strings.Fields(strings.ReplaceAll(strings.Trim(token, "{} "), "=", " "))
	if len(parts) < 2 {
		return model.Value{}, false
	}

	axes := make([]string, 0, len(parts)/2)
	elems := make([]model.Value, 0, len(parts)/2)
	for i := 1; i < len(parts); i += 2 {
		axes = append(axes, parts[i-1])
		elems = append(elems, Decode(parts[i]))
	}
	return model.VectorValue(axes, elems), true
}

func decodeLiteral(token string) model.Value {
	trimmed := strings.TrimSpace(token)
	for _, parse := range literalParsers {
		if v, ok := parse(trimmed); ok {
			return v
		}
	}
	return model.StringValue(token)
}

func parseInt(s string) (model.Value, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return model.Value{}, false
	}
	return model.IntValue(i), true
}

func parseFloat(s string) (model.Value, bool) {
	if s == "" || !strings.ContainsAny(s[:1], "+-.0123456789") {
		return model.Value{}, false
	}
	// ParseFloat accepts inf and nan spellings that the recorder never writes as numbers.
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return model.Value{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Value{}, false
	}
	return model.FloatValue(f), true
}

func parseBool(s string) (model.Value, bool) {
	switch s {
	case "True", "true":
		return model.BoolValue(true), true
	case "False", "false":
		return model.BoolValue(false), true
	}
	return model.Value{}, false
}

func parseQuoted(s string) (model.Value, bool) {
	if len(s) < 2 {
		return model.Value{}, false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return model.Value{}, false
	}
	return model.StringValue(s[1 : len(s)-1]), true
}

// parseSequence handles "[a, b]" lists and "(a, b)" tuples.
func parseSequence(s string) (model.Value, bool) {
	if len(s) < 2 {
		return model.Value{}, false
	}
	open, end := s[0], s[len(s)-1]
	if !(open == '[' && end == ']') && !(open == '(' && end == ')') {
		return model.Value{}, false
	}

	items, ok := splitTopLevel(s[1 : len(s)-1])
	if !ok {
		return model.Value{}, false
	}
	var elems []model.Value
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v := decodeLiteral(item)
		if v.Kind == model.KindString && !isQuoted(item) {
			// Bare words inside a list are not a Python-style literal.
			return model.Value{}, false
		}
		elems = append(elems, v)
	}
	return model.ListValue(elems), true
}

// splitTopLevel splits on commas that are not nested in brackets.
func splitTopLevel(s string) ([]string, bool) {
	var items []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				items = append(items, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	return append(items, s[start:]), true
}

func isQuoted(s string) bool {
	_, ok := parseQuoted(s)
	return ok
}
