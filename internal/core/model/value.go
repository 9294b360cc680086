package model

import (
	"strconv"
	"strings"
)

// Kind tags the concrete type held by a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindVector
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindVector:
		return "vector"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is one decoded sample. Only the member matching Kind is meaningful.
// Vectors keep their axis labels so they can be written back out.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Elems []Value
	Axes  []string
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// VectorValue builds a labelled vector such as X/Y/Z or P/Y/R.
func VectorValue(axes []string, elems []Value) Value {
	return Value{Kind: KindVector, Axes: axes, Elems: elems}
}

func ListValue(elems []Value) Value { return Value{Kind: KindList, Elems: elems} }

// Number returns the value as a float64 when it is numeric or boolean.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Interface converts the value into plain Go types for encoders.
func (v Value) Interface() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindVector, KindList:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = e.Interface()
		}
		return out
	default:
		return v.Str
	}
}

// String renders the value in recording notation, so decoding the result
// yields the same value again.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return formatFloat(v.Float)
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindVector:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			axis := ""
			if i < len(v.Axes) {
				axis = v.Axes[i]
			}
			parts[i] = axis + "=" + e.String()
		}
		return strings.Join(parts, " ")
	case KindList:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.Str
	}
}

// formatFloat always keeps a decimal point or exponent so floats never read back as ints.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
