package model

import "fmt"

// Field is an ordered sequence of samples, one per occurrence of its key.
type Field struct {
	Values []Value
}

// KindError reports a field that cannot be materialized as the requested type.
type KindError struct {
	Index int
	Kind  Kind
	Want  string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("value %d is %s, not %s", e.Index, e.Kind, e.Want)
}

func (f *Field) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Values)
}

func (f *Field) Append(v Value) {
	f.Values = append(f.Values, v)
}

// Last returns the most recently appended value.
func (f *Field) Last() (Value, bool) {
	if f.Len() == 0 {
		return Value{}, false
	}
	return f.Values[len(f.Values)-1], true
}

// Floats materializes a numeric (or boolean) field.
func (f *Field) Floats() ([]float64, error) {
	out := make([]float64, len(f.Values))
	for i, v := range f.Values {
		n, ok := v.Number()
		if !ok {
			return nil, &KindError{Index: i, Kind: v.Kind, Want: "number"}
		}
		out[i] = n
	}
	return out, nil
}

func (f *Field) Ints() ([]int64, error) {
	out := make([]int64, len(f.Values))
	for i, v := range f.Values {
		switch v.Kind {
		case KindInt:
			out[i] = v.Int
		case KindBool:
			if v.Bool {
				out[i] = 1
			}
		default:
			return nil, &KindError{Index: i, Kind: v.Kind, Want: "int"}
		}
	}
	return out, nil
}

func (f *Field) Bools() ([]bool, error) {
	out := make([]bool, len(f.Values))
	for i, v := range f.Values {
		switch v.Kind {
		case KindBool:
			out[i] = v.Bool
		case KindInt:
			out[i] = v.Int != 0
		default:
			return nil, &KindError{Index: i, Kind: v.Kind, Want: "bool"}
		}
	}
	return out, nil
}

// Strings renders every value, whatever its kind.
func (f *Field) Strings() []string {
	out := make([]string, len(f.Values))
	for i, v := range f.Values {
		out[i] = v.String()
	}
	return out
}

// Matrix materializes a field of vectors (or lists) as rows of equal width.
func (f *Field) Matrix() ([][]float64, error) {
	out := make([][]float64, len(f.Values))
	width := -1
	for i, v := range f.Values {
		if v.Kind != KindVector && v.Kind != KindList {
			return nil, &KindError{Index: i, Kind: v.Kind, Want: "vector"}
		}
		if width >= 0 && len(v.Elems) != width {
			return nil, fmt.Errorf("row %d has %d components, expected %d", i, len(v.Elems), width)
		}
		width = len(v.Elems)
		row := make([]float64, len(v.Elems))
		for j, e := range v.Elems {
			n, ok := e.Number()
			if !ok {
				return nil, &KindError{Index: i, Kind: e.Kind, Want: "number"}
			}
			row[j] = n
		}
		out[i] = row
	}
	return out, nil
}

// Width reports the component count of vector fields, 0 for scalars.
func (f *Field) Width() int {
	if f.Len() == 0 {
		return 0
	}
	v := f.Values[0]
	if v.Kind == KindVector || v.Kind == KindList {
		return len(v.Elems)
	}
	return 0
}
