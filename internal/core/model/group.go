package model

import (
	"fmt"
	"strings"
)

// NodeKind tags a Node as either a Field or a nested Group.
type NodeKind uint8

const (
	NodeField NodeKind = iota
	NodeGroup
)

func (k NodeKind) String() string {
	if k == NodeGroup {
		return "group"
	}
	return "field"
}

// Node is one named entry of a Group.
type Node struct {
	Kind  NodeKind
	Field *Field
	Group *Group
}

// ShapeError reports a name that is a field in one place and a group in another.
type ShapeError struct {
	Path string
	Have NodeKind
	Want NodeKind
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s is a %s, expected a %s", e.Path, e.Have, e.Want)
}

// Group is an ordered mapping from names to fields or nested groups.
// Names keep the order in which they were first seen.
type Group struct {
	keys    []string
	entries map[string]Node
}

func NewGroup() *Group {
	return &Group{entries: make(map[string]Node)}
}

// NewResult returns an empty recording with its timeline field in place.
func NewResult() *Group {
	g := NewGroup()
	g.Put(TimelineField, Node{Kind: NodeField, Field: &Field{}})
	return g
}

// Keys returns entry names in first-seen order.
func (g *Group) Keys() []string {
	return g.keys
}

func (g *Group) Len() int {
	return len(g.keys)
}

func (g *Group) Get(name string) (Node, bool) {
	n, ok := g.entries[name]
	return n, ok
}

func (g *Group) Field(name string) (*Field, bool) {
	n, ok := g.entries[name]
	if !ok || n.Kind != NodeField {
		return nil, false
	}
	return n.Field, true
}

func (g *Group) Group(name string) (*Group, bool) {
	n, ok := g.entries[name]
	if !ok || n.Kind != NodeGroup {
		return nil, false
	}
	return n.Group, true
}

// Put sets an entry, keeping its position when the name already exists.
func (g *Group) Put(name string, n Node) {
	if _, ok := g.entries[name]; !ok {
		g.keys = append(g.keys, name)
	}
	g.entries[name] = n
}

// EnsureField returns the named field, creating it on first use.
func (g *Group) EnsureField(name string) (*Field, error) {
	if n, ok := g.entries[name]; ok {
		if n.Kind != NodeField {
			return nil, &ShapeError{Path: name, Have: n.Kind, Want: NodeField}
		}
		return n.Field, nil
	}
	f := &Field{}
	g.Put(name, Node{Kind: NodeField, Field: f})
	return f, nil
}

// EnsureGroup returns the named sub-group, creating it on first use.
func (g *Group) EnsureGroup(name string) (*Group, error) {
	if n, ok := g.entries[name]; ok {
		if n.Kind != NodeGroup {
			return nil, &ShapeError{Path: name, Have: n.Kind, Want: NodeGroup}
		}
		return n.Group, nil
	}
	sub := NewGroup()
	g.Put(name, Node{Kind: NodeGroup, Group: sub})
	return sub, nil
}

// AppendValue appends v to the named field.
func (g *Group) AppendValue(name string, v Value) error {
	f, err := g.EnsureField(name)
	if err != nil {
		return err
	}
	f.Append(v)
	return nil
}

// Extend concatenates every field of next after the matching field of g,
// recursing into groups. Names only present in next are adopted as they are.
func (g *Group) Extend(next *Group) error {
	return g.extend(next, "")
}

func (g *Group) extend(next *Group, prefix string) error {
	for _, name := range next.keys {
		incoming := next.entries[name]
		current, ok := g.entries[name]
		if !ok {
			g.Put(name, incoming)
			continue
		}

		path := joinPath(prefix, name)
		if current.Kind != incoming.Kind {
			return &ShapeError{Path: path, Have: incoming.Kind, Want: current.Kind}
		}
		if current.Kind == NodeGroup {
			if err := current.Group.extend(incoming.Group, path); err != nil {
				return err
			}
			continue
		}
		current.Field.Values = append(current.Field.Values, incoming.Field.Values...)
	}
	return nil
}

// CollapseStandalone replaces every sub-group that only carries key-less values
// with a plain field holding those values, e.g. TimestampCarla.
func (g *Group) CollapseStandalone() {
	for _, name := range g.keys {
		n := g.entries[name]
		if n.Kind != NodeGroup {
			continue
		}
		n.Group.CollapseStandalone()
		if n.Group.Len() != 1 {
			continue
		}
		if f, ok := n.Group.Field(BareValueField); ok {
			g.entries[name] = Node{Kind: NodeField, Field: f}
		}
	}
}

// Walk visits every field in depth-first, first-seen order with its dotted path.
func (g *Group) Walk(fn func(path []string, f *Field)) {
	g.walk(nil, fn)
}

func (g *Group) walk(prefix []string, fn func(path []string, f *Field)) {
	for _, name := range g.keys {
		n := g.entries[name]
		path := append(append([]string(nil), prefix...), name)
		if n.Kind == NodeGroup {
			n.Group.walk(path, fn)
			continue
		}
		fn(path, n.Field)
	}
}

// ToMap converts the group into nested maps of plain Go values for encoders.
func (g *Group) ToMap() map[string]any {
	out := make(map[string]any, len(g.keys))
	for _, name := range g.keys {
		n := g.entries[name]
		if n.Kind == NodeGroup {
			out[name] = n.Group.ToMap()
			continue
		}
		values := make([]any, len(n.Field.Values))
		for i, v := range n.Field.Values {
			values[i] = v.Interface()
		}
		out[name] = values
	}
	return out
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// FlatField is a field addressed by its joined path.
type FlatField struct {
	Name  string
	Field *Field
}

// Flatten lists every field with nested names joined by sep.
func Flatten(g *Group, sep string) []FlatField {
	var out []FlatField
	g.Walk(func(path []string, f *Field) {
		out = append(out, FlatField{Name: strings.Join(path, sep), Field: f})
	})
	return out
}
