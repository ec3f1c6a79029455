// The build value model. Every build description file parses into a tree
// of Values which the rest of the pipeline merges, expands and rewrites
// in place. Mutating methods require exclusive access to the subtree;
// the pipeline phases are well-ordered so this never needs locking.

package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hew-build/hew/src/cli/logging"
)

var log = logging.Log

// A Value is one node of a build description tree.
// The concrete types are Str, Int, Bool, Null, *List and *Map.
type Value interface {
	// All values are stringable; Str renders its raw contents, which is
	// what variable expansion splices into strings.
	fmt.Stringer
	// TypeName returns the name of this value's type, for error messages.
	TypeName() string
	// Copy returns a deep copy sharing no mutable structure with the original.
	Copy() Value
}

// A Str is a string value.
type Str string

// TypeName implements the Value interface.
func (s Str) TypeName() string { return "string" }

// Copy implements the Value interface.
func (s Str) Copy() Value { return s }

// String implements the fmt.Stringer interface.
func (s Str) String() string { return string(s) }

// MarshalJSON implements the json.Marshaler interface.
func (s Str) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// An Int is a 64-bit signed integer value.
type Int int64

// TypeName implements the Value interface.
func (i Int) TypeName() string { return "int" }

// Copy implements the Value interface.
func (i Int) Copy() Value { return i }

// String implements the fmt.Stringer interface.
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// MarshalJSON implements the json.Marshaler interface.
func (i Int) MarshalJSON() ([]byte, error) { return []byte(i.String()), nil }

// A Bool is a boolean value.
type Bool bool

// TypeName implements the Value interface.
func (b Bool) TypeName() string { return "bool" }

// Copy implements the Value interface.
func (b Bool) Copy() Value { return b }

// String implements the fmt.Stringer interface.
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// MarshalJSON implements the json.Marshaler interface.
func (b Bool) MarshalJSON() ([]byte, error) { return []byte(b.String()), nil }

// Null is the null value. The parser accepts it so that files containing it
// get a useful error from the phase that encounters it rather than a syntax
// error; no pipeline phase tolerates it as input.
type Null struct{}

// TypeName implements the Value interface.
func (n Null) TypeName() string { return "null" }

// Copy implements the Value interface.
func (n Null) Copy() Value { return n }

// String implements the fmt.Stringer interface.
func (n Null) String() string { return "null" }

// MarshalJSON implements the json.Marshaler interface.
func (n Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// A List is an ordered sequence of values. Duplicates are allowed.
type List struct {
	Items []Value
}

// NewList creates a new list of the given items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// TypeName implements the Value interface.
func (l *List) TypeName() string { return "list" }

// Copy implements the Value interface.
func (l *List) Copy() Value {
	items := make([]Value, len(l.Items))
	for i, item := range l.Items {
		items[i] = item.Copy()
	}
	return &List{Items: items}
}

// Len returns the number of items in the list.
func (l *List) Len() int { return len(l.Items) }

// Insert inserts a value at the given index, shifting later items up.
func (l *List) Insert(index int, v Value) {
	l.Items = append(l.Items, nil)
	copy(l.Items[index+1:], l.Items[index:])
	l.Items[index] = v
}

// Remove removes the item at the given index, shifting later items down.
func (l *List) Remove(index int) {
	l.Items = append(l.Items[:index], l.Items[index+1:]...)
}

// Contains returns true if any item of the list equals the given value.
func (l *List) Contains(v Value) bool {
	for _, item := range l.Items {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// String implements the fmt.Stringer interface.
func (l *List) String() string { return marshalForDisplay(l) }

// MarshalJSON implements the json.Marshaler interface.
func (l *List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range l.Items {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// A Map is a mapping from string keys to values. Iteration follows key
// insertion order, which keeps every walk over a file deterministic.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap creates a new empty map.
func NewMap() *Map {
	return &Map{values: map[string]Value{}}
}

// TypeName implements the Value interface.
func (m *Map) TypeName() string { return "map" }

// Copy implements the Value interface.
func (m *Map) Copy() Value {
	c := &Map{
		keys:   append([]string{}, m.keys...),
		values: make(map[string]Value, len(m.values)),
	}
	for k, v := range m.values {
		c.values[k] = v.Copy()
	}
	return c
}

// Len returns the number of entries in the map.
func (m *Map) Len() int { return len(m.keys) }

// Get returns the value stored under the given key.
func (m *Map) Get(key string) (Value, bool) {
	v, present := m.values[key]
	return v, present
}

// Has returns true if the map has an entry under the given key.
func (m *Map) Has(key string) bool {
	_, present := m.values[key]
	return present
}

// Set stores a value under the given key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if _, present := m.values[key]; !present {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes the entry under the given key, if any.
func (m *Map) Delete(key string) {
	if _, present := m.values[key]; !present {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the map's keys in insertion order.
// The returned slice is a copy; callers may delete entries while ranging it.
func (m *Map) Keys() []string {
	return append([]string{}, m.keys...)
}

// GetStr returns the string stored under the given key.
// Returns false if the key is absent or holds another type.
func (m *Map) GetStr(key string) (Str, bool) {
	s, ok := m.values[key].(Str)
	return s, ok
}

// GetList returns the list stored under the given key.
// Returns false if the key is absent or holds another type.
func (m *Map) GetList(key string) (*List, bool) {
	l, ok := m.values[key].(*List)
	return l, ok
}

// GetMap returns the sub-map stored under the given key.
// Returns false if the key is absent or holds another type.
func (m *Map) GetMap(key string) (*Map, bool) {
	sub, ok := m.values[key].(*Map)
	return sub, ok
}

// String implements the fmt.Stringer interface.
func (m *Map) String() string { return marshalForDisplay(m) }

// MarshalJSON implements the json.Marshaler interface.
// Keys are emitted in insertion order so output is deterministic.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SameVariant returns true if the two values are of the same concrete type.
func SameVariant(a, b Value) bool {
	switch a.(type) {
	case Str:
		_, ok := b.(Str)
		return ok
	case Int:
		_, ok := b.(Int)
		return ok
	case Bool:
		_, ok := b.(Bool)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case *List:
		_, ok := b.(*List)
		return ok
	case *Map:
		_, ok := b.(*Map)
		return ok
	}
	return false
}

// Equal returns true if the two values are deeply equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Str, Int, Bool, Null:
		return a == b
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i, item := range av.Items {
			if !Equal(item, bv.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || len(av.keys) != len(bv.keys) {
			return false
		}
		for _, k := range av.keys {
			other, present := bv.values[k]
			if !present || !Equal(av.values[k], other) {
				return false
			}
		}
		return true
	}
	return false
}

func marshalForDisplay(v json.Marshaler) string {
	b, err := v.MarshalJSON()
	if err != nil {
		log.Error("Failed to render value: %s", err)
		return "<unrenderable>"
	}
	return string(b)
}
