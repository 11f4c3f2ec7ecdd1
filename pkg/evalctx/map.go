package evalctx

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is a string-keyed mapping of Values that remembers insertion order.
// A nil *Map behaves as an empty, read-only mapping.
type Map struct {
	om *orderedmap.OrderedMap[string, Value]
}

// NewMap returns an empty mapping.
func NewMap() *Map {
	return &Map{om: orderedmap.New[string, Value]()}
}

// Set stores value under key. Re-setting an existing key keeps its
// original position. Returns the receiver for chaining.
func (m *Map) Set(key string, value Value) *Map {
	if m.om == nil {
		m.om = orderedmap.New[string, Value]()
	}
	m.om.Set(key, value)
	return m
}

// Get returns the value under key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil || m.om == nil {
		return Value{}, false
	}
	return m.om.Get(key)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, value Value) bool) {
	if m == nil || m.om == nil {
		return
	}
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Interface converts the mapping to a plain map[string]any.
func (m *Map) Interface() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(key string, value Value) bool {
		out[key] = value.Interface()
		return true
	})
	return out
}

// Equal reports whether both mappings hold equal values under the same keys
// in the same order.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	ka, kb := m.Keys(), o.Keys()
	for i, key := range ka {
		if kb[i] != key {
			return false
		}
		va, _ := m.Get(key)
		vb, _ := o.Get(key)
		if !va.Equal(vb) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the mapping.
func (m *Map) Clone() *Map {
	cp := NewMap()
	m.Range(func(key string, value Value) bool {
		cp.Set(key, value.Clone())
		return true
	})
	return cp
}

// Clone returns a deep copy of v. Scalars are value types and returned as-is.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSequence:
		cp := make([]Value, len(v.seq))
		for i, item := range v.seq {
			cp[i] = item.Clone()
		}
		return Value{kind: KindSequence, seq: cp}
	case KindMapping:
		return Value{kind: KindMapping, m: v.m.Clone()}
	default:
		return v
	}
}
