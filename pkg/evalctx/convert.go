package evalctx

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FromAny converts a native Go value into a Value.
//
// Integer and float kinds (and json.Number) become Number. Unordered Go maps
// are visited in lexicographic key order so the result is deterministic;
// ordered maps keep their order. Unsupported types become Null.
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case *Context:
		return val.Value()
	case *Map:
		if val == nil {
			return Null()
		}
		return Obj(val)
	case bool:
		return Bool(val)
	case string:
		return String(val)
	case time.Time:
		return Time(val)
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return Null()
		}
		return Number(f)
	case []Value:
		return Seq(val...)
	case []string:
		return Strings(val...)
	case []any:
		seq := make([]Value, len(val))
		for i, item := range val {
			seq[i] = FromAny(item)
		}
		return Value{kind: KindSequence, seq: seq}
	case []map[string]any:
		seq := make([]Value, len(val))
		for i, item := range val {
			seq[i] = FromAny(item)
		}
		return Value{kind: KindSequence, seq: seq}
	case []float64:
		seq := make([]Value, len(val))
		for i, item := range val {
			seq[i] = Number(item)
		}
		return Value{kind: KindSequence, seq: seq}
	case []int:
		seq := make([]Value, len(val))
		for i, item := range val {
			seq[i] = Int(item)
		}
		return Value{kind: KindSequence, seq: seq}
	case map[string]any:
		m := NewMap()
		for _, key := range slices.Sorted(maps.Keys(val)) {
			m.Set(key, FromAny(val[key]))
		}
		return Obj(m)
	case map[string]string:
		m := NewMap()
		for _, key := range slices.Sorted(maps.Keys(val)) {
			m.Set(key, String(val[key]))
		}
		return Obj(m)
	case map[any]any:
		// Non-string keys are dropped.
		named := make(map[string]any, len(val))
		for key, item := range val {
			if name, ok := key.(string); ok {
				named[name] = item
			}
		}
		return FromAny(named)
	case *orderedmap.OrderedMap[string, any]:
		m := NewMap()
		if val == nil {
			return Null()
		}
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			m.Set(pair.Key, FromAny(pair.Value))
		}
		return Obj(m)
	default:
		return Null()
	}
}

// ContextFromAny converts a native Go value into a Context. Anything that is
// not a mapping yields a nil (absent) context.
func ContextFromAny(v any) *Context {
	m, ok := FromAny(v).AsMap()
	if !ok {
		return nil
	}
	return FromMap(m)
}
