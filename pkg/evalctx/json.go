package evalctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rendis/flagbridge/pkg/schema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MarshalJSON encodes v keeping mapping key order. Times are encoded as
// RFC 3339 strings; non-finite numbers as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindSequence:
		if v.seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.seq)
	case KindMapping:
		return v.m.MarshalJSON()
	}
	return nil, fmt.Errorf("evalctx: cannot marshal %s", v.kind)
}

// UnmarshalJSON decodes any JSON value, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("evalctx: empty JSON value")
	}

	switch trimmed[0] {
	case '{':
		om := orderedmap.New[string, Value]()
		if err := om.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		*v = Value{kind: KindMapping, m: &Map{om: om}}
	case '[':
		var items []Value
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		if items == nil {
			items = []Value{}
		}
		*v = Value{kind: KindSequence, seq: items}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case 'n':
		*v = Null()
	default:
		f, err := json.Number(trimmed).Float64()
		if err != nil {
			return fmt.Errorf("evalctx: invalid number %q: %w", trimmed, err)
		}
		*v = Number(f)
	}
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil || m.om == nil {
		return []byte("{}"), nil
	}
	return m.om.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object into the mapping.
func (m *Map) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	decoded, ok := v.AsMap()
	if !ok {
		return fmt.Errorf("evalctx: expected JSON object, got %s", v.Kind())
	}
	*m = *decoded
	return nil
}

// MarshalJSON encodes the context as a JSON object, or null when absent.
func (c *Context) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	return c.attrs.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object into the context.
func (c *Context) UnmarshalJSON(data []byte) error {
	m := NewMap()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	c.attrs = m
	return nil
}

// DecodeJSON decodes any JSON document into a Value, preserving key order.
// Empty input decodes to Null.
func DecodeJSON(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Null(), nil
	}

	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Null(), schema.NewErrorf(schema.ErrCodeDecode, "invalid JSON: %s", err.Error()).
			WithCause(err)
	}
	return v, nil
}

// ParseJSON decodes a JSON object into a Context. Empty input and a JSON
// null yield a nil context.
func ParseJSON(data []byte) (*Context, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return ContextOf(v)
}

// ContextOf wraps a mapping Value as a Context. Null yields nil; any other
// kind is a DECODE_ERROR.
func ContextOf(v Value) (*Context, error) {
	switch v.Kind() {
	case KindNull:
		return nil, nil
	case KindMapping:
		return FromMap(v.m), nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeDecode,
			"evaluation context must be an object, got %s", v.Kind())
	}
}
