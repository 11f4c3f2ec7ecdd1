package evalctx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestValue_ZeroIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, KindNull, v.Kind())
	assert.Nil(t, v.Interface())
}

func TestValue_Accessors(t *testing.T) {
	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	n, ok := Int(3).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	_, ok = String("3").AsNumber()
	assert.False(t, ok, "strings are never numeric")

	s, ok := String("x").AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	seq, ok := Strings("a", "b").AsSequence()
	assert.True(t, ok)
	assert.Len(t, seq, 2)

	_, ok = Strings().AsMap()
	assert.False(t, ok)
}

func TestValue_Items(t *testing.T) {
	assert.Len(t, Strings("a", "b", "c").Items(), 3)
	assert.Equal(t, []Value{Int(1)}, Int(1).Items())
	assert.Equal(t, []Value{Null()}, Null().Items())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "mapping", KindMapping.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
	assert.True(t, KindTime.IsScalar())
	assert.False(t, KindSequence.IsScalar())
}

func TestValue_EqualAndClone(t *testing.T) {
	m := NewMap().Set("a", Int(1)).Set("b", Strings("x"))
	v := Obj(m)
	cp := v.Clone()
	assert.True(t, v.Equal(cp))

	// Mutating the clone leaves the original untouched.
	cm, _ := cp.AsMap()
	cm.Set("c", Bool(true))
	assert.False(t, v.Equal(cp))
	assert.Equal(t, 2, m.Len())

	reordered := Obj(NewMap().Set("b", Strings("x")).Set("a", Int(1)))
	assert.False(t, v.Equal(reordered), "key order is part of equality")
}

func TestMap_SetKeepsPosition(t *testing.T) {
	m := NewMap().Set("a", Int(1)).Set("b", Int(2)).Set("a", Int(3))

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.True(t, v.Equal(Int(3)))
}

func TestMap_NilIsEmpty(t *testing.T) {
	var m *Map
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Empty(t, m.Keys())
	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestContext_Nil(t *testing.T) {
	var c *Context
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Keys())
	assert.Nil(t, c.Interface())
	assert.True(t, c.Value().IsNull())
	assert.Nil(t, c.Clone())

	called := false
	c.Range(func(string, Value) bool { called = true; return true })
	assert.False(t, called)
}

func TestContext_RangeStops(t *testing.T) {
	c := New().Set("a", Int(1)).Set("b", Int(2)).Set("c", Int(3))

	var seen []string
	c.Range(func(key string, _ Value) bool {
		seen = append(seen, key)
		return key != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestFromAny(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"string", "s", String("s")},
		{"int", 7, Number(7)},
		{"int64", int64(-2), Number(-2)},
		{"uint8", uint8(9), Number(9)},
		{"float32", float32(1.5), Number(1.5)},
		{"json.Number", json.Number("12.25"), Number(12.25)},
		{"time", now, Time(now)},
		{"strings", []string{"a", "b"}, Strings("a", "b")},
		{"any slice", []any{1, "x", nil}, Seq(Number(1), String("x"), Null())},
		{"ints", []int{1, 2}, Seq(Int(1), Int(2))},
		{"unsupported", struct{}{}, Null()},
		{"value", Int(4), Int(4)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FromAny(tc.in)
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
		})
	}
}

func TestFromAny_MapsAreSorted(t *testing.T) {
	v := FromAny(map[string]any{"customData": 1, "conversion": 2, "b": 3})

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"b", "conversion", "customData"}, m.Keys())
}

func TestFromAny_AnyKeyedMapDropsNonStringKeys(t *testing.T) {
	v := FromAny(map[any]any{"a": 1, 2: "two"})

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestFromAny_OrderedMapKeepsOrder(t *testing.T) {
	om := orderedmap.New[string, any]()
	om.Set("z", 1)
	om.Set("a", map[string]any{"goalId": 3})

	v := FromAny(om)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a"}, m.Keys())
}

func TestContextFromAny(t *testing.T) {
	assert.Nil(t, ContextFromAny(nil))
	assert.Nil(t, ContextFromAny([]any{1}))

	c := ContextFromAny(map[string]any{"conversion": map[string]any{"goalId": 1}})
	require.NotNil(t, c)
	assert.Equal(t, []string{"conversion"}, c.Keys())
}
