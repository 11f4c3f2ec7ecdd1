package evalctx

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rendis/flagbridge/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_PreservesKeyOrder(t *testing.T) {
	c, err := ParseJSON([]byte(`{
		"customData": {"values": ["a"], "index": 1},
		"targetingKey": "user-1",
		"conversion": [{"goalId": 2}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"customData", "targetingKey", "conversion"}, c.Keys())

	cd, ok := c.Get("customData")
	require.True(t, ok)
	m, ok := cd.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"values", "index"}, m.Keys())
}

func TestParseJSON_Kinds(t *testing.T) {
	c, err := ParseJSON([]byte(`{"n": 1.5, "s": "x", "b": false, "z": null, "a": [], "o": {}}`))
	require.NoError(t, err)

	kinds := map[string]Kind{}
	c.Range(func(key string, value Value) bool {
		kinds[key] = value.Kind()
		return true
	})
	assert.Equal(t, map[string]Kind{
		"n": KindNumber,
		"s": KindString,
		"b": KindBool,
		"z": KindNull,
		"a": KindSequence,
		"o": KindMapping,
	}, kinds)
}

func TestParseJSON_Absent(t *testing.T) {
	for _, in := range []string{"", "   ", "null"} {
		c, err := ParseJSON([]byte(in))
		require.NoError(t, err, "input %q", in)
		assert.Nil(t, c, "input %q", in)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"syntax", `{"conversion": `},
		{"array", `[{"goalId": 1}]`},
		{"scalar", `42`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tc.in))
			require.Error(t, err)

			var fbErr *schema.Error
			require.True(t, errors.As(err, &fbErr))
			assert.Equal(t, schema.ErrCodeDecode, fbErr.Code)
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	v := Obj(NewMap().
		Set("b", Int(1)).
		Set("a", Seq(String("x"), Null(), Bool(true))).
		Set("t", Time(ts)).
		Set("nan", Number(math.NaN())))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":1,"a":["x",null,true],"t":"2024-01-02T03:04:05Z","nan":null}`, string(data))
}

func TestValue_JSONRoundTripKeepsOrder(t *testing.T) {
	in := `{"z":{"y":1,"x":[{"b":true,"a":"s"}]},"a":null}`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(in), &v))
	out, err := json.Marshal(v)
	require.NoError(t, err)

	var again Value
	require.NoError(t, json.Unmarshal(out, &again))
	assert.True(t, v.Equal(again))

	m, _ := again.AsMap()
	assert.Equal(t, []string{"z", "a"}, m.Keys())
}

func TestContext_JSON(t *testing.T) {
	c := New().Set("conversion", Int(1))

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"conversion":1}`, string(data))

	var decoded Context
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":2}`), &decoded))
	assert.Equal(t, []string{"b", "a"}, decoded.Keys())

	require.Error(t, json.Unmarshal([]byte(`[1]`), &decoded))
}

func TestDecodeJSON_AnyDocument(t *testing.T) {
	v, err := DecodeJSON([]byte(`[{"b": 1, "a": 2}, "x"]`))
	require.NoError(t, err)
	items, ok := v.AsSequence()
	require.True(t, ok)
	require.Len(t, items, 2)
	m, _ := items[0].AsMap()
	assert.Equal(t, []string{"b", "a"}, m.Keys())

	v, err = DecodeJSON(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = ContextOf(v)
	require.NoError(t, err)
	_, err = ContextOf(String("x"))
	require.Error(t, err)
}
