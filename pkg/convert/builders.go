package convert

import (
	"math"
	"strconv"

	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
)

func buildConversion(obj *evalctx.Map, w *walker, path string) schema.Record {
	return schema.Conversion{
		GoalID:   intField(obj, schema.ConversionGoalID, w, path),
		Revenue:  floatField(obj, schema.ConversionRevenue, w, path),
		Negative: false,
	}
}

func buildCustomData(obj *evalctx.Map, w *walker, path string) schema.Record {
	return schema.CustomData{
		Index:  intField(obj, schema.CustomDataIndex, w, path),
		Values: stringsField(obj, schema.CustomDataValues, w, path),
	}
}

// intField reads a numeric field truncated toward zero. Missing, null,
// non-numeric, non-finite and out-of-range values yield 0.
func intField(obj *evalctx.Map, field string, w *walker, path string) int {
	n, ok := numberField(obj, field, w, path)
	if !ok {
		return 0
	}
	if math.IsNaN(n) || n >= float64(math.MaxInt) || n < float64(math.MinInt) {
		w.skip(pointer(path, field), SkipOutOfRange, evalctx.Number(n))
		return 0
	}
	return int(n)
}

// floatField reads a numeric field. Missing, null, non-numeric and
// non-finite values yield 0.0.
func floatField(obj *evalctx.Map, field string, w *walker, path string) float64 {
	n, ok := numberField(obj, field, w, path)
	if !ok {
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		w.skip(pointer(path, field), SkipOutOfRange, evalctx.Number(n))
		return 0
	}
	return n
}

func numberField(obj *evalctx.Map, field string, w *walker, path string) (float64, bool) {
	v, ok := obj.Get(field)
	if !ok || v.IsNull() {
		return 0, false
	}
	n, ok := v.AsNumber()
	if !ok {
		w.skip(pointer(path, field), SkipNotNumeric, v)
		return 0, false
	}
	return n, true
}

// stringsField reads a field holding a string or a sequence of strings.
// A single value is treated as a one-element sequence and non-string
// entries are dropped. The result is never nil.
func stringsField(obj *evalctx.Map, field string, w *walker, path string) []string {
	out := []string{}

	v, ok := obj.Get(field)
	if !ok || v.IsNull() {
		return out
	}

	items, isSeq := v.AsSequence()
	if !isSeq {
		items = []evalctx.Value{v}
	}

	base := pointer(path, field)
	for i, item := range items {
		s, ok := item.AsString()
		if !ok {
			at := base
			if isSeq {
				at = pointer(base, strconv.Itoa(i))
			}
			w.skip(at, SkipNotString, item)
			continue
		}
		out = append(out, s)
	}
	return out
}
