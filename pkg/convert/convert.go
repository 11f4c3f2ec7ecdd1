// Package convert turns an evaluation context into typed analytics records.
//
// Conversion is total: every input is accepted, unknown keys and malformed
// entries are dropped, and mistyped fields fall back to their defaults.
package convert

import (
	"strconv"
	"strings"

	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
)

// builder produces one record from a mapping found under a discriminator key.
type builder func(obj *evalctx.Map, w *walker, path string) schema.Record

// builders maps each recognized discriminator to its record builder.
var builders = map[schema.DataType]builder{
	schema.DataTypeConversion: buildConversion,
	schema.DataTypeCustomData: buildCustomData,
}

// ToRecords converts ctx into records. Record order follows the context's
// key order and, for sequence values, the order within the sequence.
// A nil context yields an empty, non-nil slice.
func ToRecords(ctx *evalctx.Context) schema.Records {
	return walk(ctx, &walker{})
}

// Explain is ToRecords that also reports everything it dropped or defaulted.
func Explain(ctx *evalctx.Context) (schema.Records, []Skipped) {
	w := &walker{explain: true}
	records := walk(ctx, w)
	return records, w.skipped
}

func walk(ctx *evalctx.Context, w *walker) schema.Records {
	records := make(schema.Records, 0)

	ctx.Range(func(key string, value evalctx.Value) bool {
		build, ok := builders[schema.DataType(key)]
		if !ok {
			w.skip(pointer("", key), SkipUnknownKey, value)
			return true
		}

		items, isSeq := value.AsSequence()
		if !isSeq {
			items = []evalctx.Value{value}
		}

		for i, item := range items {
			path := pointer("", key)
			if isSeq {
				path = pointer(path, strconv.Itoa(i))
			}

			obj, ok := item.AsMap()
			if !ok {
				w.skip(path, SkipNotMapping, item)
				continue
			}
			records = append(records, build(obj, w, path))
		}
		return true
	})

	return records
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// pointer appends token to a JSON pointer.
func pointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
