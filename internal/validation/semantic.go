package validation

import (
	"fmt"
	"strconv"

	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
)

// lintSemantic reports shapes the JSON schema cannot express: repeated
// custom-data indexes and custom data that will carry no values.
func lintSemantic(c *evalctx.Context) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	v, ok := c.Get(string(schema.DataTypeCustomData))
	if !ok {
		return result
	}

	base := "/" + string(schema.DataTypeCustomData)
	items, isSeq := v.AsSequence()
	if !isSeq {
		items = []evalctx.Value{v}
	}

	seen := make(map[float64]string, len(items))
	for i, item := range items {
		path := base
		if isSeq {
			path = base + "/" + strconv.Itoa(i)
		}

		obj, ok := item.AsMap()
		if !ok {
			continue
		}

		if idx, ok := obj.Get(schema.CustomDataIndex); ok {
			if n, ok := idx.AsNumber(); ok {
				if first, dup := seen[n]; dup {
					result.AddWarning(path+"/"+schema.CustomDataIndex, CodeDuplicateIndex,
						fmt.Sprintf("custom data index %v already set at %s", n, first))
				} else {
					seen[n] = path
				}
			}
		}

		if !hasStringValue(obj) {
			result.AddWarning(path, CodeEmptyValues, "custom data has no string values")
		}
	}

	return result
}

func hasStringValue(obj *evalctx.Map) bool {
	v, ok := obj.Get(schema.CustomDataValues)
	if !ok {
		return false
	}
	if _, ok := v.AsString(); ok {
		return true
	}
	seq, _ := v.AsSequence()
	for _, item := range seq {
		if _, ok := item.AsString(); ok {
			return true
		}
	}
	return false
}
