// Package datatype builds evaluation context values that the converter turns
// back into records, so callers can describe conversions and custom data
// without knowing the wire field names.
package datatype

import (
	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
)

// ConversionParams describes a conversion. Revenue defaults to 0.0.
type ConversionParams struct {
	GoalID  int
	Revenue float64
}

// MakeConversion returns a mapping {goalId, revenue} to be stored under the
// "conversion" context key.
func MakeConversion(p ConversionParams) evalctx.Value {
	m := evalctx.NewMap().
		Set(schema.ConversionGoalID, evalctx.Int(p.GoalID)).
		Set(schema.ConversionRevenue, evalctx.Number(p.Revenue))
	return evalctx.Obj(m)
}

// MakeCustomData returns a mapping {index, values} to be stored under the
// "customData" context key. Values is always a sequence, possibly empty.
func MakeCustomData(index int, values ...string) evalctx.Value {
	m := evalctx.NewMap().
		Set(schema.CustomDataIndex, evalctx.Int(index)).
		Set(schema.CustomDataValues, evalctx.Strings(values...))
	return evalctx.Obj(m)
}

// WithConversion stores a conversion under the "conversion" key of ctx.
// A nil ctx starts a new context.
func WithConversion(ctx *evalctx.Context, p ConversionParams) *evalctx.Context {
	if ctx == nil {
		ctx = evalctx.New()
	}
	return ctx.Set(string(schema.DataTypeConversion), MakeConversion(p))
}

// WithCustomData stores a custom data value under the "customData" key of ctx.
// A nil ctx starts a new context.
func WithCustomData(ctx *evalctx.Context, index int, values ...string) *evalctx.Context {
	if ctx == nil {
		ctx = evalctx.New()
	}
	return ctx.Set(string(schema.DataTypeCustomData), MakeCustomData(index, values...))
}
