package resolver

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/spf13/cast"
)

// TypedDetails is ResolutionDetails with the value asserted to T.
type TypedDetails[T any] struct {
	ResolutionDetails
	Value T
}

// ResolveTyped resolves flagKey and asserts the value to T. Numbers convert
// between numeric kinds; any other type mismatch returns the default with
// TYPE_MISMATCH. An interface
// T (such as any) accepts every value and is sent with IsAnyType.
func ResolveTyped[T any](ctx context.Context, r Resolver, flagKey string, defaultValue T, c *evalctx.Context) TypedDetails[T] {
	anyType := reflect.TypeFor[T]().Kind() == reflect.Interface

	details := r.Resolve(ctx, ResolveParams{
		FlagKey:      flagKey,
		DefaultValue: defaultValue,
		Context:      c,
		IsAnyType:    anyType,
	})

	if details.Failed() {
		return TypedDetails[T]{ResolutionDetails: details, Value: defaultValue}
	}

	v, ok := details.Value.(T)
	if !ok && !anyType {
		v, ok = coerceNumber[T](details.Value)
	}
	if !ok && !anyType {
		details.ErrorMessage = fmt.Sprintf("flag %q resolved to %T, want %T", flagKey, details.Value, defaultValue)
		details.Value = defaultValue
		details.Reason = ReasonError
		details.ErrorCode = ErrorTypeMismatch
		return TypedDetails[T]{ResolutionDetails: details, Value: defaultValue}
	}
	return TypedDetails[T]{ResolutionDetails: details, Value: v}
}

// coerceNumber converts between numeric kinds when T is numeric. Integer
// targets only accept integral values.
func coerceNumber[T any](v any) (T, bool) {
	var zero T
	if v == nil {
		return zero, false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return zero, false
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return zero, false
	}

	var out any
	switch any(zero).(type) {
	case float64:
		out = f
	case float32:
		out, err = cast.ToFloat32E(v)
	case int, int64, int32:
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return zero, false
		}
		switch any(zero).(type) {
		case int:
			out, err = cast.ToIntE(v)
		case int64:
			out, err = cast.ToInt64E(v)
		default:
			out, err = cast.ToInt32E(v)
		}
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	t, ok := out.(T)
	return t, ok
}
