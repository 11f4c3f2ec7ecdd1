package expressions

import (
	"context"
	"strings"

	"github.com/rendis/flagbridge/pkg/schema"
)

// Engine evaluates expressions against a data map.
// Three implementations: CEL and Expr (record predicates), GoJQ (document selection).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Registry holds one instance of each engine, keyed by name.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates the CEL, Expr and GoJQ engines.
func NewRegistry() (*Registry, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	r := &Registry{engines: make(map[string]Engine, 3)}
	for _, e := range []Engine{celEngine, NewExprEngine(), NewGoJQEngine()} {
		r.engines[e.Name()] = e
	}
	return r, nil
}

// Get returns the engine registered under name (case-insensitive).
func (r *Registry) Get(name string) (Engine, error) {
	e, ok := r.engines[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"unknown expression language %q (want cel, expr or jq)", name)
	}
	return e, nil
}

// Predicate evaluates expression with the given engine and requires a bool result.
func Predicate(ctx context.Context, e Engine, expression string, data map[string]any) (bool, error) {
	out, err := e.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"%s predicate %q returned %T, want bool", e.Name(), expression, out).
			WithDetails(map[string]any{"expression": expression})
	}
	return b, nil
}
