package validation

import (
	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
)

// ContextLinter runs the lint stages over an evaluation context:
// 1. Structural (built-in JSON Schema)
// 2. Semantic (duplicate indexes, empty custom data)
// 3. Caller-supplied JSON Schema, when configured
type ContextLinter struct {
	jsonSchema *JSONSchemaLinter
	extra      []byte
}

// NewContextLinter creates a ContextLinter. extraSchema may be nil.
// A malformed extraSchema is reported here rather than on every Lint call.
func NewContextLinter(extraSchema []byte) (*ContextLinter, error) {
	jsl, err := NewJSONSchemaLinter()
	if err != nil {
		return nil, err
	}
	if len(extraSchema) > 0 {
		if _, err := jsl.getOrCompile(extraSchema); err != nil {
			return nil, schema.NewError(schema.ErrCodeValidation, "invalid context schema").WithCause(err)
		}
	}
	return &ContextLinter{jsonSchema: jsl, extra: extraSchema}, nil
}

// Lint runs every stage and returns the aggregated warnings. Unlike
// definition validation, stages never short-circuit.
func (l *ContextLinter) Lint(c *evalctx.Context) *schema.ValidationResult {
	result := l.jsonSchema.Lint(c)
	if c == nil {
		return result
	}

	result.Merge(lintSemantic(c))

	if len(l.extra) > 0 {
		extra, err := l.jsonSchema.LintWith(c, l.extra)
		if err != nil {
			result.AddWarning("", CodeSchemaViolation, err.Error())
		} else {
			result.Merge(extra)
		}
	}

	return result
}

var (
	_ Linter = (*ContextLinter)(nil)
	_ Linter = (*JSONSchemaLinter)(nil)
)
