package validation

import (
	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
)

// Linter checks an evaluation context for shapes the converter would
// silently drop or coerce. Findings are warnings; conversion never fails.
type Linter interface {
	Lint(c *evalctx.Context) *schema.ValidationResult
}

// Warning codes.
const (
	CodeSchemaViolation = "SCHEMA_VIOLATION"
	CodeDuplicateIndex  = "DUPLICATE_INDEX"
	CodeEmptyValues     = "EMPTY_VALUES"
)
