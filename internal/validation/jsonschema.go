package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const contextSchemaURL = "https://flagbridge.dev/schemas/context.json"

// contextSchemaJSON describes the record-bearing keys of an evaluation context.
// Other keys are unconstrained.
const contextSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flagbridge.dev/schemas/context.json",
  "type": "object",
  "properties": {
    "conversion": {
      "if": { "type": "array" },
      "then": { "items": { "$ref": "#/$defs/conversion" } },
      "else": { "$ref": "#/$defs/conversion" }
    },
    "customData": {
      "if": { "type": "array" },
      "then": { "items": { "$ref": "#/$defs/customData" } },
      "else": { "$ref": "#/$defs/customData" }
    }
  },
  "$defs": {
    "conversion": {
      "type": "object",
      "required": ["goalId"],
      "properties": {
        "goalId": { "type": "integer" },
        "revenue": { "type": "number" }
      },
      "additionalProperties": false
    },
    "customData": {
      "type": "object",
      "required": ["index"],
      "properties": {
        "index": { "type": "integer" },
        "values": {
          "if": { "type": "array" },
          "then": { "items": { "type": "string" } },
          "else": { "type": "string" }
        }
      },
      "additionalProperties": false
    }
  }
}`

// JSONSchemaLinter checks contexts against the built-in context schema and,
// optionally, caller-supplied schemas. It is safe for concurrent use.
type JSONSchemaLinter struct {
	contextSchema *jsonschema.Schema

	// mu guards the cache of caller-supplied schemas.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaLinter creates a JSONSchemaLinter with the context schema pre-compiled.
func NewJSONSchemaLinter() (*JSONSchemaLinter, error) {
	c := newCompiler()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(contextSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal context schema: %w", err)
	}
	if err := c.AddResource(contextSchemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add context schema resource: %w", err)
	}

	ctxSchema, err := c.Compile(contextSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile context schema: %w", err)
	}

	return &JSONSchemaLinter{
		contextSchema: ctxSchema,
		cache:         make(map[string]*jsonschema.Schema),
	}, nil
}

// Lint validates c against the built-in context schema. An absent context
// yields an empty result.
func (l *JSONSchemaLinter) Lint(c *evalctx.Context) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if c == nil {
		return result
	}

	doc, err := toJSONValue(c)
	if err != nil {
		result.AddWarning("", CodeSchemaViolation, "context is not JSON-encodable: "+err.Error())
		return result
	}

	addViolations(result, l.contextSchema.Validate(doc))
	return result
}

// LintWith validates c against a caller-supplied JSON Schema. The schema is
// compiled once and cached by content. Only a bad schema is an error.
func (l *JSONSchemaLinter) LintWith(c *evalctx.Context, schemaBytes []byte) (*schema.ValidationResult, error) {
	result := &schema.ValidationResult{}
	if len(schemaBytes) == 0 || c == nil {
		return result, nil
	}

	compiled, err := l.getOrCompile(schemaBytes)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "invalid context schema").WithCause(err)
	}

	doc, err := toJSONValue(c)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "failed to serialize context").WithCause(err)
	}

	addViolations(result, compiled.Validate(doc))
	return result, nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (l *JSONSchemaLinter) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	l.mu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock.
	if cached, ok := l.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	url := fmt.Sprintf("flagbridge://context-schema/%d", len(l.cache))

	// Fresh compiler per schema to avoid resource collision.
	c := newCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	l.cache[key] = compiled
	return compiled, nil
}

func newCompiler() *jsonschema.Compiler {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	return c
}

// toJSONValue round-trips a value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

type violation struct {
	path    string
	message string
}

// addViolations records every leaf of a validation error as a warning.
func addViolations(result *schema.ValidationResult, err error) {
	if err == nil {
		return
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.AddWarning("", CodeSchemaViolation, err.Error())
		return
	}
	for _, v := range collectViolations(verr) {
		result.AddWarning(v.path, CodeSchemaViolation, v.message)
	}
}

// collectViolations walks a ValidationError tree and collects leaf errors
// with their instance locations as JSON pointers.
func collectViolations(verr *jsonschema.ValidationError) []violation {
	if len(verr.Causes) == 0 {
		return []violation{{path: pointer(verr.InstanceLocation), message: verr.Error()}}
	}

	var violations []violation
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

func pointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteByte('/')
		tok = strings.ReplaceAll(tok, "~", "~0")
		b.WriteString(strings.ReplaceAll(tok, "/", "~1"))
	}
	return b.String()
}
