package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
)

// Format selects the input decoder.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied name to a Format. Empty means auto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", schema.NewErrorf(schema.ErrCodeValidation,
			"unknown input format %q (want auto, json or yaml)", s)
	}
}

// detect resolves FormatAuto from the source extension, then from the first
// non-blank byte.
func detect(f Format, source string, data []byte) Format {
	if f != FormatAuto && f != "" {
		return f
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

func decode(f Format, data []byte) (evalctx.Value, error) {
	if f == FormatJSON {
		return evalctx.DecodeJSON(data)
	}
	return evalctx.DecodeYAML(data)
}

// DecodeContext decodes in without selection or conversion. The document
// must be an object or empty.
func DecodeContext(in Input) (*evalctx.Context, error) {
	doc, err := decode(detect(in.Format, in.Source, in.Data), in.Data)
	if err != nil {
		return nil, withSource(err, in.Source)
	}
	c, err := evalctx.ContextOf(doc)
	if err != nil {
		return nil, withSource(err, in.Source)
	}
	return c, nil
}
