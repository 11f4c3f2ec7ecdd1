package convert

import "github.com/rendis/flagbridge/pkg/evalctx"

// SkipReason says why an item did not make it into a record as-is.
type SkipReason string

const (
	// SkipUnknownKey: a top-level key that selects no builder.
	SkipUnknownKey SkipReason = "unknown_key"
	// SkipNotMapping: an element under a discriminator that is not a mapping.
	SkipNotMapping SkipReason = "not_mapping"
	// SkipNotNumeric: a numeric field holding another kind; the default was used.
	SkipNotNumeric SkipReason = "not_numeric"
	// SkipOutOfRange: a number that cannot be represented; the default was used.
	SkipOutOfRange SkipReason = "out_of_range"
	// SkipNotString: a non-string entry in a values field.
	SkipNotString SkipReason = "not_string"
)

// Skipped is one dropped or defaulted item, located by a JSON pointer into
// the context.
type Skipped struct {
	Path   string       `json:"path"`
	Reason SkipReason   `json:"reason"`
	Kind   evalctx.Kind `json:"kind"`
	Value  string       `json:"value"`
}

// walker carries the optional skip report through a conversion.
type walker struct {
	explain bool
	skipped []Skipped
}

func (w *walker) skip(path string, reason SkipReason, v evalctx.Value) {
	if !w.explain {
		return
	}
	w.skipped = append(w.skipped, Skipped{
		Path:   path,
		Reason: reason,
		Kind:   v.Kind(),
		Value:  v.String(),
	})
}
