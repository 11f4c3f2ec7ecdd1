package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/rendis/flagbridge/internal/expressions"
	"github.com/rendis/flagbridge/pkg/schema"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Rule returns Value when its CEL condition, evaluated over the context
// attributes as `context`, is true.
type Rule struct {
	When    string `json:"when" yaml:"when"`
	Value   any    `json:"value" yaml:"value"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
}

// Flag is a statically configured flag.
type Flag struct {
	Value    any            `json:"value" yaml:"value"`
	Variant  string         `json:"variant,omitempty" yaml:"variant,omitempty"`
	Disabled bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Rules    []Rule         `json:"rules,omitempty" yaml:"rules,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Static resolves flags from an in-memory table. Rules are checked in order;
// the first match wins, otherwise the flag's own value is returned.
type Static struct {
	flags map[string]Flag
	cel   *expressions.CELEngine
}

// NewStatic creates a Static resolver over flags.
func NewStatic(flags map[string]Flag) (*Static, error) {
	celEngine, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	if flags == nil {
		flags = map[string]Flag{}
	}
	return &Static{flags: flags, cel: celEngine}, nil
}

// LoadFlags decodes a JSON or YAML flag table keyed by flag key.
func LoadFlags(data []byte) (map[string]Flag, error) {
	var flags map[string]Flag
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "invalid flag table: %s", err.Error()).
			WithCause(err)
	}
	if flags == nil {
		flags = map[string]Flag{}
	}
	for key, flag := range flags {
		flag.Value = normalizeNumbers(flag.Value)
		for i := range flag.Rules {
			flag.Rules[i].Value = normalizeNumbers(flag.Rules[i].Value)
		}
		if flag.Metadata != nil {
			flag.Metadata = normalizeNumbers(flag.Metadata).(map[string]any)
		}
		flags[key] = flag
	}
	return flags, nil
}

// normalizeNumbers turns every integer YAML decoded into float64, the type
// encoding/json gives JSON numbers, so flag values compare the same however
// the table was written.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case int, int64, uint64:
		return cast.ToFloat64(val)
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}

// Keys returns the configured flag keys, sorted.
func (s *Static) Keys() []string {
	keys := make([]string, 0, len(s.flags))
	for k := range s.flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Static) Resolve(ctx context.Context, params ResolveParams) ResolutionDetails {
	flag, ok := s.flags[params.FlagKey]
	if !ok {
		return ResolutionDetails{
			Value:        params.DefaultValue,
			Reason:       ReasonError,
			ErrorCode:    ErrorFlagNotFound,
			ErrorMessage: fmt.Sprintf("flag %q not found", params.FlagKey),
		}
	}
	if flag.Disabled {
		return ResolutionDetails{
			Value:        params.DefaultValue,
			Reason:       ReasonDisabled,
			FlagMetadata: flag.Metadata,
		}
	}

	if len(flag.Rules) > 0 {
		data := map[string]any{}
		if attrs := params.Context.Interface(); attrs != nil {
			data["context"] = attrs
		}
		for i, rule := range flag.Rules {
			matched, err := expressions.Predicate(ctx, s.cel, rule.When, data)
			if err != nil {
				return ResolutionDetails{
					Value:        params.DefaultValue,
					Reason:       ReasonError,
					ErrorCode:    ErrorGeneral,
					ErrorMessage: fmt.Sprintf("rule %d: %s", i, err.Error()),
					FlagMetadata: flag.Metadata,
				}
			}
			if matched {
				return ResolutionDetails{
					Value:        rule.Value,
					Variant:      rule.Variant,
					Reason:       ReasonTargetingMatch,
					FlagMetadata: flag.Metadata,
				}
			}
		}
	}

	return ResolutionDetails{
		Value:        flag.Value,
		Variant:      flag.Variant,
		Reason:       ReasonStatic,
		FlagMetadata: flag.Metadata,
	}
}

var _ Resolver = (*Static)(nil)
