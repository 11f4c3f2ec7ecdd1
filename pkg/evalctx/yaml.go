package evalctx

import (
	"fmt"
	"time"

	"github.com/rendis/flagbridge/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Alias expansion limits, matching yaml.v3's own decoder: once enough
// nodes have been produced, the share coming from aliases must stay below
// allowedAliasRatio.
const (
	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
	aliasRatioRange     = float64(aliasRatioRangeHigh - aliasRatioRangeLow)
)

func allowedAliasRatio(decodeCount int) float64 {
	switch {
	case decodeCount <= aliasRatioRangeLow:
		return 0.99
	case decodeCount >= aliasRatioRangeHigh:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decodeCount-aliasRatioRangeLow)/aliasRatioRange)
	}
}

// yamlDecoder walks a node tree. active holds the anchored nodes on the
// current descent path; an alias into one of them is a cycle.
type yamlDecoder struct {
	active      map[*yaml.Node]bool
	aliasDepth  int
	decodeCount int
	aliasCount  int
}

func newYAMLDecoder() *yamlDecoder {
	return &yamlDecoder{active: make(map[*yaml.Node]bool)}
}

// UnmarshalYAML decodes a YAML node, keeping mapping key order. Merge keys
// (<<) are expanded in place; explicit keys win over merged ones.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	out, err := newYAMLDecoder().decode(node)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (d *yamlDecoder) decode(node *yaml.Node) (Value, error) {
	d.decodeCount++
	if d.aliasDepth > 0 {
		d.aliasCount++
	}
	if d.aliasCount > 100 && d.decodeCount > 1000 &&
		float64(d.aliasCount)/float64(d.decodeCount) > allowedAliasRatio(d.decodeCount) {
		return Null(), fmt.Errorf("evalctx: document contains excessive aliasing")
	}

	switch node.Kind {
	case 0:
		return Null(), nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return d.decode(node.Content[0])
	case yaml.AliasNode:
		return d.decodeAlias(node)
	}

	if node.Anchor != "" {
		d.active[node] = true
		defer delete(d.active, node)
	}

	switch node.Kind {
	case yaml.SequenceNode:
		seq := make([]Value, len(node.Content))
		for i, item := range node.Content {
			v, err := d.decode(item)
			if err != nil {
				return Null(), err
			}
			seq[i] = v
		}
		return Value{kind: KindSequence, seq: seq}, nil
	case yaml.MappingNode:
		m := NewMap()
		if err := d.decodeMapping(m, node); err != nil {
			return Null(), err
		}
		return Obj(m), nil
	case yaml.ScalarNode:
		return decodeYAMLScalar(node)
	}
	return Null(), fmt.Errorf("evalctx: unsupported YAML node kind %d at line %d", node.Kind, node.Line)
}

func (d *yamlDecoder) decodeAlias(node *yaml.Node) (Value, error) {
	if node.Alias == nil {
		return Null(), fmt.Errorf("evalctx: unknown anchor %q at line %d", node.Value, node.Line)
	}
	if d.active[node.Alias] {
		return Null(), fmt.Errorf("evalctx: anchor %q at line %d refers to itself", node.Value, node.Line)
	}
	d.aliasDepth++
	defer func() { d.aliasDepth-- }()
	return d.decode(node.Alias)
}

func (d *yamlDecoder) decodeMapping(m *Map, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		if keyNode.ShortTag() == "!!merge" {
			if err := d.merge(m, valueNode); err != nil {
				return err
			}
			continue
		}

		item, err := d.decode(valueNode)
		if err != nil {
			return err
		}
		m.Set(keyNode.Value, item)
	}
	return nil
}

// merge adds the keys of a merge value that m does not hold yet. Keys set
// earlier, explicit or merged, take precedence.
func (d *yamlDecoder) merge(m *Map, node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		for _, item := range node.Content {
			if err := d.merge(m, item); err != nil {
				return err
			}
		}
		return nil
	}

	src, err := d.decode(node)
	if err != nil {
		return err
	}
	srcMap, ok := src.AsMap()
	if !ok {
		return fmt.Errorf("evalctx: merge value at line %d is not a mapping", node.Line)
	}
	srcMap.Range(func(key string, value Value) bool {
		if _, exists := m.Get(key); !exists {
			m.Set(key, value)
		}
		return true
	})
	return nil
}

func decodeYAMLScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Null(), err
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Null(), err
		}
		return Number(f), nil
	case "!!timestamp":
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return Null(), err
		}
		return Time(t), nil
	}
	return String(node.Value), nil
}

// DecodeYAML decodes any YAML document into a Value, preserving key order
// and expanding anchors and merge keys. Empty input decodes to Null.
func DecodeYAML(data []byte) (Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Null(), schema.NewErrorf(schema.ErrCodeDecode, "invalid YAML: %s", err.Error()).
			WithCause(err)
	}

	var v Value
	if err := v.UnmarshalYAML(&node); err != nil {
		return Null(), schema.NewErrorf(schema.ErrCodeDecode, "invalid YAML: %s", err.Error()).
			WithCause(err)
	}
	return v, nil
}

// ParseYAML decodes a YAML mapping into a Context. Empty input and a YAML
// null yield a nil context.
func ParseYAML(data []byte) (*Context, error) {
	v, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return ContextOf(v)
}
