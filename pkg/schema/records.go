package schema

import (
	"encoding/json"
	"fmt"
)

// Record is a typed analytics record produced from an evaluation context.
type Record interface {
	// Type returns the discriminator the record was built from.
	Type() DataType
	// Fields returns the record as a flat map keyed by wire field names,
	// plus a "type" entry. Used as the scope for record predicates.
	Fields() map[string]any
}

// Conversion is a goal completion with an associated revenue amount.
type Conversion struct {
	GoalID   int     `json:"goalId"`
	Revenue  float64 `json:"revenue"`
	Negative bool    `json:"negative"`
}

// CustomData is an indexed tag carrying one or more string values.
type CustomData struct {
	Index  int      `json:"index"`
	Values []string `json:"values"`
}

func (Conversion) Type() DataType { return DataTypeConversion }

func (CustomData) Type() DataType { return DataTypeCustomData }

func (c Conversion) Fields() map[string]any {
	return map[string]any{
		"type":            string(DataTypeConversion),
		ConversionGoalID:  int64(c.GoalID),
		ConversionRevenue: c.Revenue,
		"negative":        c.Negative,
	}
}

func (c CustomData) Fields() map[string]any {
	values := c.Values
	if values == nil {
		values = []string{}
	}
	return map[string]any{
		"type":           string(DataTypeCustomData),
		CustomDataIndex:  int64(c.Index),
		CustomDataValues: values,
	}
}

// MarshalJSON adds the "type" discriminator.
func (c Conversion) MarshalJSON() ([]byte, error) {
	type alias Conversion
	return json.Marshal(struct {
		Type DataType `json:"type"`
		alias
	}{DataTypeConversion, alias(c)})
}

// MarshalJSON adds the "type" discriminator and encodes nil values as [].
func (c CustomData) MarshalJSON() ([]byte, error) {
	type alias CustomData
	if c.Values == nil {
		c.Values = []string{}
	}
	return json.Marshal(struct {
		Type DataType `json:"type"`
		alias
	}{DataTypeCustomData, alias(c)})
}

// Records is an ordered, JSON round-trippable list of records.
type Records []Record

// UnmarshalJSON decodes records using their "type" discriminator.
func (rs *Records) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Records, 0, len(raw))
	for i, item := range raw {
		var head struct {
			Type DataType `json:"type"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		switch head.Type {
		case DataTypeConversion:
			var c Conversion
			if err := json.Unmarshal(item, &c); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			out = append(out, c)
		case DataTypeCustomData:
			var c CustomData
			if err := json.Unmarshal(item, &c); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			if c.Values == nil {
				c.Values = []string{}
			}
			out = append(out, c)
		default:
			return fmt.Errorf("record %d: unknown type %q", i, head.Type)
		}
	}

	*rs = out
	return nil
}

// Batch is the envelope emitted for one converted context.
type Batch struct {
	ID      string  `json:"id"`
	Source  string  `json:"source,omitempty"`
	Records Records `json:"records"`
}
