package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rendis/flagbridge/internal/validation"
	"github.com/rendis/flagbridge/pkg/convert"
	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
	"customData": [{"index": 1, "values": ["vip"]}, {"index": 2, "values": "beta"}],
	"targetingKey": "user-1",
	"conversion": [{"goalId": 10, "revenue": 99.5}, {"goalId": 11}]
}`

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	p, err := New(opts, nil)
	require.NoError(t, err)
	return p
}

func requireCode(t *testing.T, err error, code string) *schema.Error {
	t.Helper()
	require.Error(t, err)
	var fbErr *schema.Error
	require.True(t, errors.As(err, &fbErr), "want *schema.Error, got %T", err)
	assert.Equal(t, code, fbErr.Code)
	return fbErr
}

func TestRun_JSON(t *testing.T) {
	p := newPipeline(t, Options{})

	res, err := p.Run(context.Background(), Input{Source: "ctx.json", Data: []byte(sampleJSON)})
	require.NoError(t, err)

	_, err = uuid.Parse(res.Batch.ID)
	assert.NoError(t, err)
	assert.Equal(t, "ctx.json", res.Batch.Source)

	want := schema.Records{
		schema.CustomData{Index: 1, Values: []string{"vip"}},
		schema.CustomData{Index: 2, Values: []string{"beta"}},
		schema.Conversion{GoalID: 10, Revenue: 99.5},
		schema.Conversion{GoalID: 11},
	}
	if diff := cmp.Diff(want, res.Batch.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "/targetingKey", res.Skipped[0].Path)
	assert.Equal(t, convert.SkipUnknownKey, res.Skipped[0].Reason)
	assert.Nil(t, res.Lint)
	assert.Zero(t, res.Filtered)
}

func TestRun_YAML(t *testing.T) {
	p := newPipeline(t, Options{})

	res, err := p.Run(context.Background(), Input{Source: "stdin", Data: []byte(`
conversion:
  goalId: 3
  revenue: 1.25
customData:
  index: 4
  values: [a, 5, b]
`)})
	require.NoError(t, err)

	want := schema.Records{
		schema.Conversion{GoalID: 3, Revenue: 1.25},
		schema.CustomData{Index: 4, Values: []string{"a", "b"}},
	}
	if diff := cmp.Diff(want, res.Batch.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "/customData/values/1", res.Skipped[0].Path)
}

func TestRun_UniqueBatchIDs(t *testing.T) {
	p := newPipeline(t, Options{})

	a, err := p.Run(context.Background(), Input{Data: []byte(`{}`)})
	require.NoError(t, err)
	b, err := p.Run(context.Background(), Input{Data: []byte(`{}`)})
	require.NoError(t, err)
	assert.NotEqual(t, a.Batch.ID, b.Batch.ID)
}

func TestRun_AbsentContext(t *testing.T) {
	p := newPipeline(t, Options{})

	for _, data := range []string{"", "null", "~"} {
		res, err := p.Run(context.Background(), Input{Data: []byte(data)})
		require.NoError(t, err, data)
		assert.NotNil(t, res.Batch.Records, data)
		assert.Empty(t, res.Batch.Records, data)
	}
}

func TestRun_DecodeErrors(t *testing.T) {
	p := newPipeline(t, Options{})

	_, err := p.Run(context.Background(), Input{Source: "bad.json", Data: []byte(`{"conversion":`)})
	fbErr := requireCode(t, err, schema.ErrCodeDecode)
	assert.Equal(t, "bad.json", fbErr.Source)

	_, err = p.Run(context.Background(), Input{Source: "list.json", Data: []byte(`[1, 2]`)})
	requireCode(t, err, schema.ErrCodeDecode)
}

func TestRun_Select(t *testing.T) {
	p := newPipeline(t, Options{Select: ".request.context"})

	res, err := p.Run(context.Background(), Input{Data: []byte(`{
		"request": {"context": {"conversion": {"goalId": 1}, "customData": {"index": 2, "values": "x"}}}
	}`)})
	require.NoError(t, err)

	want := schema.Records{
		schema.Conversion{GoalID: 1},
		schema.CustomData{Index: 2, Values: []string{"x"}},
	}
	if diff := cmp.Diff(want, res.Batch.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SelectReordersKeys(t *testing.T) {
	p := newPipeline(t, Options{Select: "."})

	res, err := p.Run(context.Background(), Input{Data: []byte(`{
		"customData": {"index": 1, "values": "x"},
		"conversion": {"goalId": 1}
	}`)})
	require.NoError(t, err)

	require.Len(t, res.Batch.Records, 2)
	assert.Equal(t, schema.DataTypeConversion, res.Batch.Records[0].Type())
	assert.Equal(t, schema.DataTypeCustomData, res.Batch.Records[1].Type())
}

func TestRun_SelectResults(t *testing.T) {
	ctx := context.Background()
	data := []byte(`{"a": [1, 2], "b": {"conversion": {"goalId": 1}}}`)

	res, err := newPipeline(t, Options{Select: ".missing"}).Run(ctx, Input{Data: data})
	require.NoError(t, err)
	assert.Empty(t, res.Batch.Records)

	_, err = newPipeline(t, Options{Select: ".a"}).Run(ctx, Input{Data: data})
	fbErr := requireCode(t, err, schema.ErrCodeExpression)
	assert.Contains(t, fbErr.Message, "want object")

	_, err = newPipeline(t, Options{Select: ".a[]"}).Run(ctx, Input{Data: data})
	fbErr = requireCode(t, err, schema.ErrCodeExpression)
	assert.Contains(t, fbErr.Message, "2 results")

	_, err = newPipeline(t, Options{Select: ".["}).Run(ctx, Input{Source: "x", Data: data})
	fbErr = requireCode(t, err, schema.ErrCodeExpression)
	assert.Equal(t, "x", fbErr.Source)
}

func TestRun_Where(t *testing.T) {
	tests := []struct {
		lang  string
		where string
	}{
		{"", `record.type == "conversion" && record.goalId == 10`},
		{"cel", `record.type == "conversion" && record.goalId == 10`},
		{"expr", `record.type == "conversion" && record.goalId == 10`},
	}

	for _, tc := range tests {
		t.Run(tc.lang, func(t *testing.T) {
			p := newPipeline(t, Options{Where: tc.where, FilterLang: tc.lang})

			res, err := p.Run(context.Background(), Input{Data: []byte(sampleJSON)})
			require.NoError(t, err)

			require.Len(t, res.Batch.Records, 1)
			assert.Equal(t, schema.Conversion{GoalID: 10, Revenue: 99.5}, res.Batch.Records[0])
			assert.Equal(t, 3, res.Filtered)
		})
	}
}

func TestRun_WhereErrors(t *testing.T) {
	p := newPipeline(t, Options{Where: `record.type`})
	_, err := p.Run(context.Background(), Input{Source: "s", Data: []byte(sampleJSON)})
	fbErr := requireCode(t, err, schema.ErrCodeExpression)
	assert.Equal(t, "s", fbErr.Source)

	_, err = New(Options{Where: `true`, FilterLang: "jq"}, nil)
	requireCode(t, err, schema.ErrCodeValidation)

	_, err = New(Options{Where: `true`, FilterLang: "lua"}, nil)
	requireCode(t, err, schema.ErrCodeValidation)
}

func TestRun_Lint(t *testing.T) {
	p := newPipeline(t, Options{Lint: true})

	res, err := p.Run(context.Background(), Input{Data: []byte(`{"conversion": {"goalId": "5"}}`)})
	require.NoError(t, err)

	require.NotNil(t, res.Lint)
	require.NotEmpty(t, res.Lint.Warnings)
	assert.Equal(t, validation.CodeSchemaViolation, res.Lint.Warnings[0].Code)
	assert.Equal(t, schema.Records{schema.Conversion{}}, res.Batch.Records)
}

func TestNew_BadLintSchema(t *testing.T) {
	_, err := New(Options{Lint: true, Schema: []byte(`{`)}, nil)
	require.Error(t, err)
}

func TestRunContext(t *testing.T) {
	p := newPipeline(t, Options{})
	c := evalctx.New().
		Set("conversion", evalctx.Obj(evalctx.NewMap().Set("goalId", evalctx.Int(2))))

	res, err := p.RunContext(context.Background(), "tool", c)
	require.NoError(t, err)
	assert.Equal(t, schema.Records{schema.Conversion{GoalID: 2}}, res.Batch.Records)

	res, err = p.RunContext(context.Background(), "tool", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Batch.Records)
}

func TestRunAll_PreservesOrder(t *testing.T) {
	p := newPipeline(t, Options{Workers: 4})

	inputs := make([]Input, 25)
	for i := range inputs {
		inputs[i] = Input{
			Source: fmt.Sprintf("in-%d.json", i),
			Data:   []byte(fmt.Sprintf(`{"conversion": {"goalId": %d}}`, i)),
		}
	}

	results, err := p.RunAll(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	for i, res := range results {
		assert.Equal(t, inputs[i].Source, res.Batch.Source)
		assert.Equal(t, schema.Records{schema.Conversion{GoalID: i}}, res.Batch.Records)
	}
}

func TestRunAll_FirstError(t *testing.T) {
	p := newPipeline(t, Options{Workers: 2})

	inputs := []Input{
		{Source: "ok.json", Data: []byte(`{}`)},
		{Source: "bad.json", Data: []byte(`{`)},
		{Source: "ok2.json", Data: []byte(`{}`)},
	}

	results, err := p.RunAll(context.Background(), inputs)
	assert.Nil(t, results)
	fbErr := requireCode(t, err, schema.ErrCodeDecode)
	assert.Equal(t, "bad.json", fbErr.Source)
}

func TestRunAll_Cancelled(t *testing.T) {
	p := newPipeline(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RunAll(ctx, []Input{{Data: []byte(`{}`)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAll_Empty(t *testing.T) {
	p := newPipeline(t, Options{})

	results, err := p.RunAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
