package expressions

import (
	"context"
	"testing"

	"github.com/rendis/flagbridge/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngines_ImplementEngine(t *testing.T) {
	var _ Engine = (*CELEngine)(nil)
	var _ Engine = (*ExprEngine)(nil)
	var _ Engine = (*GoJQEngine)(nil)
}

func TestRegistry_Get(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	for _, name := range []string{"cel", "expr", "jq", " CEL "} {
		e, err := r.Get(name)
		require.NoError(t, err, name)
		assert.NotNil(t, e)
	}

	_, err = r.Get("lua")
	fbErr := requireCode(t, err, schema.ErrCodeValidation)
	assert.Contains(t, fbErr.Message, "lua")
}

func TestPredicate(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	data := recordScope(schema.Conversion{GoalID: 5})

	for _, lang := range []string{"cel", "expr"} {
		t.Run(lang, func(t *testing.T) {
			e, err := r.Get(lang)
			require.NoError(t, err)

			ok, err := Predicate(context.Background(), e, `record.goalId == 5`, data)
			require.NoError(t, err)
			assert.True(t, ok)

			_, err = Predicate(context.Background(), e, `record.type`, data)
			fbErr := requireCode(t, err, schema.ErrCodeExpression)
			assert.Contains(t, fbErr.Message, "want bool")
		})
	}
}
