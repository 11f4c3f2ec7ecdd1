package resolver

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/rendis/flagbridge/internal/logging"
	"github.com/rendis/flagbridge/pkg/datatype"
	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackedContext() *evalctx.Context {
	c := datatype.WithConversion(nil, datatype.ConversionParams{GoalID: 5, Revenue: 2.5})
	return datatype.WithCustomData(c, 1, "vip")
}

func TestTracking_ForwardsRecords(t *testing.T) {
	rec := &Recorder{}
	tr := NewTracking(constant("blue"), rec, nil)

	d := tr.Resolve(context.Background(), ResolveParams{FlagKey: "banner", Context: trackedContext()})
	assert.Equal(t, "blue", d.Value)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "banner", entries[0].FlagKey)
	assert.Equal(t, schema.Records{
		schema.Conversion{GoalID: 5, Revenue: 2.5},
		schema.CustomData{Index: 1, Values: []string{"vip"}},
	}, entries[0].Records)

	rec.Reset()
	assert.Empty(t, rec.Entries())
}

func TestTracking_SkipsEmpty(t *testing.T) {
	rec := &Recorder{}
	tr := NewTracking(constant(1), rec, nil)

	tr.Resolve(context.Background(), ResolveParams{FlagKey: "a"})
	tr.Resolve(context.Background(), ResolveParams{FlagKey: "b", Context: evalctx.New().Set("targetingKey", evalctx.String("u"))})
	assert.Empty(t, rec.Entries())
}

func TestTracking_SinkErrorDoesNotChangeResult(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug, "json")

	failing := SinkFunc(func(context.Context, string, schema.Records) error {
		return errors.New("backend down")
	})
	inner := ResolverFunc(func(_ context.Context, p ResolveParams) ResolutionDetails {
		return ResolutionDetails{Value: "x", Variant: "v1", Reason: ReasonSplit}
	})

	tr := NewTracking(inner, failing, logger)
	d := tr.Resolve(context.Background(), ResolveParams{FlagKey: "exp", Context: trackedContext()})

	assert.Equal(t, ResolutionDetails{Value: "x", Variant: "v1", Reason: ReasonSplit}, d)
	out := buf.String()
	assert.Contains(t, out, "tracking failed")
	assert.Contains(t, out, "SINK_ERROR")
	assert.Contains(t, out, `"flag_key":"exp"`)
}

func TestTracking_FlagKeyOnDelegateContext(t *testing.T) {
	var seen string
	inner := ResolverFunc(func(ctx context.Context, _ ResolveParams) ResolutionDetails {
		seen = logging.FlagKey(ctx)
		return ResolutionDetails{}
	})

	NewTracking(inner, &Recorder{}, nil).Resolve(context.Background(), ResolveParams{FlagKey: "k"})
	assert.Equal(t, "k", seen)
}

func TestTracking_Concurrent(t *testing.T) {
	rec := &Recorder{}
	tr := NewTracking(constant(true), rec, nil)
	c := trackedContext()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Resolve(context.Background(), ResolveParams{FlagKey: "f", Context: c})
		}()
	}
	wg.Wait()

	assert.Len(t, rec.Entries(), 20)
}

func TestMultiSink(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	failing := SinkFunc(func(context.Context, string, schema.Records) error {
		return errors.New("nope")
	})

	sink := MultiSink(a, failing, b)
	err := sink.Add(context.Background(), "f", schema.Records{schema.Conversion{GoalID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Len(t, a.Entries(), 1)
	assert.Len(t, b.Entries(), 1)

	assert.NoError(t, MultiSink().Add(context.Background(), "f", nil))
}
