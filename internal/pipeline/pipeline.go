// Package pipeline runs evaluation-context documents through decoding,
// optional jq selection, linting, conversion and record filtering.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"github.com/rendis/flagbridge/internal/expressions"
	"github.com/rendis/flagbridge/internal/logging"
	"github.com/rendis/flagbridge/internal/validation"
	"github.com/rendis/flagbridge/pkg/convert"
	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// Input is one document to convert.
type Input struct {
	Source string
	Data   []byte
	Format Format
}

// Options configures a Pipeline. The zero value converts without selection,
// filtering or linting.
type Options struct {
	// Select is a jq expression that extracts the context from the document.
	Select string
	// Where is a predicate over each record; records it rejects are dropped.
	Where string
	// FilterLang is the predicate language: "cel" (default) or "expr".
	FilterLang string
	// Lint enables the JSON-Schema context lint.
	Lint bool
	// Schema is an extra JSON Schema applied when Lint is set.
	Schema []byte
	// Workers bounds RunAll concurrency. Zero means GOMAXPROCS.
	Workers int
}

// Result is the outcome of one Run.
type Result struct {
	Batch    schema.Batch             `json:"batch"`
	Skipped  []convert.Skipped        `json:"skipped,omitempty"`
	Filtered int                      `json:"filtered,omitempty"`
	Lint     *schema.ValidationResult `json:"lint,omitempty"`
}

// Pipeline is safe for concurrent use; engines cache compiled expressions.
type Pipeline struct {
	opts   Options
	jq     *expressions.GoJQEngine
	where  expressions.Engine
	linter validation.Linter
	logger *slog.Logger
}

// New validates opts and prepares the engines and linter they need.
func New(opts Options, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	p := &Pipeline{opts: opts, jq: expressions.NewGoJQEngine(), logger: logger}

	if opts.Where != "" {
		lang := opts.FilterLang
		if lang == "" {
			lang = "cel"
		}
		if lang == "jq" {
			return nil, schema.NewError(schema.ErrCodeValidation, "jq cannot be used as a record predicate")
		}
		registry, err := expressions.NewRegistry()
		if err != nil {
			return nil, err
		}
		if p.where, err = registry.Get(lang); err != nil {
			return nil, err
		}
	}

	if opts.Lint {
		linter, err := validation.NewContextLinter(opts.Schema)
		if err != nil {
			return nil, err
		}
		p.linter = linter
	}

	return p, nil
}

// Run decodes and converts a single input.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	doc, err := decode(detect(in.Format, in.Source, in.Data), in.Data)
	if err != nil {
		return nil, withSource(err, in.Source)
	}
	return p.RunValue(ctx, in.Source, doc)
}

// RunContext converts an already-built context. Select, when configured,
// runs against the context itself.
func (p *Pipeline) RunContext(ctx context.Context, source string, c *evalctx.Context) (*Result, error) {
	return p.RunValue(ctx, source, c.Value())
}

// RunValue runs every stage after decoding on doc.
func (p *Pipeline) RunValue(ctx context.Context, source string, doc evalctx.Value) (*Result, error) {
	batchID := uuid.New().String()
	ctx = logging.WithIDs(ctx, batchID, source)

	evalCtx, err := p.selectContext(ctx, doc)
	if err != nil {
		return nil, withSource(err, source)
	}

	result := &Result{Batch: schema.Batch{ID: batchID, Source: source}}

	if p.linter != nil {
		result.Lint = p.linter.Lint(evalCtx)
		for _, w := range result.Lint.Warnings {
			p.logger.DebugContext(ctx, "lint warning", "path", w.Path, "code", w.Code, "message", w.Message)
		}
	}

	records, skipped := convert.Explain(evalCtx)
	result.Skipped = skipped
	for _, s := range skipped {
		p.logger.DebugContext(ctx, "skipped context entry", "path", s.Path, "reason", s.Reason)
	}

	if p.where != nil {
		kept := records[:0:0]
		for _, r := range records {
			ok, err := expressions.Predicate(ctx, p.where, p.opts.Where, map[string]any{"record": r.Fields()})
			if err != nil {
				return nil, withSource(err, source)
			}
			if ok {
				kept = append(kept, r)
			}
		}
		result.Filtered = len(records) - len(kept)
		records = kept
	}

	result.Batch.Records = records
	p.logger.InfoContext(ctx, "context converted",
		"records", len(records), "skipped", len(skipped), "filtered", result.Filtered)
	return result, nil
}

// RunAll runs inputs concurrently and returns results in input order.
// The first error cancels the remaining inputs.
func (p *Pipeline) RunAll(ctx context.Context, inputs []Input) ([]*Result, error) {
	results := make([]*Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	workers := p.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.Run(gctx, in)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// selectContext applies the jq select expression, if any, and requires the
// outcome to be an object or null.
func (p *Pipeline) selectContext(ctx context.Context, doc evalctx.Value) (*evalctx.Context, error) {
	if p.opts.Select == "" {
		return evalctx.ContextOf(doc)
	}

	out, err := p.jq.EvaluateAll(ctx, p.opts.Select, doc.Interface())
	if err != nil {
		return nil, err
	}
	if len(out) > 1 {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"select %q produced %d results, want one object", p.opts.Select, len(out))
	}

	var selected evalctx.Value
	if len(out) == 1 {
		selected = evalctx.FromAny(out[0])
	}
	switch selected.Kind() {
	case evalctx.KindNull:
		return nil, nil
	case evalctx.KindMapping:
		return evalctx.ContextOf(selected)
	default:
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"select %q produced %s, want object", p.opts.Select, selected.Kind())
	}
}

func withSource(err error, source string) error {
	var fbErr *schema.Error
	if source != "" && errors.As(err, &fbErr) && fbErr.Source == "" {
		fbErr.WithSource(source)
	}
	return err
}
