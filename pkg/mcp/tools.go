package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rendis/flagbridge/internal/pipeline"
	"github.com/rendis/flagbridge/pkg/convert"
	"github.com/rendis/flagbridge/pkg/datatype"
	"github.com/rendis/flagbridge/pkg/evalctx"
	"github.com/rendis/flagbridge/pkg/resolver"
	"github.com/rendis/flagbridge/pkg/schema"
)

type convertResult struct {
	schema.Batch
	Filtered int                      `json:"filtered,omitempty"`
	Lint     *schema.ValidationResult `json:"lint,omitempty"`
}

type inspectResult struct {
	Records  schema.Records           `json:"records"`
	Skipped  []convert.Skipped        `json:"skipped"`
	Warnings []schema.ValidationIssue `json:"warnings"`
}

type resolveResult struct {
	resolver.ResolutionDetails
	Tracked schema.Records `json:"tracked"`
}

// handleConvert converts a context into a batch of records.
func (s *FlagbridgeServer) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := pipeline.Options{
		Select:     req.GetString("select", ""),
		Where:      req.GetString("where", ""),
		FilterLang: req.GetString("filter_lang", s.deps.FilterLang),
		Lint:       s.deps.Lint,
	}

	res, errResult := s.run(ctx, req, "flagbridge.convert", opts)
	if errResult != nil {
		return errResult, nil
	}
	return marshalResult(convertResult{Batch: res.Batch, Filtered: res.Filtered, Lint: res.Lint})
}

// handleInspect reports records, skipped entries and lint warnings.
func (s *FlagbridgeServer) handleInspect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := pipeline.Options{
		Select: req.GetString("select", ""),
		Lint:   true,
	}

	res, errResult := s.run(ctx, req, "flagbridge.inspect", opts)
	if errResult != nil {
		return errResult, nil
	}

	out := inspectResult{
		Records:  res.Batch.Records,
		Skipped:  res.Skipped,
		Warnings: []schema.ValidationIssue{},
	}
	if out.Skipped == nil {
		out.Skipped = []convert.Skipped{}
	}
	if res.Lint != nil && len(res.Lint.Warnings) > 0 {
		out.Warnings = res.Lint.Warnings
	}
	return marshalResult(out)
}

// handleMakeConversion builds a {"conversion": {...}} context fragment.
func (s *FlagbridgeServer) handleMakeConversion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goalID, err := requireInt(req, "goal_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	revenue := mcp.ParseFloat64(req, "revenue", 0)

	return marshalResult(datatype.WithConversion(nil, datatype.ConversionParams{GoalID: goalID, Revenue: revenue}))
}

// handleMakeCustomData builds a {"customData": {...}} context fragment.
func (s *FlagbridgeServer) handleMakeCustomData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := requireInt(req, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var values []string
	switch raw := mcp.ParseArgument(req, "values", nil).(type) {
	case nil:
	case []any:
		for i, item := range raw {
			str, ok := item.(string)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("values[%d] must be a string, got %T", i, item)), nil
			}
			values = append(values, str)
		}
	case string:
		values = []string{raw}
	default:
		return mcp.NewToolResultError("values must be an array of strings"), nil
	}

	return marshalResult(datatype.WithCustomData(nil, index, values...))
}

// handleResolve resolves a configured flag and reports the records the
// context carried.
func (s *FlagbridgeServer) handleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flagKey, err := req.RequireString("flag_key")
	if err != nil {
		return mcp.NewToolResultError("flag_key is required"), nil
	}

	var defaultValue any
	if raw := req.GetString("default_json", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &defaultValue); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("default_json is not valid JSON: %v", err)), nil
		}
	}

	evalCtx, errResult := contextArg(req)
	if errResult != nil {
		return errResult, nil
	}

	rec := &resolver.Recorder{}
	tracking := resolver.NewTracking(s.resolver, resolver.MultiSink(rec, s.notifier, s.hub), s.logger)
	details := tracking.Resolve(ctx, resolver.ResolveParams{
		FlagKey:      flagKey,
		DefaultValue: defaultValue,
		Context:      evalCtx,
		IsAnyType:    true,
	})

	out := resolveResult{ResolutionDetails: details, Tracked: schema.Records{}}
	if entries := rec.Entries(); len(entries) > 0 {
		out.Tracked = entries[0].Records
	}
	return marshalResult(out)
}

// run feeds the context arguments of req through a pipeline built from opts.
func (s *FlagbridgeServer) run(ctx context.Context, req mcp.CallToolRequest, source string, opts pipeline.Options) (*pipeline.Result, *mcp.CallToolResult) {
	p, err := s.pipelineFor(opts)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	doc, obj, errResult := contextInputs(req)
	if errResult != nil {
		return nil, errResult
	}

	var res *pipeline.Result
	switch {
	case doc != "":
		res, err = p.Run(ctx, pipeline.Input{Source: source, Data: []byte(doc), Format: pipeline.FormatJSON})
	case obj != nil:
		res, err = p.RunContext(ctx, source, evalctx.ContextFromAny(obj))
	default:
		return nil, mcp.NewToolResultError("context or context_json is required")
	}
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return res, nil
}

// contextArg decodes the context or context_json argument without a pipeline.
func contextArg(req mcp.CallToolRequest) (*evalctx.Context, *mcp.CallToolResult) {
	doc, obj, errResult := contextInputs(req)
	if errResult != nil {
		return nil, errResult
	}

	switch {
	case doc != "":
		c, err := evalctx.ParseJSON([]byte(doc))
		if err != nil {
			return nil, mcp.NewToolResultError(err.Error())
		}
		return c, nil
	default:
		return evalctx.ContextFromAny(obj), nil
	}
}

// contextInputs reads the mutually exclusive context and context_json
// arguments. obj is nil when context was not passed.
func contextInputs(req mcp.CallToolRequest) (string, map[string]any, *mcp.CallToolResult) {
	doc := req.GetString("context_json", "")

	var obj map[string]any
	switch raw := mcp.ParseArgument(req, "context", nil).(type) {
	case nil:
	case map[string]any:
		obj = raw
	default:
		return "", nil, mcp.NewToolResultError(fmt.Sprintf("context must be an object, got %T", raw))
	}

	if doc != "" && obj != nil {
		return "", nil, mcp.NewToolResultError("pass either context or context_json, not both")
	}
	return doc, obj, nil
}

// requireInt reads a required integral number argument.
func requireInt(req mcp.CallToolRequest, key string) (int, error) {
	if mcp.ParseArgument(req, key, nil) == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	n := mcp.ParseFloat64(req, key, math.NaN())
	if math.IsNaN(n) || n != math.Trunc(n) || n >= float64(math.MaxInt) || n < float64(math.MinInt) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(n), nil
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
