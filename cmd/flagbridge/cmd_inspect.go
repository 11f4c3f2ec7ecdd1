package main

import (
	"github.com/rendis/flagbridge/internal/pipeline"
	"github.com/rendis/flagbridge/pkg/convert"
	"github.com/rendis/flagbridge/pkg/schema"
	"github.com/spf13/cobra"
)

// inspectReport is the per-input output of the inspect command.
type inspectReport struct {
	Source   string                   `json:"source"`
	Records  schema.Records           `json:"records"`
	Skipped  []convert.Skipped        `json:"skipped"`
	Warnings []schema.ValidationIssue `json:"warnings"`
	Errors   []schema.ValidationIssue `json:"errors,omitempty"`
}

type inspectFlags struct {
	selectExpr string
	format     string
	schema     string
	strict     bool
	pretty     bool
}

func newInspectCmd(a *app) *cobra.Command {
	var flags inspectFlags

	cmd := &cobra.Command{
		Use:   "inspect [FILE...]",
		Short: "Report records, skipped entries and lint findings for contexts",
		Long: "Converts each input like convert, and additionally lists every entry\n" +
			"that was dropped or defaulted and every lint finding. With --strict,\n" +
			"any finding fails the command after all reports are written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, a, &flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.selectExpr, "select", "", "jq expression selecting the context within each document (jq reorders object keys lexicographically)")
	f.StringVar(&flags.format, "format", "", "input format: auto, json or yaml")
	f.StringVar(&flags.schema, "schema", "", "extra JSON Schema file applied to each context")
	f.BoolVar(&flags.strict, "strict", false, "treat lint warnings as errors")
	f.BoolVar(&flags.pretty, "pretty", false, "indent JSON output")
	return cmd
}

func runInspect(cmd *cobra.Command, a *app, flags *inspectFlags, args []string) error {
	formatName := a.cfg.InputFormat
	if cmd.Flags().Changed("format") {
		formatName = flags.format
	}
	pretty := a.cfg.Pretty || flags.pretty

	format, err := pipeline.ParseFormat(formatName)
	if err != nil {
		return err
	}
	extra, err := readOptionalFile(flags.schema)
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Options{
		Select:  flags.selectExpr,
		Lint:    true,
		Schema:  extra,
		Workers: a.cfg.Workers,
	}, a.logger)
	if err != nil {
		return err
	}

	inputs, err := readInputs(cmd, args, format)
	if err != nil {
		return err
	}
	results, err := p.RunAll(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	strict := &schema.ValidationResult{}
	out := cmd.OutOrStdout()
	for _, res := range results {
		report := newInspectReport(res)
		if flags.strict {
			lint := &schema.ValidationResult{Warnings: report.Warnings}
			lint.Promote()
			report.Warnings = []schema.ValidationIssue{}
			report.Errors = lint.Errors
			strict.Merge(lint)
		}
		if err := writeJSON(out, report, pretty); err != nil {
			return err
		}
	}

	return strict.ToError()
}

func newInspectReport(res *pipeline.Result) inspectReport {
	report := inspectReport{
		Source:   res.Batch.Source,
		Records:  res.Batch.Records,
		Skipped:  res.Skipped,
		Warnings: []schema.ValidationIssue{},
	}
	if report.Skipped == nil {
		report.Skipped = []convert.Skipped{}
	}
	if res.Lint != nil && len(res.Lint.Warnings) > 0 {
		report.Warnings = res.Lint.Warnings
	}
	return report
}
