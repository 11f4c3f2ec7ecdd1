package main

import (
	"github.com/rendis/flagbridge/internal/pipeline"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	selectExpr string
	where      string
	filterLang string
	format     string
	schema     string
	lint       bool
	pretty     bool
	workers    int
}

func newConvertCmd(a *app) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert [FILE...]",
		Short: "Convert evaluation contexts into record batches",
		Long: "Reads each FILE (or stdin when none is given or FILE is -) as an\n" +
			"evaluation context and writes one JSON batch per input, in input order.",
		Example: "  flagbridge convert ctx.json\n" +
			"  cat event.json | flagbridge convert --select .context --where 'record.type == \"conversion\"'",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, a, &flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.selectExpr, "select", "", "jq expression selecting the context within each document (jq reorders object keys lexicographically)")
	f.StringVar(&flags.where, "where", "", "predicate over each record (variable: record)")
	f.StringVar(&flags.filterLang, "filter-lang", "", "predicate language: cel or expr")
	f.StringVar(&flags.format, "format", "", "input format: auto, json or yaml")
	f.StringVar(&flags.schema, "schema", "", "extra JSON Schema file applied when linting")
	f.BoolVar(&flags.lint, "lint", false, "lint contexts and log warnings")
	f.BoolVar(&flags.pretty, "pretty", false, "indent JSON output")
	f.IntVar(&flags.workers, "workers", 0, "concurrent inputs (0 = GOMAXPROCS)")
	return cmd
}

func runConvert(cmd *cobra.Command, a *app, flags *convertFlags, args []string) error {
	cfg := a.cfg
	changed := cmd.Flags().Changed
	if changed("filter-lang") {
		cfg.FilterLang = flags.filterLang
	}
	if changed("format") {
		cfg.InputFormat = flags.format
	}
	if changed("lint") {
		cfg.Lint = flags.lint
	}
	if changed("pretty") {
		cfg.Pretty = flags.pretty
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}

	format, err := pipeline.ParseFormat(cfg.InputFormat)
	if err != nil {
		return err
	}
	extra, err := readOptionalFile(flags.schema)
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Options{
		Select:     flags.selectExpr,
		Where:      flags.where,
		FilterLang: cfg.FilterLang,
		Lint:       cfg.Lint || extra != nil,
		Schema:     extra,
		Workers:    cfg.Workers,
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

	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.Lint != nil {
			for _, w := range res.Lint.Warnings {
				a.logger.Warn("lint", "source", res.Batch.Source, "path", w.Path, "code", w.Code, "message", w.Message)
			}
		}
		if err := writeJSON(out, res.Batch, cfg.Pretty); err != nil {
			return err
		}
	}
	return nil
}
