package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rendis/flagbridge/internal/pipeline"
	"github.com/rendis/flagbridge/pkg/resolver"
	"github.com/rendis/flagbridge/pkg/schema"
	"github.com/spf13/cobra"
)

// resolveReport is the output of the resolve command.
type resolveReport struct {
	FlagKey string `json:"flagKey"`
	resolver.ResolutionDetails
	Tracked schema.Records `json:"tracked"`
}

type resolveFlags struct {
	flagsFile    string
	defaultValue string
	format       string
	pretty       bool
}

func newResolveCmd(a *app) *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve FLAG_KEY [CONTEXT_FILE]",
		Short: "Resolve a flag from a flags file and show the records the context carried",
		Long: "Resolves FLAG_KEY against the flags file using the evaluation context in\n" +
			"CONTEXT_FILE (stdin when -). Prints the resolution details together with\n" +
			"the records a tracking hook would report.",
		Example: "  flagbridge resolve --flags flags.yaml checkout ctx.json",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, a, &flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.flagsFile, "flags", "", "flags file (YAML or JSON)")
	f.StringVar(&flags.defaultValue, "default", "", "default value as JSON")
	f.StringVar(&flags.format, "format", "", "context format: auto, json or yaml")
	f.BoolVar(&flags.pretty, "pretty", false, "indent JSON output")
	return cmd
}

func runResolve(cmd *cobra.Command, a *app, flags *resolveFlags, args []string) error {
	flagsFile := a.cfg.FlagsFile
	if cmd.Flags().Changed("flags") {
		flagsFile = flags.flagsFile
	}
	formatName := a.cfg.InputFormat
	if cmd.Flags().Changed("format") {
		formatName = flags.format
	}

	static, err := loadStatic(flagsFile)
	if err != nil {
		return err
	}

	var defaultValue any
	if flags.defaultValue != "" {
		if err := json.Unmarshal([]byte(flags.defaultValue), &defaultValue); err != nil {
			return fmt.Errorf("--default is not valid JSON: %w", err)
		}
	}

	format, err := pipeline.ParseFormat(formatName)
	if err != nil {
		return err
	}
	in := pipeline.Input{Format: format}
	if len(args) == 2 {
		if in, err = readInput(cmd, args[1], format); err != nil {
			return err
		}
	}
	evalCtx, err := pipeline.DecodeContext(in)
	if err != nil {
		return err
	}

	rec := &resolver.Recorder{}
	details := resolver.NewTracking(static, rec, a.logger).Resolve(cmd.Context(), resolver.ResolveParams{
		FlagKey:      args[0],
		DefaultValue: defaultValue,
		Context:      evalCtx,
		IsAnyType:    true,
	})

	report := resolveReport{FlagKey: args[0], ResolutionDetails: details, Tracked: schema.Records{}}
	if entries := rec.Entries(); len(entries) > 0 {
		report.Tracked = entries[0].Records
	}
	return writeJSON(cmd.OutOrStdout(), report, a.cfg.Pretty || flags.pretty)
}

// loadStatic builds a resolver from a flags file. An empty path yields an
// empty flag table.
func loadStatic(path string) (*resolver.Static, error) {
	flagTable, err := loadFlags(path)
	if err != nil {
		return nil, err
	}
	return resolver.NewStatic(flagTable)
}

func loadFlags(path string) (map[string]resolver.Flag, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	flagTable, err := resolver.LoadFlags(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flagTable, nil
}
