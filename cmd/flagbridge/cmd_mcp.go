package main

import (
	"github.com/rendis/flagbridge/pkg/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var flagsFile string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the flagbridge tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("flags") {
				a.cfg.FlagsFile = flagsFile
			}
			flagTable, err := loadFlags(a.cfg.FlagsFile)
			if err != nil {
				return err
			}

			srv, err := mcp.NewFlagbridgeServer(mcp.FlagbridgeServerDeps{
				Flags:      flagTable,
				Lint:       a.cfg.Lint,
				FilterLang: a.cfg.FilterLang,
				Version:    version,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}

			a.logger.Info("serving MCP on stdio", "version", version, "flags", len(flagTable))
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&flagsFile, "flags", "", "flags file backing flagbridge.resolve")
	return cmd
}
