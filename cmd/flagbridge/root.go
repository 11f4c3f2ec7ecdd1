package main

import (
	"log/slog"
	"os"

	"github.com/rendis/flagbridge/internal/logging"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg    Config
	logger *slog.Logger

	settings  string
	getenv    func(string) string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(settingsPath(os.Getenv), os.Getenv)
}

// newRootCmdWith builds the command tree reading configuration from the
// given settings file and environment lookup.
func newRootCmdWith(settings string, getenv func(string) string) *cobra.Command {
	a := &app{settings: settings, getenv: getenv}

	root := &cobra.Command{
		Use:   "flagbridge",
		Short: "Convert feature-flag evaluation contexts into analytics records",
		Long: "flagbridge reads evaluation contexts (JSON or YAML) and emits the\n" +
			"Conversion and CustomData records they carry.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newConvertCmd(a),
		newInspectCmd(a),
		newMakeCmd(a),
		newResolveCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger. Logs go to stderr so
// stdout carries only command output.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.settings, a.getenv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), level, cfg.LogFormat)
	return nil
}
