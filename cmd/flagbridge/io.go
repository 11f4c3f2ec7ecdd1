package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rendis/flagbridge/internal/pipeline"
	"github.com/spf13/cobra"
)

const stdinSource = "stdin"

// readInputs loads every path in args. No args, or "-", reads stdin.
func readInputs(cmd *cobra.Command, args []string, format pipeline.Format) ([]pipeline.Input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	inputs := make([]pipeline.Input, 0, len(args))
	for _, path := range args {
		in, err := readInput(cmd, path, format)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func readInput(cmd *cobra.Command, path string, format pipeline.Format) (pipeline.Input, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("read stdin: %w", err)
		}
		return pipeline.Input{Source: stdinSource, Data: data, Format: format}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.Input{Source: path, Data: data, Format: format}, nil
}

// readOptionalFile returns nil for an empty path.
func readOptionalFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// writeJSON writes v as one JSON line, or indented when pretty is set.
func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
