package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
)

// Config holds CLI defaults.
// Priority: flags > env vars > settings.json > defaults.
type Config struct {
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
	InputFormat string `json:"input_format"`
	FilterLang  string `json:"filter_lang"`
	Pretty      bool   `json:"pretty"`
	Lint        bool   `json:"lint"`
	Workers     int    `json:"workers"`
	FlagsFile   string `json:"flags_file"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:    "warn",
		LogFormat:   "text",
		InputFormat: "auto",
		FilterLang:  "cel",
	}
}

// flagbridgeDir is FLAGBRIDGE_HOME when set, else ~/.flagbridge.
func flagbridgeDir(getenv func(string) string) string {
	if dir := getenv("FLAGBRIDGE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flagbridge"
	}
	return filepath.Join(home, ".flagbridge")
}

func settingsPath(getenv func(string) string) string {
	return filepath.Join(flagbridgeDir(getenv), "settings.json")
}

// loadConfig layers settings.json at path and FLAGBRIDGE_* variables read
// through getenv over the defaults. A missing settings file is not an error.
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	strs := map[string]*string{
		"FLAGBRIDGE_LOG_LEVEL":    &cfg.LogLevel,
		"FLAGBRIDGE_LOG_FORMAT":   &cfg.LogFormat,
		"FLAGBRIDGE_INPUT_FORMAT": &cfg.InputFormat,
		"FLAGBRIDGE_FILTER_LANG":  &cfg.FilterLang,
		"FLAGBRIDGE_FLAGS_FILE":   &cfg.FlagsFile,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"FLAGBRIDGE_PRETTY": &cfg.Pretty,
		"FLAGBRIDGE_LINT":   &cfg.Lint,
	}
	for name, dst := range bools {
		v := getenv(name)
		if v == "" {
			continue
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}

	if v := getenv("FLAGBRIDGE_WORKERS"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("FLAGBRIDGE_WORKERS: want a non-negative integer, got %q", v)
		}
		cfg.Workers = n
	}

	return cfg, nil
}
