// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Log formats.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text, json, or auto: text when the output is a
	// terminal, JSON otherwise.
	// Default: auto
	Format string `yaml:"format"`
}

// Validate checks the level and format.
func (c LogConfig) Validate() error {
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.Format {
	case FormatAuto, FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("log.format must be one of: auto, text, json; got %q", c.Format)
	}
}

func (c LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger returns a logger writing to output.
func (c LogConfig) NewLogger(output io.Writer) (*slog.Logger, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	level, _ := c.level()
	options := &slog.HandlerOptions{Level: level}

	text := c.Format == FormatText
	if c.Format == FormatAuto {
		file, ok := output.(*os.File)
		text = ok && term.IsTerminal(int(file.Fd()))
	}

	if text {
		return slog.New(slog.NewTextHandler(output, options)), nil
	}
	return slog.New(slog.NewJSONHandler(output, options)), nil
}
