// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xcmctl/lib/config"
	"github.com/bureau-foundation/xcmctl/lib/ctlpath"
	"github.com/bureau-foundation/xcmctl/lib/version"
)

// app holds the flag values shared by every subcommand.
type app struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer

	configPath string
	directory  string
	timeout    time.Duration
	format     string
}

// environment is what a subcommand runs with once flags and
// configuration are resolved.
type environment struct {
	config    *config.Config
	logger    *slog.Logger
	directory string
	timeout   time.Duration
	format    string
}

func (a *app) flagSet(name string, formatted bool) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&a.configPath, "config", "", "configuration file (default: $"+config.EnvConfig+")")
	flagSet.StringVarP(&a.directory, "dir", "d", "", "control socket directory (default: $"+ctlpath.EnvDirectory+" or control.directory)")
	flagSet.DurationVar(&a.timeout, "timeout", 0, "bound on each control request (default: control.timeout)")
	if formatted {
		flagSet.StringVarP(&a.format, "format", "f", formatText, "output format: text, json, yaml, cbor")
	}
	return flagSet
}

// setup loads configuration and resolves the shared flags against it.
func (a *app) setup() (*environment, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	format := a.format
	if format == "" {
		format = formatText
	}
	if err := validateFormat(format); err != nil {
		return nil, err
	}

	logger, err := cfg.Log.NewLogger(a.stderr)
	if err != nil {
		return nil, err
	}

	env := &environment{
		config:    cfg,
		logger:    logger,
		directory: cfg.Control.Directory,
		timeout:   cfg.ClientTimeout(),
		format:    format,
	}
	if a.directory != "" {
		env.directory = a.directory
	}
	if a.timeout > 0 {
		env.timeout = a.timeout
	}
	return env, nil
}

func (a *app) root() *Command {
	return &Command{
		Name:    "xcmctl",
		Summary: "Inspect sockets through their control channels",
		Description: `xcmctl inspects sockets through their control channels.

Each socket with a control channel listens on ctl-<pid>-<socket id> in
the control directory. Attributes are read-only; tls.key is never
disclosed.`,
		Output: a.stderr,
		Subcommands: []*Command{
			a.listCommand(),
			a.getCommand(),
			a.getAllCommand(),
			a.watchCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(a.stdout, "xcmctl %s\n", version.Full())
					return nil
				},
			},
		},
	}
}

// parseTarget parses the <pid> <socket id> arguments.
func parseTarget(pidArgument, idArgument string) (int, int64, error) {
	pid, err := strconv.Atoi(pidArgument)
	if err != nil || pid <= 0 {
		return 0, 0, fmt.Errorf("invalid pid %q", pidArgument)
	}
	socketID, err := strconv.ParseInt(idArgument, 10, 64)
	if err != nil || socketID < 0 {
		return 0, 0, fmt.Errorf("invalid socket id %q", idArgument)
	}
	return pid, socketID, nil
}
