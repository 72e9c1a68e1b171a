// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name:   "xcmctl",
		Output: io.Discard,
		Subcommands: []*Command{
			{
				Name: "list",
				Run: func(args []string) error {
					called = "list"
					return nil
				},
			},
			{
				Name: "get",
				Run: func(args []string) error {
					called = "get"
					receivedArgs = args
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"get", "4711", "3", "xcm.type"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "get" {
		t.Errorf("dispatched to %q, want %q", called, "get")
	}
	if strings.Join(receivedArgs, " ") != "4711 3 xcm.type" {
		t.Errorf("args = %v, want [4711 3 xcm.type]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var directory string
	var target string

	command := &Command{
		Name: "get-all",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get-all", pflag.ContinueOnError)
			flagSet.StringVarP(&directory, "dir", "d", "/run/xcm/ctl", "control directory")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"-d", "/tmp/ctl", "4711"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if directory != "/tmp/ctl" {
		t.Errorf("directory = %q, want %q", directory, "/tmp/ctl")
	}
	if target != "4711" {
		t.Errorf("target = %q, want %q", target, "4711")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "list",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.Bool("prune", false, "remove stale sockets")
			flagSet.String("format", "text", "output format")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--prnue"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	message := err.Error()
	if !strings.Contains(message, "did you mean --prune") {
		t.Errorf("error = %q, want suggestion for '--prune'", message)
	}
	if !strings.Contains(message, "prnue") {
		t.Errorf("error = %q, should mention the bad flag", message)
	}
	if !strings.Contains(message, "--help") {
		t.Errorf("error = %q, should point to --help", message)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "list",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.Bool("prune", false, "remove stale sockets")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommand(t *testing.T) {
	root := &Command{
		Name:   "xcmctl",
		Output: io.Discard,
		Subcommands: []*Command{
			{Name: "list"},
			{Name: "get-all"},
			{Name: "watch"},
		},
	}

	err := root.Execute([]string{"lsit"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), `did you mean "list"`) {
		t.Errorf("error = %q, want suggestion for 'list'", err.Error())
	}

	err = root.Execute([]string{"zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpAndMissingSubcommand(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		var output bytes.Buffer
		root := &Command{
			Name:        "xcmctl",
			Output:      &output,
			Subcommands: []*Command{{Name: "list", Summary: "List control sockets"}},
		}
		if err := root.Execute([]string{helpArg}); err != nil {
			t.Errorf("Execute(%q) error: %v", helpArg, err)
		}
		if !strings.Contains(output.String(), "List control sockets") {
			t.Errorf("Execute(%q) help output = %q", helpArg, output.String())
		}
	}

	root := &Command{
		Name:        "xcmctl",
		Output:      io.Discard,
		Subcommands: []*Command{{Name: "list"}},
	}
	if err := root.Execute(nil); err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("Execute() error = %v, want 'subcommand required'", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "xcmctl",
		Description: "Inspect sockets through their control channels.",
		Subcommands: []*Command{
			{Name: "list", Summary: "List control sockets"},
			{Name: "get", Summary: "Read one attribute"},
		},
		Examples: []Example{
			{Description: "Read the socket type", Command: "xcmctl get 4711 3 xcm.type"},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Inspect sockets through their control channels.",
		"Usage:",
		"xcmctl <command> [flags]",
		"Commands:",
		"List control sockets",
		"Read one attribute",
		"Examples:",
		"# Read the socket type",
		"xcmctl get 4711 3 xcm.type",
		"Run 'xcmctl <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "xcmctl"}
	getAll := &Command{Name: "get-all", parent: root}

	if got := root.fullName(); got != "xcmctl" {
		t.Errorf("root.fullName() = %q, want %q", got, "xcmctl")
	}
	if got := getAll.fullName(); got != "xcmctl get-all" {
		t.Errorf("getAll.fullName() = %q, want %q", got, "xcmctl get-all")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"list", "", 4},
		{"list", "list", 0},
		{"lsit", "list", 2},
		{"get", "get-all", 4},
		{"watch", "match", 1},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
