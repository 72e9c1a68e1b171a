// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/xcmctl/lib/process"
	"github.com/bureau-foundation/xcmctl/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Handle --version before anything else.
	if len(args) > 0 && args[0] == "--version" {
		fmt.Fprintf(stdout, "xcmctl %s\n", version.Info())
		return nil
	}

	application := &app{ctx: ctx, stdout: stdout, stderr: stderr}
	return application.root().Execute(args)
}
