// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xcmctl/ctl"
	"github.com/bureau-foundation/xcmctl/lib/codec"
	"github.com/bureau-foundation/xcmctl/lib/ctlpath"
	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
)

func (a *app) getCommand() *Command {
	return &Command{
		Name:    "get",
		Summary: "Read one attribute",
		Usage:   "xcmctl get <pid> <socket id> <attribute> [flags]",
		Flags: func() *pflag.FlagSet {
			return a.flagSet("get", true)
		},
		Examples: []Example{
			{Description: "Read the local address of socket 3 in process 4711", Command: "xcmctl get 4711 3 xcm.local_addr"},
		},
		Run: func(args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("usage: xcmctl get <pid> <socket id> <attribute>")
			}
			env, client, target, err := a.connect(args[0], args[1])
			if err != nil {
				return err
			}
			defer client.Close()

			name := args[2]
			value, err := client.GetAttr(name)
			if err != nil {
				return fmt.Errorf("socket %s: %w", target, err)
			}
			env.logger.Debug("attribute read", "socket", target, "name", name, "type", value.Type)

			if env.format != formatText {
				return writeStructured(a.stdout, env.format, codec.NewEntry(name, value))
			}
			_, err = fmt.Fprintln(a.stdout, value.Format())
			return err
		},
	}
}

func (a *app) getAllCommand() *Command {
	return &Command{
		Name:    "get-all",
		Summary: "Read every attribute a socket discloses",
		Usage:   "xcmctl get-all <pid> <socket id> [flags]",
		Flags: func() *pflag.FlagSet {
			return a.flagSet("get-all", true)
		},
		Examples: []Example{
			{Description: "Dump all attributes as YAML", Command: "xcmctl get-all 4711 3 --format yaml"},
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: xcmctl get-all <pid> <socket id>")
			}
			env, client, target, err := a.connect(args[0], args[1])
			if err != nil {
				return err
			}
			defer client.Close()

			attrs, err := client.GetAllAttr()
			if err != nil {
				return fmt.Errorf("socket %s: %w", target, err)
			}

			if env.format != formatText {
				return writeStructured(a.stdout, env.format, codec.NewDump(target.PID, target.SocketID, attrs))
			}
			return writeAttributeTable(a.stdout, attrs)
		},
	}
}

// connect resolves configuration and dials the control socket named
// by the <pid> <socket id> arguments.
func (a *app) connect(pidArgument, idArgument string) (*environment, *ctl.Client, ctlpath.Entry, error) {
	pid, socketID, err := parseTarget(pidArgument, idArgument)
	if err != nil {
		return nil, nil, ctlpath.Entry{}, err
	}
	env, err := a.setup()
	if err != nil {
		return nil, nil, ctlpath.Entry{}, err
	}
	path, err := ctlpath.Derive(env.directory, pid, socketID)
	if err != nil {
		return nil, nil, ctlpath.Entry{}, err
	}
	target := ctlpath.Entry{PID: pid, SocketID: socketID, Path: path}

	client, err := ctl.Dial(path, env.timeout)
	if err != nil {
		return nil, nil, target, err
	}
	return env, client, target, nil
}

func writeAttributeTable(output io.Writer, attrs []ctlproto.Attr) error {
	writer := tabwriter.NewWriter(output, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "NAME\tTYPE\tVALUE")
	for _, entry := range attrs {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", entry.Name, entry.Value.Type, entry.Value.Format())
	}
	return writer.Flush()
}
