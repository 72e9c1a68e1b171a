// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/ctl"
	"github.com/bureau-foundation/xcmctl/lib/ctlpath"
	"github.com/bureau-foundation/xcmctl/lib/service"
)

// Socket states reported by list.
const (
	stateLive   = "live"
	stateStale  = "stale"
	statePruned = "pruned"
)

// socketStatus is one row of list output.
type socketStatus struct {
	PID       int    `json:"pid" yaml:"pid"`
	SocketID  int64  `json:"socket_id" yaml:"socket_id"`
	Path      string `json:"path" yaml:"path"`
	State     string `json:"state" yaml:"state"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
	LocalAddr string `json:"local_addr,omitempty" yaml:"local_addr,omitempty"`
}

func (a *app) listCommand() *Command {
	var prune bool
	return &Command{
		Name:    "list",
		Summary: "List control sockets and probe whether they answer",
		Description: `List the control sockets in the control directory.

Each socket is probed: "live" sockets accept a connection, "stale" ones
are files left behind by a socket that no longer listens. With --prune,
stale files whose process no longer exists are removed.`,
		Usage: "xcmctl list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("list", true)
			flagSet.BoolVar(&prune, "prune", false, "remove stale sockets of exited processes")
			return flagSet
		},
		Examples: []Example{
			{Description: "List sockets as JSON", Command: "xcmctl list --format json"},
			{Description: "Clean up after crashed processes", Command: "xcmctl list --prune"},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			env, err := a.setup()
			if err != nil {
				return err
			}
			statuses, err := listSockets(env.directory, env.timeout, prune, env.logger)
			if err != nil {
				return err
			}
			if env.format != formatText {
				return writeStructured(a.stdout, env.format, statuses)
			}
			return writeStatusTable(a.stdout, statuses)
		},
	}
}

// listSockets probes every control socket in directory.
func listSockets(directory string, timeout time.Duration, prune bool, logger *slog.Logger) ([]socketStatus, error) {
	entries, err := ctlpath.List(directory)
	if err != nil {
		return nil, err
	}
	statuses := make([]socketStatus, 0, len(entries))
	for _, entry := range entries {
		status := probe(entry, timeout, logger)
		if prune && status.State == stateStale && processGone(entry.PID) {
			if err := os.Remove(entry.Path); err != nil {
				logger.Warn("removing stale control socket failed", "path", entry.Path, "error", err)
			} else {
				logger.Info("removed stale control socket", "path", entry.Path, "pid", entry.PID)
				status.State = statePruned
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// probe connects to one control socket and reads its identity. A
// socket that accepts the connection is live even if the attribute
// requests then fail, e.g. because all its sessions are busy.
func probe(entry ctlpath.Entry, timeout time.Duration, logger *slog.Logger) socketStatus {
	status := socketStatus{
		PID:      entry.PID,
		SocketID: entry.SocketID,
		Path:     entry.Path,
		State:    stateStale,
	}

	client, err := ctl.Dial(entry.Path, timeout)
	if err != nil {
		logger.Debug("control socket not answering", "path", entry.Path, "error", err)
		return status
	}
	defer client.Close()
	status.State = stateLive

	if value, err := client.GetAttr(service.TypeAttribute); err == nil {
		status.Type = value.Format()
	} else {
		logger.Debug("probing socket type failed", "path", entry.Path, "error", err)
		return status
	}
	if value, err := client.GetAttr(service.LocalAddrAttribute); err == nil {
		status.LocalAddr = value.Format()
	}
	return status
}

// processGone reports whether no process with pid exists.
func processGone(pid int) bool {
	return errors.Is(unix.Kill(pid, 0), unix.ESRCH)
}

func writeStatusTable(output io.Writer, statuses []socketStatus) error {
	if len(statuses) == 0 {
		fmt.Fprintln(output, "no control sockets")
		return nil
	}
	writer := tabwriter.NewWriter(output, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "PID\tID\tSTATE\tTYPE\tLOCAL ADDRESS")
	for _, status := range statuses {
		fmt.Fprintf(writer, "%d\t%d\t%s\t%s\t%s\n",
			status.PID, status.SocketID, status.State, dash(status.Type), dash(status.LocalAddr))
	}
	return writer.Flush()
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
