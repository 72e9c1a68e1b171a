// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xcmctl/lib/ctlpath"
)

// Watch operations.
const (
	opPresent = "present"
	opCreated = "created"
	opRemoved = "removed"
)

// watchEvent reports a control socket appearing or disappearing.
type watchEvent struct {
	Op       string `json:"op" yaml:"op"`
	PID      int    `json:"pid" yaml:"pid"`
	SocketID int64  `json:"socket_id" yaml:"socket_id"`
	Path     string `json:"path" yaml:"path"`
}

func (a *app) watchCommand() *Command {
	return &Command{
		Name:    "watch",
		Summary: "Report control sockets as they are created and removed",
		Description: `Report control sockets as they are created and removed.

Sockets already present are reported first. Structured formats emit one
record per event: JSON lines, YAML documents, or a CBOR sequence.
Runs until interrupted.`,
		Usage: "xcmctl watch [flags]",
		Flags: func() *pflag.FlagSet {
			return a.flagSet("watch", true)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			env, err := a.setup()
			if err != nil {
				return err
			}

			watcher, err := newDirectoryWatcher(env.directory)
			if err != nil {
				return err
			}
			defer watcher.Close()

			emit := newEventWriter(a.stdout, env.format)
			defer emit.Close()

			entries, err := ctlpath.List(env.directory)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := emit.Write(watchEvent{Op: opPresent, PID: entry.PID, SocketID: entry.SocketID, Path: entry.Path}); err != nil {
					return err
				}
			}
			env.logger.Debug("watching control directory", "directory", env.directory)
			return watcher.Run(a.ctx, emit.Write)
		},
	}
}

// directoryWatcher turns inotify events on the control directory into
// watchEvents.
type directoryWatcher struct {
	watcher   *fsnotify.Watcher
	directory string
}

// newDirectoryWatcher starts watching directory. Events that happen
// after it returns are delivered by Run.
func newDirectoryWatcher(directory string) (*directoryWatcher, error) {
	if err := ctlpath.ValidateDirectory(directory); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", directory, err)
	}
	return &directoryWatcher{watcher: watcher, directory: directory}, nil
}

// Run calls emit for every control socket created or removed until
// ctx is cancelled (returning nil) or emit or the watcher fails.
func (w *directoryWatcher) Run(ctx context.Context, emit func(watchEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			converted, ok := w.convert(event)
			if !ok {
				continue
			}
			if err := emit(converted); err != nil {
				return err
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", w.directory, err)
		}
	}
}

func (w *directoryWatcher) convert(event fsnotify.Event) (watchEvent, bool) {
	pid, socketID, ok := ctlpath.Parse(filepath.Base(event.Name))
	if !ok {
		return watchEvent{}, false
	}
	converted := watchEvent{PID: pid, SocketID: socketID, Path: event.Name}
	switch {
	case event.Has(fsnotify.Create):
		converted.Op = opCreated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		converted.Op = opRemoved
	default:
		return watchEvent{}, false
	}
	return converted, true
}

// Close stops watching.
func (w *directoryWatcher) Close() error {
	return w.watcher.Close()
}

// eventWriter renders watchEvents as text lines or as a structured
// stream.
type eventWriter struct {
	output  io.Writer
	encoder *encoder
}

func newEventWriter(output io.Writer, format string) *eventWriter {
	writer := &eventWriter{output: output}
	if format != formatText {
		writer.encoder = newEncoder(output, format, true)
	}
	return writer
}

func (w *eventWriter) Write(event watchEvent) error {
	if w.encoder != nil {
		return w.encoder.Encode(event)
	}
	_, err := fmt.Fprintf(w.output, "%-8s %d/%d\t%s\n", event.Op, event.PID, event.SocketID, event.Path)
	return err
}

func (w *eventWriter) Close() error {
	if w.encoder != nil {
		return w.encoder.Close()
	}
	return nil
}
