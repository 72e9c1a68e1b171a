// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ctlpath names control sockets on the filesystem.
//
// Every control server binds one Unix domain socket in the control
// directory, named from the hosting process id and the socket's
// process-unique id:
//
//	<directory>/ctl-<pid>-<socketid>
//
// The name is unique for each (pid, socket) pair, so a client that
// knows a process and a socket id can find the control socket without
// any registry.
package ctlpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultDirectory is used when neither configuration nor the
	// environment names a control directory.
	DefaultDirectory = "/run/xcm/ctl"

	// EnvDirectory overrides the configured control directory.
	EnvDirectory = "XCM_CTL"

	// Prefix starts every control socket file name.
	Prefix = "ctl-"

	// MaxPathLength is the longest socket path that fits sun_path with
	// its terminating NUL.
	MaxPathLength = 107
)

// ErrPathTooLong is returned by Derive for paths that do not fit
// sun_path.
var ErrPathTooLong = errors.New("control socket path too long")

// Directory returns the control directory in effect: the EnvDirectory
// variable if set and non-empty, otherwise configured, otherwise
// DefaultDirectory.
func Directory(configured string) string {
	if value := os.Getenv(EnvDirectory); value != "" {
		return value
	}
	if configured != "" {
		return configured
	}
	return DefaultDirectory
}

// ValidateDirectory checks that path exists and is a directory.
func ValidateDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("control directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("control directory %s: not a directory", path)
	}
	return nil
}

// Derive returns the bind path for a control socket.
func Derive(directory string, pid int, socketID int64) (string, error) {
	path := filepath.Join(directory, Name(pid, socketID))
	if len(path) > MaxPathLength {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrPathTooLong, path, len(path), MaxPathLength)
	}
	return path, nil
}

// Name returns the file name of a control socket, without directory.
func Name(pid int, socketID int64) string {
	return Prefix + strconv.Itoa(pid) + "-" + strconv.FormatInt(socketID, 10)
}

// Entry identifies one control socket found in a control directory.
type Entry struct {
	PID      int
	SocketID int64
	Path     string
}

// String renders the entry as "pid/socketid".
func (e Entry) String() string {
	return fmt.Sprintf("%d/%d", e.PID, e.SocketID)
}

// Parse extracts the pid and socket id from a control socket file name.
// It reports false for names that are not control sockets.
func Parse(name string) (pid int, socketID int64, ok bool) {
	rest, found := strings.CutPrefix(name, Prefix)
	if !found {
		return 0, 0, false
	}
	pidText, idText, found := strings.Cut(rest, "-")
	if !found {
		return 0, 0, false
	}
	pid, err := strconv.Atoi(pidText)
	if err != nil || pid <= 0 {
		return 0, 0, false
	}
	socketID, err = strconv.ParseInt(idText, 10, 64)
	if err != nil || socketID < 0 {
		return 0, 0, false
	}
	return pid, socketID, true
}

// List returns the control sockets in directory, ordered by pid and
// then socket id. Files that are not sockets or whose names do not
// parse are ignored.
func List(directory string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("listing control directory: %w", err)
	}

	var entries []Entry
	for _, dirEntry := range dirEntries {
		if dirEntry.Type()&os.ModeSocket == 0 {
			continue
		}
		pid, socketID, ok := Parse(dirEntry.Name())
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			PID:      pid,
			SocketID: socketID,
			Path:     filepath.Join(directory, dirEntry.Name()),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PID != entries[j].PID {
			return entries[i].PID < entries[j].PID
		}
		return entries[i].SocketID < entries[j].SocketID
	})
	return entries, nil
}
