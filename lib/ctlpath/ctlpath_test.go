// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctlpath

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/bureau-foundation/xcmctl/lib/testutil"
)

func TestDirectory(t *testing.T) {
	t.Setenv(EnvDirectory, "")
	if got := Directory(""); got != DefaultDirectory {
		t.Errorf("Directory(\"\") = %q, want %q", got, DefaultDirectory)
	}
	if got := Directory("/srv/ctl"); got != "/srv/ctl" {
		t.Errorf("Directory(/srv/ctl) = %q", got)
	}

	t.Setenv(EnvDirectory, "/tmp/override")
	if got := Directory("/srv/ctl"); got != "/tmp/override" {
		t.Errorf("Directory with %s set = %q, want /tmp/override", EnvDirectory, got)
	}
}

func TestValidateDirectory(t *testing.T) {
	directory := t.TempDir()
	if err := ValidateDirectory(directory); err != nil {
		t.Errorf("ValidateDirectory(existing) = %v", err)
	}

	if err := ValidateDirectory(filepath.Join(directory, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ValidateDirectory(missing) = %v, want ErrNotExist", err)
	}

	file := filepath.Join(directory, "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDirectory(file); err == nil {
		t.Error("ValidateDirectory(regular file) succeeded")
	}
}

func TestDerive(t *testing.T) {
	path, err := Derive("/run/xcm/ctl", 4711, 3)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if path != "/run/xcm/ctl/ctl-4711-3" {
		t.Errorf("Derive = %q", path)
	}

	longDirectory := "/" + strings.Repeat("d", MaxPathLength)
	if _, err := Derive(longDirectory, 1, 1); !errors.Is(err, ErrPathTooLong) {
		t.Errorf("Derive(long) error = %v, want ErrPathTooLong", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		pid      int
		socketID int64
		ok       bool
	}{
		{"ctl-4711-3", 4711, 3, true},
		{"ctl-1-0", 1, 0, true},
		{Name(99, 1<<40), 99, 1 << 40, true},
		{"ctl-4711", 0, 0, false},
		{"ctl--3", 0, 0, false},
		{"ctl-0-3", 0, 0, false},
		{"ctl-12-x", 0, 0, false},
		{"ctl-12--3", 0, 0, false},
		{"sock-12-3", 0, 0, false},
		{"ctl-12-3-4", 0, 0, false},
	}
	for _, test := range tests {
		pid, socketID, ok := Parse(test.name)
		if ok != test.ok || pid != test.pid || socketID != test.socketID {
			t.Errorf("Parse(%q) = %d, %d, %v; want %d, %d, %v",
				test.name, pid, socketID, ok, test.pid, test.socketID, test.ok)
		}
	}
}

func TestList(t *testing.T) {
	directory := testutil.SocketDir(t)

	for _, name := range []string{"ctl-20-1", "ctl-3-7", "ctl-3-2", "not-a-ctl"} {
		listener, err := net.Listen("unixpacket", filepath.Join(directory, name))
		if err != nil {
			t.Fatalf("listening on %s: %v", name, err)
		}
		t.Cleanup(func() { listener.Close() })
	}
	// A regular file with a control socket name is not a socket.
	if err := os.WriteFile(filepath.Join(directory, "ctl-5-5"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	entries, err := List(directory)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Entry{
		{PID: 3, SocketID: 2, Path: filepath.Join(directory, "ctl-3-2")},
		{PID: 3, SocketID: 7, Path: filepath.Join(directory, "ctl-3-7")},
		{PID: 20, SocketID: 1, Path: filepath.Join(directory, "ctl-20-1")},
	}
	if diff := pretty.Compare(entries, want); diff != "" {
		t.Errorf("List (-got +want):\n%s", diff)
	}

	if _, err := List(filepath.Join(directory, "missing")); err == nil {
		t.Error("List(missing) succeeded")
	}
}

func TestEntryString(t *testing.T) {
	entry := Entry{PID: 4711, SocketID: 3, Path: "/run/xcm/ctl/ctl-4711-3"}
	if got := entry.String(); got != "4711/3" {
		t.Errorf("String() = %q, want 4711/3", got)
	}
}
