// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// PeerCredentials identifies the process at the other end of a Unix
// domain socket, as recorded by the kernel at connect time.
type PeerCredentials struct {
	PID int32
	UID uint32
	GID uint32
}

// LogValue renders the credentials as a log group.
func (c PeerCredentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pid", int(c.PID)),
		slog.Any("uid", c.UID),
		slog.Any("gid", c.GID),
	)
}

// ReadPeerCredentials returns the SO_PEERCRED credentials of a
// connected Unix domain socket descriptor.
func ReadPeerCredentials(fd int) (PeerCredentials, error) {
	ucred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return PeerCredentials{}, fmt.Errorf("reading SO_PEERCRED: %w", err)
	}
	return PeerCredentials{PID: ucred.Pid, UID: ucred.Uid, GID: ucred.Gid}, nil
}
