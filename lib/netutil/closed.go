// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies socket errors and reads socket metadata
// for the non-blocking control channel.
//
// The control server works on raw descriptors, so its errors arrive as
// unix.Errno values rather than net.OpError. [IsWouldBlock] separates
// "no progress this tick" from real failures, and
// [IsExpectedCloseError] separates a client hanging up from a fault
// worth a warning.
package netutil

import (
	"errors"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// IsWouldBlock reports whether err means a non-blocking operation could
// not make progress: EAGAIN (EWOULDBLOCK on Linux) or EINTR.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, connection reset
// or a socket that is no longer connected.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno == unix.EPIPE || errno == unix.ECONNRESET || errno == unix.ENOTCONN
	}
	return false
}
