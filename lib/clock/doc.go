// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall clock.
//
// The control server stamps each session with its accept time and the
// host reports its uptime; both read time through a Clock so tests can
// pin it:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	server, err := ctl.Create(socket, ctl.Config{Clock: c, ...})
//	c.Advance(5 * time.Second)
package clock
