// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a short-named temporary directory for Unix domain
// sockets. sun_path holds at most 108 bytes, and t.TempDir() paths
// (especially under a TMPDIR set by a build system) routinely exceed
// it once a control socket name is appended.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests that wait on goroutines never hang.
//
// [NextSocketID] hands out distinct socket ids so tests sharing a
// control directory never collide on a bind path.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
