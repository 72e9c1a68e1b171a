// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the xcmctl
// commands. Fatal is the one place raw output to stderr is allowed:
// it reports errors from run() before or after the structured logger
// exists.
package process
