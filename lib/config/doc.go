// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the xcmctl
// tools.
//
// Configuration is read from a single file named by the XCMCTL_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no file search: with neither set, [Load]
// returns [Default].
//
// Exactly one environment variable overrides a loaded value: XCM_CTL
// replaces control.directory, so the tools agree with every hosting
// process on where control sockets live. Path fields additionally get
// ${VAR} and ${VAR:-default} expansion.
//
// Key exports:
//
//   - [Config] -- master struct with Control, Log and Host sections
//   - [Default] -- a Config that needs no file
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [LogConfig.NewLogger] -- builds the slog logger binaries use
package config
