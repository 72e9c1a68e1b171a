// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// xcmctl inspects sockets through their control channels.
//
// Every socket with a control channel binds ctl-<pid>-<socket id> in the
// control directory ($XCM_CTL, control.directory, or /run/xcm/ctl).
// xcmctl lists those sockets, reads single attributes or all of them,
// and watches the directory for sockets coming and going:
//
//	xcmctl list [--prune]
//	xcmctl get <pid> <socket id> <attribute>
//	xcmctl get-all <pid> <socket id> [--format json]
//	xcmctl watch
//
// Structured output (--format json, yaml or cbor) carries typed values.
// CBOR written to a terminal is shown in diagnostic notation.
package main
