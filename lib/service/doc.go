// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the scaffolding for a process that hosts a
// socket with a control channel:
//
//   - [Host]: an epoll-driven event loop owning one control server.
//     The host is the ctl.Socket the server introspects.
//   - Attribute seeding: the generic xcm.* attributes, static attributes
//     from a JSONC file, the TLS private key held in locked memory, and
//     the certificate fingerprint.
//   - [HTTPServer]: a TCP HTTP server with graceful shutdown, used for
//     the Prometheus endpoint.
//
// Binaries compose these in their own main() rather than subclassing a
// framework. The package provides building blocks, not a runtime.
package service
