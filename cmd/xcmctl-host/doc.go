// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// xcmctl-host runs a hosting socket with a control channel, for
// exercising xcmctl and for testing control clients.
//
// The socket publishes the generic attributes (xcm.type,
// xcm.transport, xcm.local_addr, xcm.uptime, ctl.sessions), any static
// attributes from host.attributes_file, the BLAKE3 fingerprint of
// host.tls_cert_file, and holds host.tls_key_file as tls.key. The key
// stays in locked memory and is never served over the control channel.
//
// Usage:
//
//	xcmctl-host [--config FILE] [--socket-id N]
//
// SIGINT or SIGTERM destroys the control server and removes its socket
// file. With host.metrics_address set, Prometheus metrics are served at
// /metrics.
package main
