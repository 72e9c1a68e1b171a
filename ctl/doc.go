// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ctl implements the control channel: a small non-blocking
// server embedded in a hosting socket that lets local introspection
// tools read the socket's live attributes.
//
// The server listens on a SOCK_SEQPACKET Unix domain socket bound at
// <control directory>/ctl-<pid>-<socket id> (see lib/ctlpath) and
// speaks the fixed-size record protocol of lib/ctlproto. It never
// blocks and never waits: the hosting socket owns an I/O multiplexer,
// the server registers its descriptors there through a
// [regset.Set], and the host calls [Server.Process] whenever the
// multiplexer reports activity. Each call advances every client
// session by at most one step and accepts at most one new client.
//
// A server holds at most [Config.MaxClients] sessions (two by
// default). While the table is full the listening socket is
// deregistered, so pending connections wait in the kernel backlog
// until a slot frees up. Each session is strictly request/response:
// it is registered readable while waiting for a request and writable
// while a response is pending, never both.
//
// Attribute reads go through a [Bridge], which withholds sensitive
// attributes (the TLS private key, by default) from every response.
//
// [Client] is the blocking counterpart used by the xcmctl tool.
package ctl
