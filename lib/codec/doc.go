// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration and the
// attribute dump model shared by the xcmctl tools.
//
// The control protocol itself is fixed-size binary (lib/ctlproto).
// Everything a tool emits for other programs goes through [Dump]: a
// self-describing snapshot of one socket's attributes, tagged for
// JSON, YAML and CBOR alike. CBOR output uses Core Deterministic
// Encoding (RFC 8949 §4.2), so the same attributes always produce the
// same bytes and dumps can be compared or hashed directly.
//
//	dump := codec.NewDump(pid, socketID, attrs)
//	data, err := codec.Marshal(dump)
package codec
