// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds private key material outside the Go heap.
//
// A hosting socket with TLS keeps its private key in a [Buffer]: an
// anonymous mmap region locked into RAM (mlock), excluded from core
// dumps (MADV_DONTDUMP), and zeroed on Close. The garbage collector
// never sees the region, so no stray heap copy of the key survives a
// collection.
//
// The key is exposed to the socket's attribute store under the name
// "tls.key" so local code can reach it, and the control channel
// refuses to disclose that attribute to clients.
package secret
