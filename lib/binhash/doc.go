// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes domain-separated BLAKE3 digests of files and
// byte strings.
//
// Two domains are in use:
//
//   - [DomainBinary] identifies a build of an xcmctl binary; version
//     output includes it so two installs can be compared exactly.
//   - [DomainCertificate] fingerprints the certificate a host socket
//     presents, published as the tls.cert_fingerprint attribute.
//
// Keyed hashing means the same bytes hashed in different domains never
// produce the same digest.
package binhash
