// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest.
type Digest [32]byte

// String returns the lower-case hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Domain is a BLAKE3 key. The bytes are the ASCII domain name,
// zero-padded; changing one invalidates every digest in that domain.
type Domain [32]byte

var (
	DomainBinary = Domain{
		'x', 'c', 'm', 'c', 't', 'l', '.', 'b', 'i', 'n', 'a', 'r', 'y', 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	DomainCertificate = Domain{
		'x', 'c', 'm', 'c', 't', 'l', '.', 'c', 'e', 'r', 't', 'i', 'f', 'i', 'c', 'a',
		't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func newHasher(domain Domain) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		// Only possible for a key that is not 32 bytes.
		panic("binhash: " + err.Error())
	}
	return hasher
}

// HashBytes returns the digest of data in domain.
func HashBytes(domain Domain, data []byte) Digest {
	hasher := newHasher(domain)
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// HashFile streams the file at path through BLAKE3 with constant
// memory.
func HashFile(domain Domain, path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := newHasher(domain)
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// ParseDigest parses the 64-character hex form produced by
// Digest.String.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("hash digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
