// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"
	"io"
	"os"
)

// MaxKeyFileSize bounds ReadKeyFile. PEM-encoded RSA-4096 keys are
// about 3.3 KiB.
const MaxKeyFileSize = 64 << 10

// ReadKeyFile reads a private key file into a Buffer. The file is read
// into a heap buffer that is zeroed before returning, whether or not
// the read succeeds. Files that are empty or larger than
// MaxKeyFileSize are rejected.
func ReadKeyFile(path string) (*Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening key file: %w", err)
	}
	defer file.Close()

	scratch := make([]byte, MaxKeyFileSize+1)
	defer clear(scratch)

	length, err := io.ReadFull(file, scratch)
	switch {
	case err == io.ErrUnexpectedEOF || err == io.EOF:
	case err != nil:
		return nil, fmt.Errorf("reading key file %s: %w", path, err)
	default:
		return nil, fmt.Errorf("key file %s exceeds %d bytes", path, MaxKeyFileSize)
	}
	if length == 0 {
		return nil, fmt.Errorf("key file %s is empty", path)
	}
	return NewFromBytes(scratch[:length])
}
