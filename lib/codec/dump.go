// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
)

// Dump is a snapshot of the attributes of one socket.
type Dump struct {
	PID        int     `json:"pid" yaml:"pid"`
	SocketID   int64   `json:"socket_id" yaml:"socket_id"`
	Attributes []Entry `json:"attributes" yaml:"attributes"`
}

// Entry is one attribute in a Dump. Value holds the native Go value:
// bool, int64, float64, string, or []byte for binary attributes
// (a CBOR byte string, base64 in JSON, !!binary in YAML).
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

// NewEntry converts one attribute.
func NewEntry(name string, value attr.Value) Entry {
	return Entry{
		Name:  name,
		Type:  value.Type.String(),
		Value: value.Native(),
	}
}

// NewDump converts the attributes returned by a control server.
func NewDump(pid int, socketID int64, attrs []ctlproto.Attr) Dump {
	entries := make([]Entry, 0, len(attrs))
	for _, entry := range attrs {
		entries = append(entries, NewEntry(entry.Name, entry.Value))
	}
	return Dump{PID: pid, SocketID: socketID, Attributes: entries}
}
