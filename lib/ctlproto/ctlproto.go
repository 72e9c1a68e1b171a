// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ctlproto defines the control channel wire protocol: the
// fixed-size binary records exchanged between a control client and
// the control server embedded in a socket.
//
// Every record has exactly [MessageSize] bytes, the size of the
// largest variant. There is no length prefix; the transport is
// SOCK_SEQPACKET, which preserves record boundaries, and a receiver
// treats any other length as malformed. Integers are in native byte
// order, since both ends of a Unix domain socket run on the same
// machine.
//
// Layout:
//
//	offset 0  type   uint32 (MessageType)
//	offset 4  payload, zero padded to MessageSize
//
//	GetAttrRequest     name [NameMax]byte, NUL terminated
//	GetAttrConfirm     attribute record (name field unused)
//	GetAttrReject      errno int32
//	GetAllAttrRequest  (empty)
//	GetAllAttrConfirm  count uint32, MaxAttrs attribute records
//
//	attribute record   name [NameMax]byte | type uint32 | length uint32 | value [ValueMax]byte
package ctlproto

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/attr"
)

const (
	// NameMax is the size of an attribute name field, including the
	// terminating NUL. Names are at most NameMax-1 bytes.
	NameMax = 64

	// ValueMax is the largest attribute value carried.
	ValueMax = 256

	// MaxAttrs is the largest number of attributes in one
	// GetAllAttrConfirm.
	MaxAttrs = 64

	headerSize     = 4
	attrRecordSize = NameMax + 4 + 4 + ValueMax
	allAttrSize    = 4 + MaxAttrs*attrRecordSize

	// MessageSize is the size of every record on the wire.
	MessageSize = headerSize + allAttrSize
)

// MessageType identifies a variant on the wire.
type MessageType uint32

const (
	TypeGetAttrRequest    MessageType = 1
	TypeGetAttrConfirm    MessageType = 2
	TypeGetAttrReject     MessageType = 3
	TypeGetAllAttrRequest MessageType = 4
	TypeGetAllAttrConfirm MessageType = 5
)

// String returns the variant name.
func (t MessageType) String() string {
	switch t {
	case TypeGetAttrRequest:
		return "get_attr_req"
	case TypeGetAttrConfirm:
		return "get_attr_cfm"
	case TypeGetAttrReject:
		return "get_attr_rej"
	case TypeGetAllAttrRequest:
		return "get_all_attr_req"
	case TypeGetAllAttrConfirm:
		return "get_all_attr_cfm"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

var (
	// ErrMessageSize is returned by Decode for any length other than
	// MessageSize.
	ErrMessageSize = errors.New("ctlproto: wrong message size")

	// ErrUnknownType is returned by Decode for an unknown type field.
	ErrUnknownType = errors.New("ctlproto: unknown message type")

	// ErrMalformed is returned by Decode for a record whose fields are
	// out of bounds.
	ErrMalformed = errors.New("ctlproto: malformed message")

	// ErrNameTooLong is returned by Encode for a name that does not fit
	// NameMax with its terminator, or that contains a NUL.
	ErrNameTooLong = errors.New("ctlproto: attribute name too long")

	// ErrValueTooLarge is returned by Encode for a value longer than
	// ValueMax.
	ErrValueTooLarge = errors.New("ctlproto: attribute value too large")

	// ErrTooManyAttrs is returned by Encode for more than MaxAttrs
	// attributes.
	ErrTooManyAttrs = errors.New("ctlproto: too many attributes")
)

// Message is one of the five protocol variants. The set is closed:
// only types in this package implement it.
type Message interface {
	Type() MessageType
	isMessage()
}

// GetAttrRequest asks for one attribute.
type GetAttrRequest struct {
	Name string
}

// GetAttrConfirm carries the requested attribute's value.
type GetAttrConfirm struct {
	Value attr.Value
}

// GetAttrReject reports why an attribute could not be read.
type GetAttrReject struct {
	Errno unix.Errno
}

// GetAllAttrRequest asks for every readable attribute.
type GetAllAttrRequest struct{}

// GetAllAttrConfirm lists every readable attribute.
type GetAllAttrConfirm struct {
	Attrs []Attr
}

// Attr is one named attribute in a GetAllAttrConfirm.
type Attr struct {
	Name  string
	Value attr.Value
}

func (GetAttrRequest) Type() MessageType    { return TypeGetAttrRequest }
func (GetAttrConfirm) Type() MessageType    { return TypeGetAttrConfirm }
func (GetAttrReject) Type() MessageType     { return TypeGetAttrReject }
func (GetAllAttrRequest) Type() MessageType { return TypeGetAllAttrRequest }
func (GetAllAttrConfirm) Type() MessageType { return TypeGetAllAttrConfirm }

func (GetAttrRequest) isMessage()    {}
func (GetAttrConfirm) isMessage()    {}
func (GetAttrReject) isMessage()     {}
func (GetAllAttrRequest) isMessage() {}
func (GetAllAttrConfirm) isMessage() {}

// IsRequest reports whether message is sent client to server.
func IsRequest(message Message) bool {
	switch message.(type) {
	case GetAttrRequest, GetAllAttrRequest:
		return true
	default:
		return false
	}
}

// ValidName reports whether name can be carried in a name field.
func ValidName(name string) bool {
	if len(name) >= NameMax {
		return false
	}
	for index := 0; index < len(name); index++ {
		if name[index] == 0 {
			return false
		}
	}
	return true
}
