// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
)

// Type is the value type of an attribute. The numeric values are part
// of the control protocol wire format.
type Type uint32

const (
	TypeBool   Type = 1
	TypeInt64  Type = 2
	TypeString Type = 3
	TypeBinary Type = 4
	TypeDouble Type = 5
)

// String returns the lower-case type name used in CLI output.
func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt64:
		return "int64"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeDouble:
		return "double"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

// Valid reports whether t is one of the defined types.
func (t Type) Valid() bool {
	return t >= TypeBool && t <= TypeDouble
}

// Value is a typed attribute value in its wire representation: bools
// are one byte, int64 and double are eight bytes in native byte
// order, strings are their UTF-8 bytes without a terminator, and
// binary values are carried verbatim.
type Value struct {
	Type Type
	Data []byte
}

// Bool returns a bool value.
func Bool(value bool) Value {
	data := []byte{0}
	if value {
		data[0] = 1
	}
	return Value{Type: TypeBool, Data: data}
}

// Int64 returns an int64 value.
func Int64(value int64) Value {
	data := make([]byte, 8)
	binary.NativeEndian.PutUint64(data, uint64(value))
	return Value{Type: TypeInt64, Data: data}
}

// Double returns a double value.
func Double(value float64) Value {
	data := make([]byte, 8)
	binary.NativeEndian.PutUint64(data, math.Float64bits(value))
	return Value{Type: TypeDouble, Data: data}
}

// String returns a string value.
func String(value string) Value {
	return Value{Type: TypeString, Data: []byte(value)}
}

// Binary returns a binary value holding a copy of value.
func Binary(value []byte) Value {
	return Value{Type: TypeBinary, Data: append([]byte(nil), value...)}
}

// Len returns the length of the wire representation.
func (v Value) Len() int {
	return len(v.Data)
}

// Validate checks that the data length fits the type.
func (v Value) Validate() error {
	switch v.Type {
	case TypeBool:
		if len(v.Data) != 1 {
			return fmt.Errorf("bool value has %d bytes, want 1", len(v.Data))
		}
	case TypeInt64, TypeDouble:
		if len(v.Data) != 8 {
			return fmt.Errorf("%s value has %d bytes, want 8", v.Type, len(v.Data))
		}
	case TypeString, TypeBinary:
	default:
		return fmt.Errorf("unknown attribute type %d", uint32(v.Type))
	}
	return nil
}

// Native returns the value as the corresponding Go type: bool, int64,
// float64, string or []byte. Malformed values return nil.
func (v Value) Native() any {
	if v.Validate() != nil {
		return nil
	}
	switch v.Type {
	case TypeBool:
		return v.Data[0] != 0
	case TypeInt64:
		return int64(binary.NativeEndian.Uint64(v.Data))
	case TypeDouble:
		return math.Float64frombits(binary.NativeEndian.Uint64(v.Data))
	case TypeString:
		return string(v.Data)
	default:
		return append([]byte(nil), v.Data...)
	}
}

// Format renders the value for human consumption. Binary values are
// shown as lower-case hex.
func (v Value) Format() string {
	if err := v.Validate(); err != nil {
		return "<" + err.Error() + ">"
	}
	switch native := v.Native().(type) {
	case bool:
		return strconv.FormatBool(native)
	case int64:
		return strconv.FormatInt(native, 10)
	case float64:
		return strconv.FormatFloat(native, 'g', -1, 64)
	case string:
		return native
	case []byte:
		return hex.EncodeToString(native)
	default:
		return ""
	}
}

// Equal reports whether two values have the same type and bytes.
func (v Value) Equal(other Value) bool {
	return v.Type == other.Type && string(v.Data) == string(other.Data)
}
