// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctlproto

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/attr"
)

var order = binary.NativeEndian

// Encode returns message as a MessageSize record.
func Encode(message Message) ([]byte, error) {
	buffer := make([]byte, MessageSize)
	if err := EncodeTo(buffer, message); err != nil {
		return nil, err
	}
	return buffer, nil
}

// EncodeTo writes message into buffer, which must be exactly
// MessageSize bytes. The whole buffer is overwritten, so a reused
// buffer never leaks bytes of an earlier record.
func EncodeTo(buffer []byte, message Message) error {
	if len(buffer) != MessageSize {
		return fmt.Errorf("%w: buffer has %d bytes, want %d", ErrMessageSize, len(buffer), MessageSize)
	}
	clear(buffer)

	order.PutUint32(buffer[0:headerSize], uint32(message.Type()))
	payload := buffer[headerSize:]

	switch message := message.(type) {
	case GetAttrRequest:
		return putName(payload[:NameMax], message.Name)
	case GetAttrConfirm:
		return putAttr(payload[:attrRecordSize], "", message.Value)
	case GetAttrReject:
		order.PutUint32(payload[0:4], uint32(int32(message.Errno)))
		return nil
	case GetAllAttrRequest:
		return nil
	case GetAllAttrConfirm:
		if len(message.Attrs) > MaxAttrs {
			return fmt.Errorf("%w: %d attributes, limit %d", ErrTooManyAttrs, len(message.Attrs), MaxAttrs)
		}
		order.PutUint32(payload[0:4], uint32(len(message.Attrs)))
		for index, entry := range message.Attrs {
			offset := 4 + index*attrRecordSize
			if err := putAttr(payload[offset:offset+attrRecordSize], entry.Name, entry.Value); err != nil {
				return fmt.Errorf("attribute %d: %w", index, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownType, message)
	}
}

func putName(field []byte, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}
	copy(field, name)
	return nil
}

func putAttr(record []byte, name string, value attr.Value) error {
	if err := putName(record[:NameMax], name); err != nil {
		return err
	}
	if len(value.Data) > ValueMax {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrValueTooLarge, len(value.Data), ValueMax)
	}
	order.PutUint32(record[NameMax:NameMax+4], uint32(value.Type))
	order.PutUint32(record[NameMax+4:NameMax+8], uint32(len(value.Data)))
	copy(record[NameMax+8:], value.Data)
	return nil
}

// Decode parses one record. The length must be exactly MessageSize.
func Decode(buffer []byte) (Message, error) {
	if len(buffer) != MessageSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrMessageSize, len(buffer), MessageSize)
	}

	messageType := MessageType(order.Uint32(buffer[0:headerSize]))
	payload := buffer[headerSize:]

	switch messageType {
	case TypeGetAttrRequest:
		name, err := getName(payload[:NameMax])
		if err != nil {
			return nil, err
		}
		return GetAttrRequest{Name: name}, nil
	case TypeGetAttrConfirm:
		_, value, err := getAttr(payload[:attrRecordSize])
		if err != nil {
			return nil, err
		}
		return GetAttrConfirm{Value: value}, nil
	case TypeGetAttrReject:
		return GetAttrReject{Errno: unix.Errno(int32(order.Uint32(payload[0:4])))}, nil
	case TypeGetAllAttrRequest:
		return GetAllAttrRequest{}, nil
	case TypeGetAllAttrConfirm:
		count := order.Uint32(payload[0:4])
		if count > MaxAttrs {
			return nil, fmt.Errorf("%w: attribute count %d exceeds %d", ErrMalformed, count, MaxAttrs)
		}
		attrs := make([]Attr, 0, count)
		for index := 0; index < int(count); index++ {
			offset := 4 + index*attrRecordSize
			name, value, err := getAttr(payload[offset : offset+attrRecordSize])
			if err != nil {
				return nil, fmt.Errorf("attribute %d: %w", index, err)
			}
			attrs = append(attrs, Attr{Name: name, Value: value})
		}
		return GetAllAttrConfirm{Attrs: attrs}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint32(messageType))
	}
}

func getName(field []byte) (string, error) {
	end := bytes.IndexByte(field, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated attribute name", ErrMalformed)
	}
	return string(field[:end]), nil
}

func getAttr(record []byte) (string, attr.Value, error) {
	name, err := getName(record[:NameMax])
	if err != nil {
		return "", attr.Value{}, err
	}
	valueType := attr.Type(order.Uint32(record[NameMax : NameMax+4]))
	length := order.Uint32(record[NameMax+4 : NameMax+8])
	if length > ValueMax {
		return "", attr.Value{}, fmt.Errorf("%w: value length %d exceeds %d", ErrMalformed, length, ValueMax)
	}
	value := attr.Value{
		Type: valueType,
		Data: append([]byte(nil), record[NameMax+8:NameMax+8+int(length)]...),
	}
	if err := value.Validate(); err != nil {
		return "", attr.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return name, value, nil
}
