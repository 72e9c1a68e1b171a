// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctlproto

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/attr"
)

func TestMessageSize(t *testing.T) {
	if MessageSize != 21000 {
		t.Errorf("MessageSize = %d, want 21000", MessageSize)
	}
}

func TestEncodeDecode_Variants(t *testing.T) {
	fullList := make([]Attr, MaxAttrs)
	for index := range fullList {
		fullList[index] = Attr{
			Name:  fmt.Sprintf("xcm.counter_%02d", index),
			Value: attr.Int64(int64(index) * 1000),
		}
	}

	messages := []Message{
		GetAttrRequest{Name: "xcm.local_addr"},
		GetAttrRequest{Name: strings.Repeat("n", NameMax-1)},
		GetAttrConfirm{Value: attr.String("ux:service")},
		GetAttrConfirm{Value: attr.Binary(make([]byte, ValueMax))},
		GetAttrReject{Errno: unix.ENOENT},
		GetAllAttrRequest{},
		GetAllAttrConfirm{Attrs: []Attr{}},
		GetAllAttrConfirm{Attrs: []Attr{
			{Name: "xcm.type", Value: attr.String("server")},
			{Name: "tcp.keepalive", Value: attr.Bool(true)},
			{Name: "xcm.rtt", Value: attr.Double(1.5)},
		}},
		GetAllAttrConfirm{Attrs: fullList},
	}

	for _, message := range messages {
		t.Run(message.Type().String(), func(t *testing.T) {
			encoded, err := Encode(message)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if len(encoded) != MessageSize {
				t.Fatalf("encoded %d bytes, want %d", len(encoded), MessageSize)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := pretty.Compare(decoded, message); diff != "" {
				t.Errorf("decoded message differs (-got +want):\n%s", diff)
			}
		})
	}
}

func TestEncode_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		message Message
		want    error
	}{
		{"name at limit", GetAttrRequest{Name: strings.Repeat("n", NameMax)}, ErrNameTooLong},
		{"name with NUL", GetAttrRequest{Name: "tls\x00key"}, ErrNameTooLong},
		{"value too large", GetAttrConfirm{Value: attr.Binary(make([]byte, ValueMax+1))}, ErrValueTooLarge},
		{"too many attributes", GetAllAttrConfirm{Attrs: make([]Attr, MaxAttrs+1)}, ErrTooManyAttrs},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Encode(test.message)
			if !errors.Is(err, test.want) {
				t.Errorf("Encode error = %v, want %v", err, test.want)
			}
		})
	}
}

func TestEncodeTo_OverwritesBuffer(t *testing.T) {
	buffer := make([]byte, MessageSize)
	if err := EncodeTo(buffer, GetAttrConfirm{Value: attr.String(strings.Repeat("x", ValueMax))}); err != nil {
		t.Fatalf("EncodeTo: %v", err)
	}
	if err := EncodeTo(buffer, GetAttrReject{Errno: unix.EACCES}); err != nil {
		t.Fatalf("EncodeTo: %v", err)
	}
	for index := headerSize + 4; index < MessageSize; index++ {
		if buffer[index] != 0 {
			t.Fatalf("byte %d not cleared after re-encoding", index)
		}
	}

	if err := EncodeTo(make([]byte, 10), GetAllAttrRequest{}); !errors.Is(err, ErrMessageSize) {
		t.Errorf("EncodeTo into short buffer: error = %v, want ErrMessageSize", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	valid, err := Encode(GetAttrRequest{Name: "xcm.type"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	t.Run("short", func(t *testing.T) {
		if _, err := Decode(valid[:MessageSize-1]); !errors.Is(err, ErrMessageSize) {
			t.Errorf("error = %v, want ErrMessageSize", err)
		}
	})
	t.Run("long", func(t *testing.T) {
		if _, err := Decode(append(valid, 0)); !errors.Is(err, ErrMessageSize) {
			t.Errorf("error = %v, want ErrMessageSize", err)
		}
	})
	t.Run("unknown type", func(t *testing.T) {
		record := append([]byte(nil), valid...)
		order.PutUint32(record[0:4], 42)
		if _, err := Decode(record); !errors.Is(err, ErrUnknownType) {
			t.Errorf("error = %v, want ErrUnknownType", err)
		}
	})
	t.Run("unterminated name", func(t *testing.T) {
		record := append([]byte(nil), valid...)
		for index := 0; index < NameMax; index++ {
			record[headerSize+index] = 'a'
		}
		if _, err := Decode(record); !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})
	t.Run("attribute count", func(t *testing.T) {
		record, err := Encode(GetAllAttrConfirm{})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		order.PutUint32(record[headerSize:headerSize+4], MaxAttrs+1)
		if _, err := Decode(record); !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})
	t.Run("value length", func(t *testing.T) {
		record, err := Encode(GetAttrConfirm{Value: attr.String("a")})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		order.PutUint32(record[headerSize+NameMax+4:headerSize+NameMax+8], ValueMax+1)
		if _, err := Decode(record); !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})
	t.Run("int64 length", func(t *testing.T) {
		record, err := Encode(GetAttrConfirm{Value: attr.Int64(7)})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		order.PutUint32(record[headerSize+NameMax+4:headerSize+NameMax+8], 4)
		if _, err := Decode(record); !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})
}

func TestIsRequest(t *testing.T) {
	if !IsRequest(GetAttrRequest{}) || !IsRequest(GetAllAttrRequest{}) {
		t.Error("request variants not recognized")
	}
	if IsRequest(GetAttrConfirm{}) || IsRequest(GetAttrReject{}) || IsRequest(GetAllAttrConfirm{}) {
		t.Error("response variant reported as request")
	}
}
