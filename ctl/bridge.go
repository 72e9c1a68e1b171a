// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctl

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
)

// IsSensitive is the default sensitivity predicate: only the TLS
// private key is withheld.
func IsSensitive(name string) bool {
	return name == attr.TLSKey
}

// Bridge translates control requests into attribute store reads and
// builds the protocol responses.
type Bridge struct {
	store     attr.Store
	sensitive func(name string) bool
	logger    *slog.Logger
}

// NewBridge returns a Bridge reading from store. A nil sensitive
// predicate means IsSensitive; a nil logger discards.
func NewBridge(store attr.Store, sensitive func(name string) bool, logger *slog.Logger) *Bridge {
	if sensitive == nil {
		sensitive = IsSensitive
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{store: store, sensitive: sensitive, logger: logger}
}

// Handle answers a request message. It reports false for messages
// that are not requests.
func (b *Bridge) Handle(request ctlproto.Message) (ctlproto.Message, bool) {
	switch request := request.(type) {
	case ctlproto.GetAttrRequest:
		return b.GetAttr(request.Name), true
	case ctlproto.GetAllAttrRequest:
		return b.GetAllAttr(), true
	default:
		return nil, false
	}
}

// GetAttr answers a single attribute request with a GetAttrConfirm or
// a GetAttrReject. Sensitive attributes are rejected with EACCES
// without reading the store.
func (b *Bridge) GetAttr(name string) ctlproto.Message {
	if b.sensitive(name) {
		return ctlproto.GetAttrReject{Errno: unix.EACCES}
	}

	value, err := b.store.Get(name)
	if err != nil {
		return ctlproto.GetAttrReject{Errno: attr.Errno(err)}
	}
	if value.Len() > ctlproto.ValueMax {
		b.logger.Warn("attribute value exceeds protocol limit",
			"attribute", name,
			"length", value.Len(),
			"limit", ctlproto.ValueMax,
		)
		return ctlproto.GetAttrReject{Errno: unix.EOVERFLOW}
	}
	if err := value.Validate(); err != nil {
		b.logger.Warn("attribute store returned malformed value",
			"attribute", name,
			"error", err,
		)
		return ctlproto.GetAttrReject{Errno: unix.EINVAL}
	}
	return ctlproto.GetAttrConfirm{Value: value}
}

// GetAllAttr lists every non-sensitive attribute the store yields.
// Attributes whose name or value cannot be carried on the wire are
// left out. A store yielding more than ctlproto.MaxAttrs attributes
// is a programming error and panics.
func (b *Bridge) GetAllAttr() ctlproto.GetAllAttrConfirm {
	attrs := make([]ctlproto.Attr, 0, ctlproto.MaxAttrs)
	b.store.GetAll(func(name string, value attr.Value) {
		if b.sensitive(name) {
			return
		}
		if !ctlproto.ValidName(name) {
			b.logger.Warn("attribute name not representable, skipping",
				"attribute", name,
				"limit", ctlproto.NameMax-1,
			)
			return
		}
		if value.Len() > ctlproto.ValueMax || value.Validate() != nil {
			b.logger.Warn("attribute value not representable, skipping",
				"attribute", name,
				"type", value.Type,
				"length", value.Len(),
			)
			return
		}
		if len(attrs) == ctlproto.MaxAttrs {
			panic(fmt.Sprintf("ctl: attribute store yielded more than %d attributes", ctlproto.MaxAttrs))
		}
		attrs = append(attrs, ctlproto.Attr{Name: name, Value: value})
	})
	return ctlproto.GetAllAttrConfirm{Attrs: attrs}
}
