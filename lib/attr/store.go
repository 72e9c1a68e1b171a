// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attr defines socket attributes: typed name/value pairs a
// socket exposes for introspection, and the Store interface through
// which the control channel reads them.
//
// Attribute names are hierarchical strings ("xcm.type",
// "tcp.rtt", "tls.cert_fingerprint"). Values carry one of five types
// (see [Type]) in their wire representation, so the control channel
// copies them into protocol records without knowing what they mean.
//
// [Registry] is the Store implementation hosting sockets use: a set of
// named getters evaluated on every read, so counters and addresses are
// always current.
package attr

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

// TLSKey names the TLS private key attribute. Its value must never be
// disclosed over the control channel.
const TLSKey = "tls.key"

var (
	// ErrNotFound is returned for attribute names the store does not
	// know.
	ErrNotFound = errors.New("attribute not found")

	// ErrPermission is returned for attributes that exist but may not
	// be read (write-only attributes).
	ErrPermission = errors.New("attribute not readable")

	// ErrOverflow is returned when a value does not fit the caller's
	// bound.
	ErrOverflow = errors.New("attribute value too large")
)

// Store is the read side of a socket's attribute map.
type Store interface {
	// Get returns the current value of the named attribute.
	Get(name string) (Value, error)

	// GetAll calls visit once for every readable attribute.
	GetAll(visit func(name string, value Value))
}

// Errno maps a Store error to the errno reported to control clients.
// A unix.Errno anywhere in the chain is passed through.
func Errno(err error) unix.Errno {
	var errno unix.Errno
	switch {
	case err == nil:
		return 0
	case errors.As(err, &errno):
		return errno
	case errors.Is(err, ErrNotFound):
		return unix.ENOENT
	case errors.Is(err, ErrPermission):
		return unix.EACCES
	case errors.Is(err, ErrOverflow):
		return unix.EOVERFLOW
	default:
		return unix.EINVAL
	}
}

// Getter produces the current value of one attribute.
type Getter func() (Value, error)

// Registry is a Store backed by named getters. It is safe for
// concurrent use: hosts may register attributes from one goroutine
// while the control channel reads them from another.
type Registry struct {
	mu      sync.RWMutex
	getters map[string]Getter
}

var _ Store = (*Registry)(nil)

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{getters: make(map[string]Getter)}
}

// Register adds a named getter. Panics if name is empty or already
// registered.
func (r *Registry) Register(name string, getter Getter) {
	if name == "" {
		panic("attr.Registry: empty attribute name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.getters[name]; exists {
		panic(fmt.Sprintf("attr.Registry: duplicate attribute %q", name))
	}
	r.getters[name] = getter
}

// Replace registers a named getter, discarding any getter or static
// value already registered under name. Panics if name is empty.
func (r *Registry) Replace(name string, getter Getter) {
	if name == "" {
		panic("attr.Registry: empty attribute name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getters[name] = getter
}

// Set registers or replaces a static value.
func (r *Registry) Set(name string, value Value) {
	r.Replace(name, func() (Value, error) { return value, nil })
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.getters[name]
	return exists
}

// Unregister removes an attribute. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.getters, name)
}

// Len returns the number of registered attributes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.getters)
}

// Get evaluates the named getter.
func (r *Registry) Get(name string) (Value, error) {
	r.mu.RLock()
	getter, exists := r.getters[name]
	r.mu.RUnlock()
	if !exists {
		return Value{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return getter()
}

// GetAll visits every attribute whose getter succeeds, in name order.
// Getters that fail (write-only attributes, values that are not
// currently available) are skipped.
func (r *Registry) GetAll(visit func(name string, value Value)) {
	r.mu.RLock()
	names := make([]string, 0, len(r.getters))
	getters := make(map[string]Getter, len(r.getters))
	for name, getter := range r.getters {
		names = append(names, name)
		getters[name] = getter
	}
	r.mu.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		value, err := getters[name]()
		if err != nil {
			continue
		}
		visit(name, value)
	}
}
