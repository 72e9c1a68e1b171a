// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/xcmctl/ctl"
	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
	"github.com/bureau-foundation/xcmctl/lib/epoll"
	"github.com/bureau-foundation/xcmctl/lib/regset"
)

// DefaultPollInterval bounds one wait of the event loop when
// HostConfig.PollInterval is zero.
const DefaultPollInterval = 250 * time.Millisecond

// SessionsAttribute reports the number of open control sessions.
const SessionsAttribute = "ctl.sessions"

// ErrTooManyAttributes is returned when a registry holds more
// attributes than one get-all response can carry.
var ErrTooManyAttributes = errors.New("too many attributes")

// CheckAttributeCapacity verifies that registry, together with the
// SessionsAttribute every Host adds, fits in a single get-all response.
// The control server treats an oversized store as a programming error,
// so hosts check before the first client can ask.
func CheckAttributeCapacity(registry *attr.Registry) error {
	count := registry.Len()
	if !registry.Contains(SessionsAttribute) {
		count++
	}
	if count > ctlproto.MaxAttrs {
		return fmt.Errorf("%w: %d registered (including %s), at most %d",
			ErrTooManyAttributes, count, SessionsAttribute, ctlproto.MaxAttrs)
	}
	return nil
}

// HostConfig configures a Host.
type HostConfig struct {
	// SocketID names the control socket together with the pid.
	SocketID int64

	// Control configures the control server. A nil Control.Logger
	// inherits Logger.
	Control ctl.Config

	// PollInterval bounds one wait of the event loop, and so how long
	// Run takes to notice cancellation.
	PollInterval time.Duration

	Logger *slog.Logger
}

// Host owns an epoll instance and the control server registered with
// it. Everything happens on the goroutine calling Run; attributes may
// be registered from other goroutines.
type Host struct {
	id           int64
	attributes   *attr.Registry
	poller       *epoll.Poller
	server       *ctl.Server
	pollInterval time.Duration
	logger       *slog.Logger
}

var _ ctl.Socket = (*Host)(nil)

// NewHost creates the control server for a socket exposing attributes.
// It also registers SessionsAttribute, replacing any value of that name.
//
// attributes must pass CheckAttributeCapacity. Attributes registered
// after NewHost returns are the caller's responsibility.
func NewHost(config HostConfig, attributes *attr.Registry) (*Host, error) {
	if err := CheckAttributeCapacity(attributes); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pollInterval := config.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}

	poller, err := epoll.Open()
	if err != nil {
		return nil, fmt.Errorf("creating event loop: %w", err)
	}

	host := &Host{
		id:           config.SocketID,
		attributes:   attributes,
		poller:       poller,
		pollInterval: pollInterval,
		logger:       logger,
	}

	control := config.Control
	if control.Logger == nil {
		control.Logger = logger
	}
	server, err := ctl.Create(host, control)
	if err != nil {
		poller.Close()
		return nil, err
	}
	host.server = server

	attributes.Replace(SessionsAttribute, func() (attr.Value, error) {
		return attr.Int64(int64(server.SessionCount())), nil
	})
	return host, nil
}

// ID returns the socket id the control socket is named after.
func (h *Host) ID() int64 { return h.id }

// Attributes returns the registry control requests read from. It is
// the same registry passed to NewHost.
func (h *Host) Attributes() attr.Store { return h.attributes }

// Multiplexer returns the epoll instance Run waits on. The control
// server registers its listener and session descriptors here.
func (h *Host) Multiplexer() regset.Multiplexer { return h.poller }

// Server returns the control server.
func (h *Host) Server() *ctl.Server { return h.server }

// Run drives the control server until ctx is cancelled or the poller
// fails. It returns nil on cancellation.
//
// Wait is bounded by the poll interval rather than woken by ctx, so
// cancellation is noticed within one interval. Process runs only when
// the poller reported readiness; an idle host makes no syscalls beyond
// the wait itself.
func (h *Host) Run(ctx context.Context) error {
	h.logger.Info("control channel ready", "path", h.server.Path())
	for ctx.Err() == nil {
		events, err := h.poller.Wait(h.pollInterval)
		if err != nil {
			return err
		}
		if len(events) > 0 {
			h.server.Process()
		}
	}
	return nil
}

// Close destroys the control server and releases the epoll instance.
// owner is passed to ctl.Server.Destroy: a process that inherited the
// host across fork passes false so the parent's socket file survives.
//
// Call it after Run returns. SessionsAttribute is unregistered first so
// in-process readers never observe a count from a destroyed server.
func (h *Host) Close(owner bool) {
	h.attributes.Unregister(SessionsAttribute)
	h.server.Destroy(owner)
	if err := h.poller.Close(); err != nil {
		h.logger.Debug("closing event loop failed", "error", err)
	}
}
