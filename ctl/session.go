// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctl

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
	"github.com/bureau-foundation/xcmctl/lib/netutil"
	"github.com/bureau-foundation/xcmctl/lib/regset"
)

var (
	errPeerClosed = errors.New("peer closed connection")
	errMalformed  = errors.New("malformed request")
	errShortWrite = errors.New("short write")
)

// session is one connected control client.
//
// Invariant: while pending is false the descriptor is registered
// readable and response holds nothing meaningful; while pending is
// true it is registered writable and response holds exactly one
// encoded record.
type session struct {
	fd       int
	key      SessionKey
	pending  bool
	response []byte
	accepted time.Time
	requests uint64
}

// advance performs one step of the session: a receive if no response
// is pending, a send otherwise. A nil return with no state change
// means the operation would have blocked. Any error is fatal for the
// session.
func (s *Server) advance(current *session) error {
	if current.pending {
		return s.send(current)
	}
	return s.receive(current)
}

func (s *Server) receive(current *session) error {
	length, err := unix.Read(current.fd, s.readBuffer)
	if err != nil {
		if netutil.IsWouldBlock(err) {
			return nil
		}
		return err
	}
	if length == 0 {
		return errPeerClosed
	}

	request, err := ctlproto.Decode(s.readBuffer[:length])
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	response, ok := s.bridge.Handle(request)
	if !ok {
		return fmt.Errorf("%w: unexpected %s from client", errMalformed, request.Type())
	}
	if err := ctlproto.EncodeTo(current.response, response); err != nil {
		panic(fmt.Sprintf("ctl: encoding %s: %v", response.Type(), err))
	}

	current.requests++
	s.metrics.requestAnswered(request, response)
	s.logger.Debug("control request answered",
		"session", current.key,
		"request", request.Type(),
		"response", response.Type(),
	)

	current.pending = true
	s.registrations.Modify(current.fd, regset.Writable)
	return nil
}

func (s *Server) send(current *session) error {
	written, err := s.sendRecord(current.fd, current.response)
	if err != nil {
		if netutil.IsWouldBlock(err) {
			return nil
		}
		return err
	}
	// SEQPACKET sends are all or nothing, so a partial count means the
	// peer's view of the record stream is already broken.
	if written != len(current.response) {
		return fmt.Errorf("%w: %d of %d bytes", errShortWrite, written, len(current.response))
	}

	current.pending = false
	s.registrations.Modify(current.fd, regset.Readable)
	return nil
}

// removalReason classifies a session failure for metrics.
func removalReason(err error) string {
	switch {
	case errors.Is(err, errPeerClosed), netutil.IsExpectedCloseError(err):
		return reasonPeerClosed
	case errors.Is(err, errMalformed):
		return reasonMalformed
	case errors.Is(err, errShortWrite):
		return reasonShortWrite
	default:
		return reasonIOError
	}
}
