// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package epoll is a level-triggered Linux epoll instance usable as a
// [regset.Multiplexer].
//
// A hosting process owns one Poller, hands it to the components that
// need readiness (as a regset.Multiplexer), and runs the wait loop
// itself:
//
//	poller, err := epoll.Open()
//	...
//	server, err := ctl.Create(socket, config) // registers through poller
//	for {
//		events, err := poller.Wait(250 * time.Millisecond)
//		...
//		if len(events) > 0 {
//			server.Process()
//		}
//	}
//
// The Poller only reports which descriptors are ready. It does not
// dispatch callbacks: the components that registered the descriptors
// drive their own non-blocking I/O when their owner calls them.
package epoll

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/regset"
)

// maxEvents bounds how many ready descriptors one Wait returns. Ready
// descriptors beyond it stay ready (level-triggered) and are reported
// by the next Wait.
const maxEvents = 64

// Event describes one ready descriptor.
type Event struct {
	FD       int
	Readable bool
	Writable bool

	// Hangup is set for EPOLLHUP and EPOLLERR. The descriptor's next
	// read or write reports the actual condition.
	Hangup bool
}

// Poller wraps an epoll file descriptor.
type Poller struct {
	fd     int
	events []unix.EpollEvent
}

var _ regset.Multiplexer = (*Poller)(nil)

// Open creates a close-on-exec epoll instance.
func Open() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &Poller{
		fd:     fd,
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

// FD returns the epoll descriptor itself, so the Poller can be nested
// in another multiplexer.
func (p *Poller) FD() int {
	return p.fd
}

func eventMask(interest regset.Interest) (uint32, error) {
	switch interest {
	case regset.Readable:
		return unix.EPOLLIN, nil
	case regset.Writable:
		return unix.EPOLLOUT, nil
	default:
		return 0, fmt.Errorf("unsupported interest %s", interest)
	}
}

// Add starts watching fd for interest.
func (p *Poller) Add(fd int, interest regset.Interest) error {
	return p.control(unix.EPOLL_CTL_ADD, fd, interest)
}

// Modify replaces the interest of an already watched fd.
func (p *Poller) Modify(fd int, interest regset.Interest) error {
	return p.control(unix.EPOLL_CTL_MOD, fd, interest)
}

func (p *Poller) control(operation, fd int, interest regset.Interest) error {
	mask, err := eventMask(interest)
	if err != nil {
		return err
	}
	event := unix.EpollEvent{Events: mask, Fd: int32(fd)}
	if err := unix.EpollCtl(p.fd, operation, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl(%d) fd %d: %w", operation, fd, err)
	}
	return nil
}

// Remove stops watching fd.
func (p *Poller) Remove(fd int) error {
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll_ctl(DEL) fd %d: %w", fd, err)
	}
	return nil
}

// Wait blocks for at most timeout until at least one watched
// descriptor is ready. A negative timeout blocks indefinitely. An
// interrupted wait returns no events and no error. The returned slice
// is only valid until the next call.
func (p *Poller) Wait(timeout time.Duration) ([]Event, error) {
	milliseconds := -1
	if timeout >= 0 {
		milliseconds = int(timeout / time.Millisecond)
	}

	count, err := unix.EpollWait(p.fd, p.events, milliseconds)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("epoll_wait: %w", err)
	}

	ready := make([]Event, 0, count)
	for _, raw := range p.events[:count] {
		ready = append(ready, Event{
			FD:       int(raw.Fd),
			Readable: raw.Events&unix.EPOLLIN != 0,
			Writable: raw.Events&unix.EPOLLOUT != 0,
			Hangup:   raw.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0,
		})
	}
	return ready, nil
}

// Close releases the epoll descriptor. Watched descriptors are not
// closed.
func (p *Poller) Close() error {
	return unix.Close(p.fd)
}
