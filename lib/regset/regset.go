// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package regset tracks which file descriptors a component has asked a
// shared I/O multiplexer to watch, and for which condition.
//
// The multiplexer itself (an epoll instance, typically) is owned by
// someone else: the hosting socket, or the process event loop. A
// component that wants readiness notifications builds a [Set] on top
// of it and expresses intent with [Set.Add], [Set.Modify] and
// [Set.Remove]. The Set remembers the current interest of every fd it
// registered, so callers can state the interest they want without
// first checking what is already registered, and the multiplexer only
// sees the calls that change something.
//
// Multiplexer errors are not returned. A failing epoll_ctl on an fd
// the Set itself is tracking means the registration table and the
// kernel disagree, which is a programming error, so the Set panics.
package regset

import (
	"fmt"
	"sort"
)

// Interest is the readiness condition a descriptor is watched for.
type Interest uint8

const (
	// Readable asks for notification when a read (or accept) will
	// not block.
	Readable Interest = 1 << iota

	// Writable asks for notification when a write will not block.
	Writable
)

// String returns "readable" or "writable".
func (i Interest) String() string {
	switch i {
	case Readable:
		return "readable"
	case Writable:
		return "writable"
	default:
		return fmt.Sprintf("interest(%d)", uint8(i))
	}
}

// Multiplexer is the registration side of an externally owned I/O
// multiplexer. Implementations never wait; waiting belongs to whoever
// owns the multiplexer.
type Multiplexer interface {
	Add(fd int, interest Interest) error
	Modify(fd int, interest Interest) error
	Remove(fd int) error
}

// Set is the per-component registration table. It is not safe for
// concurrent use; it lives on the goroutine that drives its owner.
type Set struct {
	multiplexer Multiplexer
	registered  map[int]Interest
}

// New returns an empty Set that forwards changes to multiplexer.
func New(multiplexer Multiplexer) *Set {
	return &Set{
		multiplexer: multiplexer,
		registered:  make(map[int]Interest),
	}
}

// Add registers fd with the given interest. Adding an fd that is
// already registered with the same interest does nothing; adding it
// with a different interest behaves like Modify.
func (s *Set) Add(fd int, interest Interest) {
	current, exists := s.registered[fd]
	if exists {
		if current != interest {
			s.modify(fd, interest)
		}
		return
	}

	if err := s.multiplexer.Add(fd, interest); err != nil {
		panic(fmt.Sprintf("regset: adding fd %d for %s: %v", fd, interest, err))
	}
	s.registered[fd] = interest
}

// Modify changes the interest of fd. An fd that is not registered yet
// is added.
func (s *Set) Modify(fd int, interest Interest) {
	current, exists := s.registered[fd]
	if !exists {
		s.Add(fd, interest)
		return
	}
	if current == interest {
		return
	}
	s.modify(fd, interest)
}

func (s *Set) modify(fd int, interest Interest) {
	if err := s.multiplexer.Modify(fd, interest); err != nil {
		panic(fmt.Sprintf("regset: modifying fd %d to %s: %v", fd, interest, err))
	}
	s.registered[fd] = interest
}

// Remove deregisters fd. Removing an fd that was never added, or was
// already removed, does nothing. Remove must be called before the fd
// is closed, since the kernel may recycle the number.
func (s *Set) Remove(fd int) {
	if _, exists := s.registered[fd]; !exists {
		return
	}
	if err := s.multiplexer.Remove(fd); err != nil {
		panic(fmt.Sprintf("regset: removing fd %d: %v", fd, err))
	}
	delete(s.registered, fd)
}

// Interest reports the current interest of fd and whether it is
// registered at all.
func (s *Set) Interest(fd int) (Interest, bool) {
	interest, exists := s.registered[fd]
	return interest, exists
}

// Len returns the number of registered descriptors.
func (s *Set) Len() int {
	return len(s.registered)
}

// Clear removes every registered descriptor, in ascending fd order.
func (s *Set) Clear() {
	fds := make([]int, 0, len(s.registered))
	for fd := range s.registered {
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	for _, fd := range fds {
		s.Remove(fd)
	}
}
