// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctl

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/clock"
	"github.com/bureau-foundation/xcmctl/lib/ctlpath"
	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
	"github.com/bureau-foundation/xcmctl/lib/netutil"
	"github.com/bureau-foundation/xcmctl/lib/regset"
)

// DefaultMaxClients is the session capacity when Config.MaxClients is
// zero.
const DefaultMaxClients = 2

// listenBacklog is the kernel accept queue length of the control
// socket.
const listenBacklog = 2

// Socket is the hosting socket a control server introspects. The
// server borrows all three for its lifetime.
type Socket interface {
	// ID is the process-unique id used in the control socket name.
	ID() int64

	// Attributes is the store control requests read from.
	Attributes() attr.Store

	// Multiplexer is the I/O multiplexer the hosting socket waits on.
	Multiplexer() regset.Multiplexer
}

// Config controls server creation.
type Config struct {
	// Directory holds the control socket. Empty means
	// ctlpath.Directory(""): the XCM_CTL environment variable, else
	// /run/xcm/ctl.
	Directory string

	// PID names the control socket. Zero means os.Getpid().
	PID int

	// MaxClients bounds concurrent sessions. Zero means
	// DefaultMaxClients.
	MaxClients int

	// Sensitive reports attributes that are never disclosed. Nil means
	// IsSensitive.
	Sensitive func(name string) bool

	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *Metrics
}

// SessionKey identifies one client session for its whole life. Slot
// indexes are reused; the generation is incremented every time a slot
// is released, so keys are never reused.
type SessionKey struct {
	Slot       int
	Generation uint64
}

// LogValue renders the key as "slot.generation".
func (k SessionKey) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("%d.%d", k.Slot, k.Generation))
}

type slot struct {
	session    *session
	generation uint64
}

// Server is a control channel server. It is not safe for concurrent
// use: Process and Destroy must be called from the goroutine that
// drives the hosting socket.
type Server struct {
	registrations *regset.Set
	bridge        *Bridge
	logger        *slog.Logger
	clock         clock.Clock
	metrics       *Metrics

	listenFD int
	path     string

	slots []slot
	count int

	// readBuffer is one byte larger than a record so an oversized
	// record is seen as such rather than silently truncated.
	readBuffer []byte

	// accept and sendRecord are the two syscalls whose failure modes a
	// live socket pair cannot produce on demand.
	accept     func(listenFD int) (int, error)
	sendRecord func(fd int, record []byte) (int, error)
}

func acceptNonblocking(listenFD int) (int, error) {
	fd, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	return fd, err
}

func sendNoSignal(fd int, record []byte) (int, error) {
	return unix.SendmsgN(fd, record, nil, nil, unix.MSG_NOSIGNAL)
}

// Create binds a control socket for the given hosting socket and
// registers it with the socket's multiplexer. On error nothing is left
// behind: no descriptor, no socket file, no registration.
func Create(socket Socket, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	directory := config.Directory
	if directory == "" {
		directory = ctlpath.Directory("")
	}
	pid := config.PID
	if pid == 0 {
		pid = os.Getpid()
	}
	maxClients := config.MaxClients
	if maxClients == 0 {
		maxClients = DefaultMaxClients
	}
	if maxClients < 0 {
		return nil, fmt.Errorf("creating control server: max clients must be positive, got %d", maxClients)
	}
	serverClock := config.Clock
	if serverClock == nil {
		serverClock = clock.Real()
	}

	if err := ctlpath.ValidateDirectory(directory); err != nil {
		logger.Error("control directory unusable", "directory", directory, "error", err)
		return nil, fmt.Errorf("creating control server: %w", err)
	}

	path, err := ctlpath.Derive(directory, pid, socket.ID())
	if err != nil {
		logger.Error("control socket path unusable", "directory", directory, "socket_id", socket.ID(), "error", err)
		return nil, fmt.Errorf("creating control server: %w", err)
	}

	listenFD, err := listen(path)
	if err != nil {
		logger.Error("control socket setup failed", "path", path, "error", err)
		return nil, err
	}

	server := &Server{
		registrations: regset.New(socket.Multiplexer()),
		bridge:        NewBridge(socket.Attributes(), config.Sensitive, logger),
		logger:        logger.With("socket_id", socket.ID()),
		clock:         serverClock,
		metrics:       config.Metrics,
		listenFD:      listenFD,
		path:          path,
		slots:         make([]slot, maxClients),
		readBuffer:    make([]byte, ctlproto.MessageSize+1),
		accept:        acceptNonblocking,
		sendRecord:    sendNoSignal,
	}
	server.registrations.Add(listenFD, regset.Readable)

	server.logger.Debug("control server listening",
		"path", path,
		"max_clients", maxClients,
	)
	return server, nil
}

// listen removes any stale file at path and returns a non-blocking
// listening SOCK_SEQPACKET socket bound there.
func listen(path string) (int, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return -1, fmt.Errorf("removing stale control socket %s: %w", path, err)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("creating control socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("binding control socket %s: %w", path, err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		os.Remove(path)
		return -1, fmt.Errorf("listening on control socket %s: %w", path, err)
	}
	return fd, nil
}

// Path returns the filesystem path the server is bound to, or "" for
// a nil server.
func (s *Server) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	if s == nil {
		return 0
	}
	return s.count
}

// MaxClients returns the session capacity.
func (s *Server) MaxClients() int {
	if s == nil {
		return 0
	}
	return len(s.slots)
}

// Sessions returns the keys of the open sessions in slot order.
func (s *Server) Sessions() []SessionKey {
	if s == nil {
		return nil
	}
	keys := make([]SessionKey, 0, s.count)
	for _, entry := range s.slots {
		if entry.session != nil {
			keys = append(keys, entry.session.key)
		}
	}
	return keys
}

// Process advances the server by one step. Every open session gets
// one attempt at its pending read or write, in slot order, and then at
// most one new connection is accepted. Process never blocks; an
// operation that would block is retried on the next call.
//
// Process on a destroyed server does nothing.
func (s *Server) Process() {
	if s == nil || s.listenFD < 0 {
		return
	}

	for index := range s.slots {
		current := s.slots[index].session
		if current == nil {
			continue
		}
		if err := s.advance(current); err != nil {
			s.removeSession(index, err)
		}
	}

	if s.count < len(s.slots) {
		s.acceptOne()
	}
}

// acceptOne accepts at most one pending connection into a free slot.
func (s *Server) acceptOne() {
	fd, err := s.accept(s.listenFD)
	if err != nil {
		if netutil.IsWouldBlock(err) || errors.Is(err, unix.ECONNABORTED) {
			return
		}
		s.logger.Warn("accepting control connection failed", "error", err)
		return
	}

	index := s.freeSlot()
	if index < 0 {
		panic(fmt.Sprintf("ctl: accepted with %d of %d slots in use", s.count, len(s.slots)))
	}

	accepted := &session{
		fd:       fd,
		key:      SessionKey{Slot: index, Generation: s.slots[index].generation},
		response: make([]byte, ctlproto.MessageSize),
		accepted: s.clock.Now(),
	}
	s.slots[index].session = accepted
	s.count++
	s.registrations.Add(fd, regset.Readable)
	s.updateListener()
	s.metrics.sessionAccepted()

	attrs := []any{"session", accepted.key, "sessions", s.count}
	if peer, err := netutil.ReadPeerCredentials(fd); err == nil {
		attrs = append(attrs, "peer", peer)
	}
	s.logger.Debug("control client connected", attrs...)
}

func (s *Server) freeSlot() int {
	for index := range s.slots {
		if s.slots[index].session == nil {
			return index
		}
	}
	return -1
}

// updateListener keeps the listening socket registered exactly while
// a slot is free.
func (s *Server) updateListener() {
	if s.count < len(s.slots) {
		s.registrations.Add(s.listenFD, regset.Readable)
	} else {
		s.registrations.Remove(s.listenFD)
	}
}

// removeSession closes the session in slot index after a failure and
// releases the slot.
func (s *Server) removeSession(index int, cause error) {
	removed := s.slots[index].session
	reason := removalReason(cause)
	fields := []any{
		"session", removed.key,
		"reason", reason,
		"age", clock.Since(s.clock, removed.accepted),
		"requests", removed.requests,
		"error", cause,
	}
	if errors.Is(cause, errPeerClosed) || netutil.IsExpectedCloseError(cause) {
		s.logger.Debug("control client disconnected", fields...)
	} else {
		s.logger.Warn("control session terminated", fields...)
	}
	s.release(index, reason)
}

func (s *Server) release(index int, reason string) {
	released := s.slots[index].session
	s.registrations.Remove(released.fd)
	unix.Close(released.fd)
	released.fd = -1

	s.slots[index].session = nil
	s.slots[index].generation++
	s.count--
	s.metrics.sessionRemoved(reason)

	if s.listenFD >= 0 {
		s.updateListener()
	}
}

// Destroy closes every session and the listening socket and removes
// all registrations. If owner is true the socket file is unlinked as
// well; a process that inherited the descriptor across fork passes
// false so the parent's socket survives. Destroy on a nil or already
// destroyed server does nothing.
func (s *Server) Destroy(owner bool) {
	if s == nil || s.listenFD < 0 {
		return
	}

	listenFD := s.listenFD
	s.listenFD = -1

	for index := range s.slots {
		if s.slots[index].session != nil {
			s.release(index, reasonTeardown)
		}
	}

	boundPath := boundPath(listenFD)
	s.registrations.Remove(listenFD)
	unix.Close(listenFD)

	if owner && boundPath != "" {
		if err := os.Remove(boundPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("removing control socket file failed", "path", boundPath, "error", err)
		}
	}
	s.logger.Debug("control server destroyed", "path", s.path, "owner", owner)
}

// boundPath returns the filesystem address of a bound Unix socket, or
// "" if it cannot be determined.
func boundPath(fd int) string {
	address, err := unix.Getsockname(fd)
	if err != nil {
		return ""
	}
	unixAddress, ok := address.(*unix.SockaddrUnix)
	if !ok {
		return ""
	}
	return unixAddress.Name
}
