// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctl

import (
	"errors"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
	"github.com/bureau-foundation/xcmctl/lib/epoll"
	"github.com/bureau-foundation/xcmctl/lib/testutil"
)

// eventLoop drives a server from a real epoll instance on its own
// goroutine, the way a hosting socket does.
type eventLoop struct {
	server *Server
	poller *epoll.Poller
	stop   chan struct{}
	done   chan struct{}
}

func startEventLoop(t *testing.T, store attr.Store, maxClients int) *eventLoop {
	t.Helper()
	poller, err := epoll.Open()
	if err != nil {
		t.Fatalf("epoll.Open: %v", err)
	}
	server, err := Create(testSocket{
		id:          testutil.NextSocketID(),
		store:       store,
		multiplexer: poller,
	}, Config{
		Directory:  testutil.SocketDir(t),
		MaxClients: maxClients,
	})
	if err != nil {
		poller.Close()
		t.Fatalf("Create: %v", err)
	}

	loop := &eventLoop{
		server: server,
		poller: poller,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go loop.run()
	t.Cleanup(func() {
		close(loop.stop)
		testutil.RequireClosed(t, loop.done, 5*time.Second, "event loop exit")
		server.Destroy(true)
		poller.Close()
	})
	return loop
}

func (l *eventLoop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		default:
		}
		events, err := l.poller.Wait(10 * time.Millisecond)
		if err != nil {
			return
		}
		if len(events) > 0 {
			l.server.Process()
		}
	}
}

func dialClient(t *testing.T, path string) *Client {
	t.Helper()
	client, err := Dial(path, 5*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClient_GetAttr(t *testing.T) {
	loop := startEventLoop(t, testRegistry(), 0)
	client := dialClient(t, loop.server.Path())

	value, err := client.GetAttr("xcm.type")
	if err != nil {
		t.Fatalf("GetAttr(xcm.type): %v", err)
	}
	if !value.Equal(attr.String("server")) {
		t.Errorf("xcm.type = %s, want server", value.Format())
	}

	_, err = client.GetAttr("nonexistent")
	if !errors.Is(err, unix.ENOENT) {
		t.Errorf("GetAttr(nonexistent) error = %v, want ENOENT", err)
	}
	var reject *RejectError
	if !errors.As(err, &reject) || reject.Name != "nonexistent" {
		t.Errorf("GetAttr(nonexistent) error = %#v, want *RejectError", err)
	}

	if _, err := client.GetAttr(attr.TLSKey); !errors.Is(err, unix.EACCES) {
		t.Errorf("GetAttr(%s) error = %v, want EACCES", attr.TLSKey, err)
	}

	if _, err := client.GetAttr(string(make([]byte, ctlproto.NameMax))); !errors.Is(err, ctlproto.ErrNameTooLong) {
		t.Errorf("GetAttr(long name) error = %v, want ErrNameTooLong", err)
	}

	// The connection survives rejections and client-side errors.
	if _, err := client.GetAttr("xcm.transport"); err != nil {
		t.Errorf("GetAttr after rejections: %v", err)
	}
}

func TestClient_GetAllAttr(t *testing.T) {
	loop := startEventLoop(t, testRegistry(), 0)
	client := dialClient(t, loop.server.Path())

	attrs, err := client.GetAllAttr()
	if err != nil {
		t.Fatalf("GetAllAttr: %v", err)
	}
	want := []ctlproto.Attr{
		{Name: "tcp.keepalive", Value: attr.Bool(true)},
		{Name: "xcm.local_addr", Value: attr.String("tls:127.0.0.1:4711")},
		{Name: "xcm.transport", Value: attr.String("tls")},
		{Name: "xcm.type", Value: attr.String("server")},
	}
	if diff := pretty.Compare(attrs, want); diff != "" {
		t.Errorf("GetAllAttr (-got +want):\n%s", diff)
	}
}

func TestClient_ThirdClientWaitsForSlot(t *testing.T) {
	loop := startEventLoop(t, testRegistry(), 2)
	path := loop.server.Path()

	first := dialClient(t, path)
	second := dialClient(t, path)
	for _, client := range []*Client{first, second} {
		if _, err := client.GetAttr("xcm.type"); err != nil {
			t.Fatalf("GetAttr: %v", err)
		}
	}

	third := dialClient(t, path)
	answered := make(chan error, 1)
	go func() {
		_, err := third.GetAttr("xcm.type")
		answered <- err
	}()

	select {
	case err := <-answered:
		t.Fatalf("third client answered while the table was full (err = %v)", err)
	case <-time.After(100 * time.Millisecond):
	}

	first.Close()
	if err := testutil.RequireReceive(t, answered, 5*time.Second, "third client response"); err != nil {
		t.Errorf("third client GetAttr: %v", err)
	}
}

func TestDial_NoServer(t *testing.T) {
	if _, err := Dial(testutil.SocketDir(t)+"/ctl-1-1", time.Second); err == nil {
		t.Error("Dial succeeded without a server")
	}
}
