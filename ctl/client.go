// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
)

// RejectError is returned by Client.GetAttr when the server answers
// with a rejection. It unwraps to the errno, so
// errors.Is(err, unix.ENOENT) tests for a missing attribute.
type RejectError struct {
	Name  string
	Errno unix.Errno
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("attribute %q: %v", e.Name, e.Errno)
}

func (e *RejectError) Unwrap() error {
	return e.Errno
}

// ErrUnexpectedResponse is returned when the server answers with a
// message type that does not match the request.
var ErrUnexpectedResponse = errors.New("ctl: unexpected response")

// Client is a blocking control channel client. One request is in
// flight at a time; a Client is not safe for concurrent use.
type Client struct {
	conn    *net.UnixConn
	timeout time.Duration
	buffer  []byte
}

// Dial connects to the control socket at path. A positive timeout
// bounds the connect and every later request.
func Dial(path string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("unixpacket", path)
	if err != nil {
		return nil, fmt.Errorf("connecting to control socket %s: %w", path, err)
	}
	return &Client{
		conn:    conn.(*net.UnixConn),
		timeout: timeout,
		buffer:  make([]byte, ctlproto.MessageSize+1),
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetAttr reads one attribute. A rejection is returned as a
// *RejectError.
func (c *Client) GetAttr(name string) (attr.Value, error) {
	if !ctlproto.ValidName(name) {
		return attr.Value{}, fmt.Errorf("%w: %q", ctlproto.ErrNameTooLong, name)
	}
	response, err := c.roundTrip(ctlproto.GetAttrRequest{Name: name})
	if err != nil {
		return attr.Value{}, err
	}
	switch response := response.(type) {
	case ctlproto.GetAttrConfirm:
		return response.Value, nil
	case ctlproto.GetAttrReject:
		return attr.Value{}, &RejectError{Name: name, Errno: response.Errno}
	default:
		return attr.Value{}, fmt.Errorf("%w: %s to get_attr_req", ErrUnexpectedResponse, response.Type())
	}
}

// GetAllAttr lists every attribute the server discloses.
func (c *Client) GetAllAttr() ([]ctlproto.Attr, error) {
	response, err := c.roundTrip(ctlproto.GetAllAttrRequest{})
	if err != nil {
		return nil, err
	}
	confirm, ok := response.(ctlproto.GetAllAttrConfirm)
	if !ok {
		return nil, fmt.Errorf("%w: %s to get_all_attr_req", ErrUnexpectedResponse, response.Type())
	}
	return confirm.Attrs, nil
}

func (c *Client) roundTrip(request ctlproto.Message) (ctlproto.Message, error) {
	encoded, err := ctlproto.Encode(request)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("setting deadline: %w", err)
		}
	}

	if _, err := c.conn.Write(encoded); err != nil {
		return nil, fmt.Errorf("sending %s: %w", request.Type(), err)
	}

	length, err := c.conn.Read(c.buffer)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading response to %s: server closed connection: %w", request.Type(), err)
		}
		return nil, fmt.Errorf("reading response to %s: %w", request.Type(), err)
	}

	response, err := ctlproto.Decode(c.buffer[:length])
	if err != nil {
		return nil, fmt.Errorf("decoding response to %s: %w", request.Type(), err)
	}
	return response, nil
}
