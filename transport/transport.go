// Copyright 2022 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package transport defines the framed byte-stream boundary the handshake
// driver and the reactor are built against. The actual network plumbing is
// an external collaborator; this package only fixes the interface and
// supplies an in-memory double for tests.
package transport

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/massa-labs/go-massa/massaerrs"
)

// Type identifies the wire transport a listener is reachable on.
type Type uint8

const (
	TypeTCP Type = iota
	TypeQUIC
)

func (t Type) String() string {
	switch t {
	case TypeTCP:
		return "tcp"
	case TypeQUIC:
		return "quic"
	default:
		return "unknown"
	}
}

// Endpoint is a framed, bidirectional byte-stream connection. Send and
// Receive each transfer exactly one logical frame, length-prefixed on the
// wire so a reader never has to guess a frame boundary.
type Endpoint interface {
	Send(frame []byte) error
	Receive() ([]byte, error)
	Close() error
}

// Conn adapts a net.Conn (or net.Pipe half) into an Endpoint using a
// 4-byte big-endian length prefix per frame.
type Conn struct {
	c net.Conn
}

// NewConn wraps c as a framed Endpoint.
func NewConn(c net.Conn) *Conn { return &Conn{c: c} }

func (e *Conn) Send(frame []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(frame)))
	if _, err := e.c.Write(hdr[:]); err != nil {
		return massaerrs.Transport(err, "writing frame header")
	}
	if _, err := e.c.Write(frame); err != nil {
		return massaerrs.Transport(err, "writing frame body")
	}
	return nil
}

func (e *Conn) Receive() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(e.c, hdr[:]); err != nil {
		return nil, massaerrs.Transport(err, "reading frame header")
	}
	n := binary.BigEndian.Uint32(hdr[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(e.c, buf); err != nil {
		return nil, massaerrs.Transport(err, "reading frame body")
	}
	return buf, nil
}

func (e *Conn) Close() error { return e.c.Close() }

// Pipe returns two in-memory Endpoints connected to each other, for
// handshake and reactor tests that need a real send/receive boundary
// without opening a socket.
func Pipe() (Endpoint, Endpoint) {
	a, b := net.Pipe()
	return NewConn(a), NewConn(b)
}
