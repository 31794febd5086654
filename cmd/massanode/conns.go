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

package main

import (
	"sync"

	"github.com/massa-labs/go-massa/massaerrs"
	"github.com/massa-labs/go-massa/peer"
	"github.com/massa-labs/go-massa/transport"
)

// connTable is the live peer.Connections implementation: a registry of
// established transport.Endpoints keyed by peer id, filled in by the
// accept and dial loops as handshakes complete.
type connTable struct {
	mu    sync.Mutex
	conns map[peer.ID]transport.Endpoint
}

func newConnTable() *connTable {
	return &connTable{conns: make(map[peer.ID]transport.Endpoint)}
}

func (t *connTable) register(id peer.ID, ep transport.Endpoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[id] = ep
}

func (t *connTable) remove(id peer.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, id)
}

// Send writes body to id's endpoint. body already carries msgID as its
// first byte (every caller in package peer builds it that way); the
// duplicated msgID parameter exists only to satisfy peer.Connections.
func (t *connTable) Send(id peer.ID, msgID byte, body []byte) error {
	t.mu.Lock()
	ep, ok := t.conns[id]
	t.mu.Unlock()
	if !ok {
		return massaerrs.Transport(nil, "not connected to peer %s", id)
	}
	return ep.Send(body)
}

func (t *connTable) Connected() []peer.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]peer.ID, 0, len(t.conns))
	for id := range t.conns {
		ids = append(ids, id)
	}
	return ids
}

func (t *connTable) Disconnect(id peer.ID) error {
	t.mu.Lock()
	ep, ok := t.conns[id]
	delete(t.conns, id)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return ep.Close()
}
