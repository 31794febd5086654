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

package peer

import "sync"

// EventKind classifies an observational reactor event, consumed only by
// the admin API's websocket stream. It never gates reactor logic.
type EventKind int

const (
	EventHandshakeSuccess EventKind = iota
	EventHandshakeFailed
	EventBanned
	EventUnbanned
)

func (k EventKind) String() string {
	switch k {
	case EventHandshakeSuccess:
		return "handshake_success"
	case EventHandshakeFailed:
		return "handshake_failed"
	case EventBanned:
		return "banned"
	case EventUnbanned:
		return "unbanned"
	default:
		return "unknown"
	}
}

// Event is one observational notice emitted by the reactor.
type Event struct {
	Kind EventKind
	ID   ID
}

// Broadcaster fans out events to any number of subscribers, dropping
// events for a slow subscriber rather than blocking the reactor.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new channel that receives every future event until
// Unsubscribe is called. The channel is buffered so a burst of events does
// not immediately drop on a merely-slow reader.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes ch.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish sends ev to every current subscriber, dropping it for any
// subscriber whose buffer is full.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
