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

// Package peer implements the peer database, the announcement/listener
// wire messages, and the concurrent reactor that keeps the database in
// sync with an active connection set.
package peer

import (
	"encoding/hex"

	"github.com/massa-labs/go-massa/transport"
)

// IDLength is the size in bytes of a peer identity on the wire.
const IDLength = 32

// ID is a node's wire identity, derived from its public key.
type ID [IDLength]byte

func (id ID) String() string { return hex.EncodeToString(id[:]) }

// State classifies a peer's current standing. Unknown is a transient
// zero value used only for peers with no PeerInfo entry yet; it must
// never be reported by the admin API or serialized to the wire.
type State int

const (
	Unknown State = iota
	Trusted
	InHandshake
	HandshakeFailed
	Banned
)

func (s State) String() string {
	switch s {
	case Trusted:
		return "trusted"
	case InHandshake:
		return "in-handshake"
	case HandshakeFailed:
		return "handshake-failed"
	case Banned:
		return "banned"
	default:
		return "unknown"
	}
}

// Listeners maps a dialable "host:port" address to the transport it is
// reachable on.
type Listeners map[string]transport.Type

// Info is everything the peer DB tracks about one peer.
type Info struct {
	LastAnnounce Announcement
	State        State
}
