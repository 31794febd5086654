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

import (
	"sort"

	"github.com/golang/snappy"

	"github.com/massa-labs/go-massa/codec"
	"github.com/massa-labs/go-massa/massaerrs"
	"github.com/massa-labs/go-massa/transport"
)

// snappyThreshold is the encoded-body size above which a ListPeers payload
// is snappy-compressed before being put on the wire.
const snappyThreshold = 256

// Message ids on the peer-management wire, prefixed to every inbound frame
// the reactor receives.
const (
	MsgListPeers        = 6
	MsgNewPeerConnected = 7
	MsgBanNotice        = 8
)

// EncodeListeners serializes a Listeners map deterministically (sorted by
// address), matching the form embedded in announcements.
func EncodeListeners(l Listeners) []byte {
	addrs := make([]string, 0, len(l))
	for addr := range l {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	buf := codec.PutUvarint(nil, uint64(len(addrs)))
	for _, addr := range addrs {
		buf = codec.PutString(buf, addr)
		buf = append(buf, byte(l[addr]))
	}
	return buf
}

// DecodeListeners parses the form produced by EncodeListeners, bounded by
// maxListeners (max_size_listeners_per_peer).
func DecodeListeners(buf []byte, maxListeners uint64) (Listeners, int, error) {
	start := len(buf)
	n, c, err := codec.UvarintBounded(buf, maxListeners)
	if err != nil {
		return nil, 0, err
	}
	buf = buf[c:]
	out := make(Listeners, n)
	for i := uint64(0); i < n; i++ {
		addr, c, err := codec.GetString(buf, 1<<16)
		if err != nil {
			return nil, 0, err
		}
		buf = buf[c:]
		if len(buf) == 0 {
			return nil, 0, massaerrs.CodecBounds("truncated listeners: missing transport tag")
		}
		out[addr] = transport.Type(buf[0])
		buf = buf[1:]
	}
	return out, start - len(buf), nil
}

// PeerListeners pairs a peer id with the listeners announced for it, the
// payload shape of one ListPeers entry.
type PeerListeners struct {
	ID        ID
	Listeners Listeners
}

// EncodeListPeers serializes a ListPeers message body (without the id=6
// prefix, which the caller's framing adds).
func EncodeListPeers(peers []PeerListeners) []byte {
	buf := codec.PutUvarint(nil, uint64(len(peers)))
	for _, p := range peers {
		buf = append(buf, p.ID[:]...)
		buf = append(buf, EncodeListeners(p.Listeners)...)
	}
	return buf
}

// DecodeListPeers parses a ListPeers message body, bounded by
// maxPeers (max_size_peers_announcement) and maxListeners
// (max_size_listeners_per_peer).
func DecodeListPeers(buf []byte, maxPeers, maxListeners uint64) ([]PeerListeners, error) {
	n, c, err := codec.UvarintBounded(buf, maxPeers)
	if err != nil {
		return nil, err
	}
	buf = buf[c:]
	out := make([]PeerListeners, 0, n)
	for i := uint64(0); i < n; i++ {
		if len(buf) < IDLength {
			return nil, massaerrs.CodecBounds("truncated ListPeers entry: missing peer id")
		}
		var id ID
		copy(id[:], buf[:IDLength])
		buf = buf[IDLength:]
		listeners, c, err := DecodeListeners(buf, maxListeners)
		if err != nil {
			return nil, err
		}
		buf = buf[c:]
		out = append(out, PeerListeners{ID: id, Listeners: listeners})
	}
	if len(buf) != 0 {
		return nil, massaerrs.CodecTrailing("%d unconsumed bytes after ListPeers body", len(buf))
	}
	return out, nil
}

// EncodeListPeersFrame wraps EncodeListPeers with a one-byte compression
// flag, snappy-compressing the body once it exceeds snappyThreshold.
func EncodeListPeersFrame(peers []PeerListeners) []byte {
	raw := EncodeListPeers(peers)
	if len(raw) <= snappyThreshold {
		return append([]byte{0}, raw...)
	}
	return append([]byte{1}, snappy.Encode(nil, raw)...)
}

// DecodeListPeersFrame reverses EncodeListPeersFrame before delegating to
// DecodeListPeers.
func DecodeListPeersFrame(buf []byte, maxPeers, maxListeners uint64) ([]PeerListeners, error) {
	if len(buf) == 0 {
		return nil, massaerrs.CodecBounds("empty ListPeers frame: missing compression flag")
	}
	flag, body := buf[0], buf[1:]
	switch flag {
	case 0:
		return DecodeListPeers(body, maxPeers, maxListeners)
	case 1:
		raw, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, massaerrs.CodecBounds("snappy decode failed: %v", err)
		}
		return DecodeListPeers(raw, maxPeers, maxListeners)
	default:
		return nil, massaerrs.CodecBounds("unknown ListPeers compression flag %d", flag)
	}
}

// EncodeNewPeerConnected serializes a NewPeerConnected message body.
func EncodeNewPeerConnected(id ID, listeners Listeners) []byte {
	buf := append([]byte{}, id[:]...)
	return append(buf, EncodeListeners(listeners)...)
}

// DecodeNewPeerConnected parses a NewPeerConnected message body.
func DecodeNewPeerConnected(buf []byte, maxListeners uint64) (ID, Listeners, error) {
	if len(buf) < IDLength {
		return ID{}, nil, massaerrs.CodecBounds("truncated NewPeerConnected: missing peer id")
	}
	var id ID
	copy(id[:], buf[:IDLength])
	buf = buf[IDLength:]
	listeners, c, err := DecodeListeners(buf, maxListeners)
	if err != nil {
		return ID{}, nil, err
	}
	buf = buf[c:]
	if len(buf) != 0 {
		return ID{}, nil, massaerrs.CodecTrailing("%d unconsumed bytes after NewPeerConnected body", len(buf))
	}
	return id, listeners, nil
}

// EncodeBanNotice serializes a BanNotice message body.
func EncodeBanNotice(id ID) []byte {
	return append([]byte{}, id[:]...)
}

// DecodeBanNotice parses a BanNotice message body.
func DecodeBanNotice(buf []byte) (ID, error) {
	if len(buf) != IDLength {
		return ID{}, massaerrs.CodecBounds("BanNotice body must be exactly %d bytes, got %d", IDLength, len(buf))
	}
	var id ID
	copy(id[:], buf)
	return id, nil
}
