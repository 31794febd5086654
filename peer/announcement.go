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
	"net/netip"
	"sort"

	"github.com/massa-labs/go-massa/codec"
	"github.com/massa-labs/go-massa/crypto"
	"github.com/massa-labs/go-massa/massaerrs"
	"github.com/massa-labs/go-massa/transport"
)

// Announcement is a peer's signed statement about where it can be reached
// at a given point in time. PublicKey travels alongside the hashed and
// signed fields (it is not itself part of the canonical form) so a
// verifier that only knows the claimed PeerId can both check the
// signature and confirm the key actually derives that id.
type Announcement struct {
	Listeners  Listeners
	RoutableIP *netip.Addr
	Timestamp  uint64
	Hash       [32]byte
	Signature  [crypto.SignatureLength]byte
	PublicKey  []byte
}

// canonicalBytes serializes (listeners, routable_ip, timestamp) — the part
// of the announcement that is hashed and signed, per the external
// interfaces' canonical form. Listener keys are sorted so the encoding
// does not depend on Go's randomized map iteration order.
func canonicalBytes(l Listeners, ip *netip.Addr, timestamp uint64) []byte {
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
	if ip != nil {
		buf = append(buf, 1)
		b := ip.As16()
		buf = append(buf, b[:]...)
	} else {
		buf = append(buf, 0)
	}
	buf = codec.PutUvarint(buf, timestamp)
	return buf
}

// NewAnnouncement builds and signs an announcement with kp's private key.
func NewAnnouncement(kp *crypto.KeyPair, listeners Listeners, routableIP *netip.Addr, timestamp uint64) (Announcement, error) {
	h := crypto.Hash(canonicalBytes(listeners, routableIP, timestamp))
	sig, err := kp.Sign(h)
	if err != nil {
		return Announcement{}, err
	}
	return Announcement{
		Listeners:  listeners,
		RoutableIP: routableIP,
		Timestamp:  timestamp,
		Hash:       h,
		Signature:  sig,
		PublicKey:  kp.PublicKey(),
	}, nil
}

// Verify checks that ann.Hash matches its own canonical form, that
// ann.PublicKey actually derives claimedID, and that ann.Signature is a
// valid signature by ann.PublicKey over ann.Hash.
func (ann Announcement) Verify(claimedID ID) bool {
	if crypto.PeerIDFromPublicKey(ann.PublicKey) != [32]byte(claimedID) {
		return false
	}
	if crypto.Hash(canonicalBytes(ann.Listeners, ann.RoutableIP, ann.Timestamp)) != ann.Hash {
		return false
	}
	return crypto.Verify(ann.PublicKey, ann.Hash, ann.Signature)
}

// EncodeAnnouncement serializes ann per the external interfaces' wire
// form: listeners_count(varint) || repeat{addr, tag} || optional(ip) ||
// timestamp(varint) || hash(32) || signature(64) || pubkey(varint-prefixed).
func EncodeAnnouncement(ann Announcement) []byte {
	buf := canonicalBytes(ann.Listeners, ann.RoutableIP, ann.Timestamp)
	buf = append(buf, ann.Hash[:]...)
	buf = append(buf, ann.Signature[:]...)
	buf = codec.PutUvarint(buf, uint64(len(ann.PublicKey)))
	buf = append(buf, ann.PublicKey...)
	return buf
}

// DecodeAnnouncement parses the wire form produced by EncodeAnnouncement.
// listenerBound caps listeners_count (max_size_listeners_per_peer).
func DecodeAnnouncement(buf []byte, listenerBound uint64) (Announcement, int, error) {
	start := len(buf)
	n, c, err := codec.UvarintBounded(buf, listenerBound)
	if err != nil {
		return Announcement{}, 0, err
	}
	buf = buf[c:]

	listeners := make(Listeners, n)
	for i := uint64(0); i < n; i++ {
		addr, c, err := codec.GetString(buf, 1<<16)
		if err != nil {
			return Announcement{}, 0, err
		}
		buf = buf[c:]
		if len(buf) == 0 {
			return Announcement{}, 0, massaerrs.CodecBounds("truncated announcement: missing transport tag")
		}
		listeners[addr] = transport.Type(buf[0])
		buf = buf[1:]
	}

	if len(buf) == 0 {
		return Announcement{}, 0, massaerrs.CodecBounds("truncated announcement: missing ip presence byte")
	}
	var routableIP *netip.Addr
	present := buf[0]
	buf = buf[1:]
	if present == 1 {
		if len(buf) < 16 {
			return Announcement{}, 0, massaerrs.CodecBounds("truncated announcement: missing routable ip")
		}
		var raw [16]byte
		copy(raw[:], buf[:16])
		buf = buf[16:]
		addr := netip.AddrFrom16(raw)
		routableIP = &addr
	}

	timestamp, c, err := codec.Uvarint(buf)
	if err != nil {
		return Announcement{}, 0, err
	}
	buf = buf[c:]

	if len(buf) < 32 {
		return Announcement{}, 0, massaerrs.CodecBounds("truncated announcement: missing hash")
	}
	var hash [32]byte
	copy(hash[:], buf[:32])
	buf = buf[32:]

	if len(buf) < crypto.SignatureLength {
		return Announcement{}, 0, massaerrs.CodecBounds("truncated announcement: missing signature")
	}
	var sig [crypto.SignatureLength]byte
	copy(sig[:], buf[:crypto.SignatureLength])
	buf = buf[crypto.SignatureLength:]

	pkLen, c, err := codec.UvarintBounded(buf, 256)
	if err != nil {
		return Announcement{}, 0, err
	}
	buf = buf[c:]
	if uint64(len(buf)) < pkLen {
		return Announcement{}, 0, massaerrs.CodecBounds("truncated announcement: missing public key")
	}
	pub := append([]byte{}, buf[:pkLen]...)
	buf = buf[pkLen:]

	ann := Announcement{Listeners: listeners, RoutableIP: routableIP, Timestamp: timestamp, Hash: hash, Signature: sig, PublicKey: pub}
	return ann, start - len(buf), nil
}
