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

package handshake

import (
	cryptorand "crypto/rand"
	"net/netip"
	"time"

	"github.com/massa-labs/go-massa/crypto"
	"github.com/massa-labs/go-massa/log"
	"github.com/massa-labs/go-massa/massaerrs"
	"github.com/massa-labs/go-massa/peer"
	"github.com/massa-labs/go-massa/transport"
)

const (
	tagAnnounce = 0
	tagDecline  = 1
)

// Config bundles everything Run needs to execute one connection's
// handshake.
type Config struct {
	Self           *crypto.KeyPair
	SelfVersion    Version
	SelfListeners  peer.Listeners
	SelfRoutableIP *netip.Addr
	Endpoint       transport.Endpoint
	DB             *peer.DB
	Inbound        chan<- peer.InboundMessage
	Sample         func(n int) []peer.PeerListeners
	ListenerBound  uint64 // max_size_listeners_per_peer
}

var logger = log.New("component", "handshake")

// Run executes the full wire sequence over cfg.Endpoint and returns the
// remote peer's id on success. A failure to send or receive frame1 leaves
// cfg.DB untouched; any later failure before the remote is marked Trusted
// sets it to HandshakeFailed in cfg.DB. A failure to send the closing
// ListPeers is returned as an error but leaves the remote Trusted.
func Run(cfg Config) (peer.ID, error) {
	selfID := peer.ID(crypto.PeerIDFromPublicKey(cfg.Self.PublicKey()))

	ownAnn, err := peer.NewAnnouncement(cfg.Self, cfg.SelfListeners, cfg.SelfRoutableIP, uint64(time.Now().Unix()))
	if err != nil {
		return peer.ID{}, massaerrs.HandshakeProtocol(err, "building own announcement")
	}

	frame1 := append([]byte{}, selfID[:]...)
	frame1 = putVersion(frame1, cfg.SelfVersion)
	frame1 = append(frame1, tagAnnounce)
	frame1 = append(frame1, peer.EncodeAnnouncement(ownAnn)...)
	if err := cfg.Endpoint.Send(frame1); err != nil {
		return peer.ID{}, massaerrs.Transport(err, "sending frame1")
	}

	raw, err := cfg.Endpoint.Receive()
	if err != nil {
		return peer.ID{}, massaerrs.Transport(err, "receiving frame1")
	}
	if len(raw) < peer.IDLength {
		return peer.ID{}, massaerrs.HandshakeProtocol(nil, "frame1 shorter than a peer id")
	}
	var remoteID peer.ID
	copy(remoteID[:], raw[:peer.IDLength])
	rest := raw[peer.IDLength:]

	if cfg.DB.State(remoteID) == peer.Banned {
		logger.Warn("handshake with banned peer, continuing to version check", "peer", remoteID)
	}

	cfg.DB.SetState(remoteID, peer.InHandshake)

	remoteVersion, c, err := getVersion(rest)
	if err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return remoteID, massaerrs.HandshakeProtocol(err, "parsing remote version")
	}
	rest = rest[c:]
	if !cfg.SelfVersion.IsCompatible(remoteVersion) {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return remoteID, massaerrs.HandshakeProtocol(nil, "incompatible version %+v", remoteVersion)
	}

	if len(rest) == 0 {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return remoteID, massaerrs.HandshakeProtocol(nil, "missing tag byte")
	}
	tag := rest[0]
	rest = rest[1:]

	switch tag {
	case tagAnnounce:
		return remoteID, cfg.runAnnounce(remoteID, rest)
	case tagDecline:
		return remoteID, cfg.runDecline(remoteID, rest)
	default:
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return remoteID, massaerrs.HandshakeProtocol(nil, "unknown tag %d", tag)
	}
}

// runAnnounce executes steps 5a-5h and 6-7 of the happy path.
func (cfg Config) runAnnounce(remoteID peer.ID, rest []byte) error {
	ann, _, err := peer.DecodeAnnouncement(rest, cfg.ListenerBound)
	if err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(err, "decoding remote announcement")
	}
	if !ann.Verify(remoteID) {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(nil, "announcement signature verification failed")
	}

	if cfg.Inbound != nil {
		cfg.Inbound <- peer.InboundMessage{
			From:  remoteID,
			MsgID: peer.MsgNewPeerConnected,
			Body:  peer.EncodeNewPeerConnected(remoteID, ann.Listeners),
		}
	}

	var rSelf [32]byte
	if _, err := cryptorand.Read(rSelf[:]); err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(err, "generating challenge bytes")
	}
	hSelf := crypto.Hash(rSelf[:])
	if err := cfg.Endpoint.Send(rSelf[:]); err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.Transport(err, "sending challenge")
	}

	rOther, err := cfg.Endpoint.Receive()
	if err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.Transport(err, "receiving remote challenge")
	}
	if len(rOther) != 32 {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(nil, "remote challenge must be 32 bytes, got %d", len(rOther))
	}
	hOther := crypto.Hash(rOther)

	sigSelf, err := cfg.Self.Sign(hOther)
	if err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(err, "signing remote challenge hash")
	}
	if err := cfg.Endpoint.Send(sigSelf[:]); err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.Transport(err, "sending own signature")
	}

	sigOtherBytes, err := cfg.Endpoint.Receive()
	if err != nil {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.Transport(err, "receiving remote signature")
	}
	if len(sigOtherBytes) != crypto.SignatureLength {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(nil, "remote signature must be %d bytes, got %d", crypto.SignatureLength, len(sigOtherBytes))
	}
	var sigOther [crypto.SignatureLength]byte
	copy(sigOther[:], sigOtherBytes)

	if !crypto.Verify(ann.PublicKey, hSelf, sigOther) {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(nil, "challenge-response signature verification failed")
	}

	cfg.DB.Upsert(remoteID, ann, peer.Trusted)

	sample := cfg.sample()
	body := append([]byte{peer.MsgListPeers}, peer.EncodeListPeersFrame(sample)...)
	if err := cfg.Endpoint.Send(body); err != nil {
		return massaerrs.Transport(err, "sending closing ListPeers")
	}
	return nil
}

// runDecline executes the tag-1 fallback branch: no slot available, read a
// secondary piggybacked message and dispatch it once, then report a
// handshake error without mutating state beyond HandshakeFailed.
func (cfg Config) runDecline(remoteID peer.ID, rest []byte) error {
	if len(rest) < 1 {
		cfg.DB.SetState(remoteID, peer.HandshakeFailed)
		return massaerrs.HandshakeProtocol(nil, "tag-1 frame missing secondary message id")
	}
	msgID := rest[0]
	body := rest[1:]
	if cfg.Inbound != nil {
		cfg.Inbound <- peer.InboundMessage{From: remoteID, MsgID: msgID, Body: body}
	}
	cfg.DB.SetState(remoteID, peer.HandshakeFailed)
	return massaerrs.HandshakeProtocol(nil, "remote declined the connection")
}

func (cfg Config) sample() []peer.PeerListeners {
	if cfg.Sample == nil {
		return nil
	}
	return cfg.Sample(100)
}
