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
	"github.com/massa-labs/go-massa/crypto"
	"github.com/massa-labs/go-massa/peer"
)

// RunFallback executes the declined-connection path: send
// own_peer_id || version || tag(1) || ListPeers(sample) and shut the
// endpoint down, without touching the peer DB. Intended to be launched on
// a detached goroutine by the transport layer when a connection cannot be
// accepted (e.g. at capacity).
func RunFallback(cfg Config) {
	defer func() {
		if err := cfg.Endpoint.Close(); err != nil {
			logger.Debug("closing declined endpoint failed", "err", err)
		}
	}()

	selfID := selfPeerID(cfg)
	frame := append([]byte{}, selfID[:]...)
	frame = putVersion(frame, cfg.SelfVersion)
	frame = append(frame, tagDecline)
	sample := cfg.sample()
	frame = append(frame, peer.MsgListPeers)
	frame = append(frame, peer.EncodeListPeersFrame(sample)...)

	if err := cfg.Endpoint.Send(frame); err != nil {
		logger.Debug("sending fallback frame failed", "err", err)
	}
}

func selfPeerID(cfg Config) peer.ID {
	return peer.ID(crypto.PeerIDFromPublicKey(cfg.Self.PublicKey()))
}
