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
	"errors"
	"testing"
	"time"

	"github.com/massa-labs/go-massa/crypto"
	"github.com/massa-labs/go-massa/massaerrs"
	"github.com/massa-labs/go-massa/peer"
	"github.com/massa-labs/go-massa/transport"
)

func mustKeyPair(t *testing.T) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return kp
}

// TestHandshakeHappyPath mirrors scenario S4: two in-memory endpoints,
// distinct keypairs, compatible versions, one listener each. Both sides
// must complete without error, learn each other's peer id, and hold the
// other in state Trusted.
func TestHandshakeHappyPath(t *testing.T) {
	kpA, kpB := mustKeyPair(t), mustKeyPair(t)
	epA, epB := transport.Pipe()

	dbA, dbB := peer.NewDB(), peer.NewDB()
	version := Version{Major: 1}

	cfgA := Config{
		Self:          kpA,
		SelfVersion:   version,
		SelfListeners: peer.Listeners{"a:1": transport.TypeTCP},
		Endpoint:      epA,
		DB:            dbA,
		ListenerBound: 16,
		Sample:        func(int) []peer.PeerListeners { return nil },
	}
	cfgB := Config{
		Self:          kpB,
		SelfVersion:   version,
		SelfListeners: peer.Listeners{"b:1": transport.TypeTCP},
		Endpoint:      epB,
		DB:            dbB,
		ListenerBound: 16,
		Sample:        func(int) []peer.PeerListeners { return nil },
	}

	type result struct {
		id  peer.ID
		err error
	}
	resA := make(chan result, 1)
	resB := make(chan result, 1)
	go func() { id, err := Run(cfgA); resA <- result{id, err} }()
	go func() { id, err := Run(cfgB); resB <- result{id, err} }()

	var rA, rB result
	select {
	case rA = <-resA:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for side A")
	}
	select {
	case rB = <-resB:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for side B")
	}

	if rA.err != nil {
		t.Fatalf("side A handshake failed: %v", rA.err)
	}
	if rB.err != nil {
		t.Fatalf("side B handshake failed: %v", rB.err)
	}

	idA := peer.ID(crypto.PeerIDFromPublicKey(kpA.PublicKey()))
	idB := peer.ID(crypto.PeerIDFromPublicKey(kpB.PublicKey()))
	if rA.id != idB {
		t.Fatal("side A should learn side B's peer id")
	}
	if rB.id != idA {
		t.Fatal("side B should learn side A's peer id")
	}

	if dbA.State(idB) != peer.Trusted {
		t.Fatalf("expected side A to trust side B, got %v", dbA.State(idB))
	}
	if dbB.State(idA) != peer.Trusted {
		t.Fatalf("expected side B to trust side A, got %v", dbB.State(idA))
	}
}

// TestHandshakeTamperedSignatureFails mirrors scenario S5: flipping one
// bit of the challenge-response signature must produce a HandshakeProtocol
// error and leave the remote's state as HandshakeFailed.
func TestHandshakeTamperedSignatureFails(t *testing.T) {
	kpA, kpB := mustKeyPair(t), mustKeyPair(t)
	epA, epB := transport.Pipe()

	dbA, dbB := peer.NewDB(), peer.NewDB()
	version := Version{Major: 1}

	cfgA := Config{
		Self: kpA, SelfVersion: version,
		SelfListeners: peer.Listeners{"a:1": transport.TypeTCP},
		Endpoint:      epA, DB: dbA, ListenerBound: 16,
		Sample: func(int) []peer.PeerListeners { return nil },
	}

	// Side B is driven by hand so the test can tamper with its outbound
	// signature frame before side A ever sees it.
	tamperedEp := &tamperingEndpoint{Endpoint: epB}
	cfgB := Config{
		Self: kpB, SelfVersion: version,
		SelfListeners: peer.Listeners{"b:1": transport.TypeTCP},
		Endpoint:      tamperedEp, DB: dbB, ListenerBound: 16,
		Sample: func(int) []peer.PeerListeners { return nil },
	}

	type result struct {
		id  peer.ID
		err error
	}
	resA := make(chan result, 1)
	resB := make(chan result, 1)
	go func() { id, err := Run(cfgA); resA <- result{id, err} }()
	go func() { id, err := Run(cfgB); resB <- result{id, err} }()

	rA := <-resA
	<-resB

	if rA.err == nil {
		t.Fatal("expected side A to reject the tampered signature")
	}
	var merr *massaerrs.Error
	if !errors.As(rA.err, &merr) || merr.Kind != massaerrs.KindHandshakeProtocol {
		t.Fatalf("expected a HandshakeProtocol error, got %v", rA.err)
	}

	idB := peer.ID(crypto.PeerIDFromPublicKey(kpB.PublicKey()))
	if dbA.State(idB) != peer.HandshakeFailed {
		t.Fatalf("expected side B to be marked HandshakeFailed on side A, got %v", dbA.State(idB))
	}
}

// tamperingEndpoint flips one bit of every 64-byte frame it sends (the
// challenge-response signature is the only 64-byte frame in this
// protocol), leaving all other frames untouched.
type tamperingEndpoint struct {
	transport.Endpoint
}

func (t *tamperingEndpoint) Send(frame []byte) error {
	if len(frame) == 64 {
		frame = append([]byte{}, frame...)
		frame[0] ^= 0x01
	}
	return t.Endpoint.Send(frame)
}
