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
	"testing"

	"github.com/massa-labs/go-massa/crypto"
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

func TestAnnouncementSignVerifyRoundTrip(t *testing.T) {
	kp := mustKeyPair(t)
	id := ID(crypto.PeerIDFromPublicKey(kp.PublicKey()))
	ip := netip.MustParseAddr("203.0.113.7")
	listeners := Listeners{"203.0.113.7:4242": transport.TypeTCP}

	ann, err := NewAnnouncement(kp, listeners, &ip, 12345)
	if err != nil {
		t.Fatalf("NewAnnouncement: %v", err)
	}
	if !ann.Verify(id) {
		t.Fatal("expected a freshly signed announcement to verify")
	}

	encoded := EncodeAnnouncement(ann)
	decoded, n, err := DecodeAnnouncement(encoded, 16)
	if err != nil {
		t.Fatalf("DecodeAnnouncement: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("expected to consume all %d bytes, consumed %d", len(encoded), n)
	}
	if !decoded.Verify(id) {
		t.Fatal("expected the decoded announcement to verify")
	}
	if decoded.Timestamp != 12345 {
		t.Fatalf("timestamp mismatch: got %d", decoded.Timestamp)
	}
}

func TestAnnouncementTamperedSignatureFailsVerify(t *testing.T) {
	kp := mustKeyPair(t)
	id := ID(crypto.PeerIDFromPublicKey(kp.PublicKey()))
	ann, err := NewAnnouncement(kp, Listeners{"1.2.3.4:1": transport.TypeTCP}, nil, 1)
	if err != nil {
		t.Fatalf("NewAnnouncement: %v", err)
	}
	ann.Signature[0] ^= 0xFF
	if ann.Verify(id) {
		t.Fatal("expected a tampered signature to fail verification")
	}
}

func TestAnnouncementWrongClaimedIDFailsVerify(t *testing.T) {
	kp := mustKeyPair(t)
	other := mustKeyPair(t)
	wrongID := ID(crypto.PeerIDFromPublicKey(other.PublicKey()))
	ann, err := NewAnnouncement(kp, Listeners{"1.2.3.4:1": transport.TypeTCP}, nil, 1)
	if err != nil {
		t.Fatalf("NewAnnouncement: %v", err)
	}
	if ann.Verify(wrongID) {
		t.Fatal("expected verification against the wrong claimed id to fail")
	}
}

func TestDecodeAnnouncementListenerBoundsExceeded(t *testing.T) {
	kp := mustKeyPair(t)
	listeners := Listeners{
		"a:1": transport.TypeTCP,
		"b:2": transport.TypeTCP,
		"c:3": transport.TypeTCP,
	}
	ann, err := NewAnnouncement(kp, listeners, nil, 1)
	if err != nil {
		t.Fatalf("NewAnnouncement: %v", err)
	}
	encoded := EncodeAnnouncement(ann)
	if _, _, err := DecodeAnnouncement(encoded, 2); err == nil {
		t.Fatal("expected CodecBounds when listener count exceeds the configured maximum")
	}
}
