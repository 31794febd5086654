// Copyright 2014 The go-probeum Authors
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

package crypto

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	digest := Hash([]byte("challenge"))
	sig, err := kp.Sign(digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(kp.PublicKey(), digest, sig) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	digest := Hash([]byte("challenge"))
	sig, err := kp.Sign(digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig[0] ^= 0xff
	if Verify(kp.PublicKey(), digest, sig) {
		t.Fatal("expected tampered signature to fail verification")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp1, _ := GenerateKeyPair()
	kp2, _ := GenerateKeyPair()
	digest := Hash([]byte("challenge"))
	sig, err := kp1.Sign(digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if Verify(kp2.PublicKey(), digest, sig) {
		t.Fatal("expected signature from kp1 to fail against kp2's key")
	}
}

func TestKeyPairFromBytesRoundTrip(t *testing.T) {
	kp, _ := GenerateKeyPair()
	raw := kp.priv.D.Bytes()
	// pad to 32 bytes
	buf := make([]byte, 32)
	copy(buf[32-len(raw):], raw)
	kp2, err := KeyPairFromBytes(buf)
	if err != nil {
		t.Fatalf("KeyPairFromBytes: %v", err)
	}
	if string(kp.PublicKey()) != string(kp2.PublicKey()) {
		t.Fatal("restored keypair has a different public key")
	}
}

func TestPeerIDFromPublicKeyStable(t *testing.T) {
	kp, _ := GenerateKeyPair()
	a := PeerIDFromPublicKey(kp.PublicKey())
	b := PeerIDFromPublicKey(kp.PublicKey())
	if a != b {
		t.Fatal("PeerIDFromPublicKey must be deterministic")
	}
}
