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

// Package crypto provides the keypair, signature and hashing primitives
// consumed by the peer handshake and the executed-ops accumulator. It is the
// only place in the module that talks to curve and digest implementations
// directly; everything else deals in opaque 32/64-byte arrays.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/sha3"
)

// HashLength is the size in bytes of a digest produced by Hash.
const HashLength = 32

// SignatureLength is the size in bytes of a Sign output.
const SignatureLength = 64

// KeyPair is a node's long-lived identity: a secp256k1 private key plus its
// cached public key encoding. It is the Go analogue of the source's
// `massa_signature::KeyPair`.
type KeyPair struct {
	priv *ecdsa.PrivateKey
	pub  []byte // 33-byte compressed public key
}

// GenerateKeyPair creates a fresh random identity.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(btcec.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return newKeyPair(priv), nil
}

// KeyPairFromBytes restores a KeyPair from a 32-byte scalar.
func KeyPairFromBytes(d []byte) (*KeyPair, error) {
	if len(d) != 32 {
		return nil, fmt.Errorf("crypto: invalid private key length %d", len(d))
	}
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = btcec.S256()
	priv.D = new(big.Int).SetBytes(d)
	priv.PublicKey.X, priv.PublicKey.Y = priv.Curve.ScalarBaseMult(d)
	if priv.PublicKey.X == nil {
		return nil, errors.New("crypto: invalid private key")
	}
	return newKeyPair(priv), nil
}

func newKeyPair(priv *ecdsa.PrivateKey) *KeyPair {
	pub := elliptic.MarshalCompressed(priv.Curve, priv.PublicKey.X, priv.PublicKey.Y)
	return &KeyPair{priv: priv, pub: pub}
}

// PublicKey returns the 33-byte compressed public key encoding.
func (k *KeyPair) PublicKey() []byte {
	out := make([]byte, len(k.pub))
	copy(out, k.pub)
	return out
}

// Sign produces an ECDSA signature over a 32-byte digest. The returned
// signature is the fixed-width concatenation of R and S, matching the
// 64-byte SignatureLength the wire format assumes.
func (k *KeyPair) Sign(digest [32]byte) ([SignatureLength]byte, error) {
	var out [SignatureLength]byte
	r, s, err := ecdsa.Sign(rand.Reader, k.priv, digest[:])
	if err != nil {
		return out, err
	}
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}

// Verify checks a signature produced by Sign against a public key.
func Verify(pub []byte, digest [32]byte, sig [SignatureLength]byte) bool {
	x, y := elliptic.UnmarshalCompressed(btcec.S256(), pub)
	if x == nil {
		return false
	}
	pubKey := &ecdsa.PublicKey{Curve: btcec.S256(), X: x, Y: y}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pubKey, digest[:], r, s)
}

// Hash computes the Keccak256 digest of the concatenation of its inputs.
func Hash(data ...[]byte) [32]byte {
	var out [32]byte
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(out[:0])
	return out
}
