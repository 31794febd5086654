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

// PeerIDFromPublicKey derives the 32-byte wire identity of a node from its
// public key. The derivation only needs to be collision-resistant and
// stable; it carries no further cryptographic meaning on its own (the
// handshake's challenge-response step is what actually binds the identity
// to a live connection).
func PeerIDFromPublicKey(pub []byte) [32]byte {
	return Hash(pub)
}
