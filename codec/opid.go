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

package codec

import (
	"encoding/hex"

	"github.com/massa-labs/go-massa/massaerrs"
)

// OperationIDLength is the fixed size of an OperationID on the wire.
const OperationIDLength = 32

// OperationID is an opaque 32-byte identifier of an on-chain operation. It
// is its own hash value: equality and hashing use the raw bytes directly.
type OperationID [OperationIDLength]byte

// Hash returns the identifier's own 32-byte digest, as required by the
// executed-ops accumulator (the id *is* its own hash value).
func (id OperationID) Hash() [32]byte { return id }

func (id OperationID) String() string { return hex.EncodeToString(id[:]) }

// PutOperationID appends the raw 32 bytes of id to buf.
func PutOperationID(buf []byte, id OperationID) []byte {
	return append(buf, id[:]...)
}

// GetOperationID reads a raw 32-byte OperationID from the front of buf.
func GetOperationID(buf []byte) (OperationID, int, error) {
	var id OperationID
	if len(buf) < OperationIDLength {
		return id, 0, massaerrs.CodecBounds("truncated operation id: need %d bytes, got %d", OperationIDLength, len(buf))
	}
	copy(id[:], buf[:OperationIDLength])
	return id, OperationIDLength, nil
}
