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

// Package codec implements the wire format shared by the executed-ops
// bootstrap stream and the peer-management messages: a 7-bit-group varint
// for unsigned integers, a Slot encoding, raw 32-byte identifiers, and
// length-prefixed collections bounded by a configured maximum.
package codec

import (
	"github.com/massa-labs/go-massa/massaerrs"
)

// PutUvarint appends the little-endian-agnostic 7-bit-group varint encoding
// of v to buf and returns the extended slice. Each byte carries 7 payload
// bits in its low bits and a continuation flag in its high bit, identical in
// shape to protobuf's/binary.PutUvarint's encoding.
func PutUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// Uvarint decodes a varint from the front of buf, returning the value, the
// number of bytes consumed, and an error if buf is exhausted before a
// terminating byte is found or the value overflows 64 bits.
func Uvarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i, b := range buf {
		if i == 10 {
			return 0, 0, massaerrs.CodecBounds("varint exceeds 64 bits")
		}
		if i == 9 && b > 1 {
			return 0, 0, massaerrs.CodecBounds("varint exceeds 64 bits")
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, massaerrs.CodecBounds("truncated varint")
}

// UvarintBounded decodes a length-like varint and rejects it if it exceeds
// max, returning a massaerrs.CodecBounds error. This is the primitive every
// bounded collection decoder in this package is built on.
func UvarintBounded(buf []byte, max uint64) (uint64, int, error) {
	v, n, err := Uvarint(buf)
	if err != nil {
		return 0, 0, err
	}
	if v > max {
		return 0, 0, massaerrs.CodecBounds("value %d exceeds configured maximum %d", v, max)
	}
	return v, n, nil
}
