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

// Package handshake implements the synchronous, per-connection mutual
// authentication protocol executed once for every new connection.
package handshake

import "github.com/massa-labs/go-massa/codec"

// Version is the wire-level protocol version a node announces during the
// handshake. Only the major component needs to match for two nodes to be
// considered compatible; the minor component is informational.
type Version struct {
	Major uint32
	Minor uint32
}

// IsCompatible reports whether v and other can speak to each other.
func (v Version) IsCompatible(other Version) bool {
	return v.Major == other.Major
}

func putVersion(buf []byte, v Version) []byte {
	buf = codec.PutUvarint(buf, uint64(v.Major))
	return codec.PutUvarint(buf, uint64(v.Minor))
}

func getVersion(buf []byte) (Version, int, error) {
	start := len(buf)
	major, c, err := codec.Uvarint(buf)
	if err != nil {
		return Version{}, 0, err
	}
	buf = buf[c:]
	minor, c, err := codec.Uvarint(buf)
	if err != nil {
		return Version{}, 0, err
	}
	buf = buf[c:]
	return Version{Major: uint32(major), Minor: uint32(minor)}, start - len(buf), nil
}
