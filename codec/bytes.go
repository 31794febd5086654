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

package codec

import "github.com/massa-labs/go-massa/massaerrs"

// PutString appends a varint-length-prefixed string to buf, used for
// socket addresses in announcements and peer listener lists.
func PutString(buf []byte, s string) []byte {
	buf = PutUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// GetString decodes a varint-length-prefixed string bounded by maxLen.
func GetString(buf []byte, maxLen uint64) (string, int, error) {
	n, c, err := UvarintBounded(buf, maxLen)
	if err != nil {
		return "", 0, err
	}
	buf = buf[c:]
	if uint64(len(buf)) < n {
		return "", 0, massaerrs.CodecBounds("truncated string: need %d bytes, got %d", n, len(buf))
	}
	return string(buf[:n]), c + int(n), nil
}
