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
	"fmt"

	"github.com/massa-labs/go-massa/massaerrs"
)

// Slot is a discrete timeslot identified by a period and a thread index.
// It is totally ordered lexicographically, period first.
type Slot struct {
	Period uint64
	Thread uint8
}

// Less reports whether s sorts strictly before o.
func (s Slot) Less(o Slot) bool {
	if s.Period != o.Period {
		return s.Period < o.Period
	}
	return s.Thread < o.Thread
}

// Next returns the slot `delta` threads ahead of s, wrapping the thread
// index and carrying into the period, given threadCount threads per period.
func (s Slot) Next(delta uint64, threadCount uint8) Slot {
	total := uint64(s.Thread) + delta
	period := s.Period + total/uint64(threadCount)
	thread := uint8(total % uint64(threadCount))
	return Slot{Period: period, Thread: thread}
}

func (s Slot) String() string {
	return fmt.Sprintf("(%d, %d)", s.Period, s.Thread)
}

// PutSlot appends the wire encoding of s to buf: a varint period followed by
// a single thread byte.
func PutSlot(buf []byte, s Slot) []byte {
	buf = PutUvarint(buf, s.Period)
	return append(buf, s.Thread)
}

// GetSlot decodes a Slot from the front of buf, bounding the thread value by
// threadCount as the configuration requires.
func GetSlot(buf []byte, threadCount uint8) (Slot, int, error) {
	period, n, err := Uvarint(buf)
	if err != nil {
		return Slot{}, 0, err
	}
	if n >= len(buf) {
		return Slot{}, 0, massaerrs.CodecBounds("truncated slot: missing thread byte")
	}
	thread := buf[n]
	if thread >= threadCount {
		return Slot{}, 0, massaerrs.CodecBounds("thread %d exceeds thread count %d", thread, threadCount)
	}
	return Slot{Period: period, Thread: thread}, n + 1, nil
}
