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
	"errors"
	"testing"

	"github.com/massa-labs/go-massa/massaerrs"
)

func TestUvarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range cases {
		buf := PutUvarint(nil, v)
		got, n, err := Uvarint(buf)
		if err != nil {
			t.Fatalf("Uvarint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("Uvarint round trip: want %d got %d", v, got)
		}
		if n != len(buf) {
			t.Fatalf("Uvarint consumed %d of %d bytes", n, len(buf))
		}
	}
}

func TestUvarintTruncated(t *testing.T) {
	buf := []byte{0x80, 0x80}
	if _, _, err := Uvarint(buf); err == nil {
		t.Fatal("expected truncated varint error")
	}
}

func TestUvarintBoundedRejectsOverMax(t *testing.T) {
	buf := PutUvarint(nil, 1000)
	_, _, err := UvarintBounded(buf, 999)
	if err == nil {
		t.Fatal("expected CodecBounds error")
	}
	var merr *massaerrs.Error
	if !errors.As(err, &merr) || merr.Kind != massaerrs.KindCodecBounds {
		t.Fatalf("expected KindCodecBounds, got %v", err)
	}
}

func TestSlotRoundTrip(t *testing.T) {
	s := Slot{Period: 123456789, Thread: 7}
	buf := PutSlot(nil, s)
	got, n, err := GetSlot(buf, 32)
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if got != s {
		t.Fatalf("slot round trip: want %+v got %+v", s, got)
	}
	if n != len(buf) {
		t.Fatalf("GetSlot consumed %d of %d bytes", n, len(buf))
	}
}

func TestSlotRejectsThreadOutOfBounds(t *testing.T) {
	buf := PutSlot(nil, Slot{Period: 0, Thread: 5})
	if _, _, err := GetSlot(buf, 5); err == nil {
		t.Fatal("expected thread-count bounds error")
	}
}

func TestSlotOrdering(t *testing.T) {
	a := Slot{Period: 1, Thread: 5}
	b := Slot{Period: 2, Thread: 0}
	if !a.Less(b) {
		t.Fatal("expected period to dominate ordering")
	}
	c := Slot{Period: 1, Thread: 6}
	if !a.Less(c) {
		t.Fatal("expected thread to order within the same period")
	}
}

func TestSlotNextWraps(t *testing.T) {
	s := Slot{Period: 4, Thread: 30}
	next := s.Next(5, 32)
	want := Slot{Period: 5, Thread: 3}
	if next != want {
		t.Fatalf("Next: want %+v got %+v", want, next)
	}
}

func TestOperationIDRoundTrip(t *testing.T) {
	var id OperationID
	for i := range id {
		id[i] = byte(i)
	}
	buf := PutOperationID(nil, id)
	got, n, err := GetOperationID(buf)
	if err != nil {
		t.Fatalf("GetOperationID: %v", err)
	}
	if got != id {
		t.Fatal("operation id round trip mismatch")
	}
	if n != OperationIDLength {
		t.Fatalf("expected to consume %d bytes, got %d", OperationIDLength, n)
	}
}

func TestOperationIDTruncated(t *testing.T) {
	if _, _, err := GetOperationID(make([]byte, 10)); err == nil {
		t.Fatal("expected truncated operation id error")
	}
}
