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

package executedops

import (
	"sort"

	"github.com/massa-labs/go-massa/codec"
)

// EncodeChunk serializes a bootstrap chunk as:
//
//	chunk      := varint(n)  repeat n of slot_entry
//	slot_entry := slot  varint(k)  repeat k of op_id_bytes(32)
//
// Entries are emitted in ascending slot order regardless of map iteration
// order, so the wire bytes are deterministic.
func EncodeChunk(chunk []SlotOps) []byte {
	buf := codec.PutUvarint(nil, uint64(len(chunk)))
	for _, so := range chunk {
		buf = codec.PutSlot(buf, so.Slot)
		ids := make([]codec.OperationID, 0, len(so.IDs))
		for id := range so.IDs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return lessBytes(ids[i][:], ids[j][:]) })
		buf = codec.PutUvarint(buf, uint64(len(ids)))
		for _, id := range ids {
			buf = codec.PutOperationID(buf, id)
		}
	}
	return buf
}

func lessBytes(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// DecodeChunk deserializes a bootstrap chunk produced by EncodeChunk,
// bounding the outer length by maxChunkLen (max_executed_ops_length) and
// each inner per-slot id count by maxOpsPerSlot (max_operations_per_block).
// It fails with a massaerrs.CodecBounds error if either bound is exceeded,
// and a massaerrs.CodecTrailing error if bytes remain after the last entry.
func DecodeChunk(buf []byte, threadCount uint8, maxChunkLen, maxOpsPerSlot uint64) ([]SlotOps, error) {
	n, consumed, err := codec.UvarintBounded(buf, maxChunkLen)
	if err != nil {
		return nil, err
	}
	buf = buf[consumed:]

	chunk := make([]SlotOps, 0, n)
	for i := uint64(0); i < n; i++ {
		slot, c, err := codec.GetSlot(buf, threadCount)
		if err != nil {
			return nil, err
		}
		buf = buf[c:]

		k, c, err := codec.UvarintBounded(buf, maxOpsPerSlot)
		if err != nil {
			return nil, err
		}
		buf = buf[c:]

		ids := make(map[codec.OperationID]struct{}, k)
		for j := uint64(0); j < k; j++ {
			id, c, err := codec.GetOperationID(buf)
			if err != nil {
				return nil, err
			}
			buf = buf[c:]
			ids[id] = struct{}{}
		}
		chunk = append(chunk, SlotOps{Slot: slot, IDs: ids})
	}
	if len(buf) != 0 {
		return nil, trailingErr(len(buf))
	}
	return chunk, nil
}
