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

import "github.com/massa-labs/go-massa/codec"

// GetExecutedOpsPartBytes is GetExecutedOpsPart wired through a small chunk
// cache: repeated requests for the same cursor between mutations reuse the
// previously serialized bytes instead of walking sortedOps and
// re-encoding. The returned cursor is always correct regardless of cache
// hit or miss.
func (e *ExecutedOps) GetExecutedOpsPartBytes(cursor StreamingStep) ([]byte, StreamingStep) {
	if encoded, ok := e.cache.get(cursor); ok {
		return encoded, e.nextCursorFrom(cursor)
	}
	chunk, next := e.GetExecutedOpsPart(cursor)
	encoded := EncodeChunk(chunk)
	e.cache.set(cursor, encoded)
	return encoded, next
}

// Snapshot serializes the full executed-ops state as a sequence of
// bootstrap chunks terminated implicitly by the caller tracking length,
// for a node to persist across restarts. This is the "callers persist
// snapshots via the streaming interface" convenience the Non-goals clause
// carves out; ExecutedOps itself holds no durable storage.
func (e *ExecutedOps) Snapshot() ([]byte, error) {
	var out []byte
	cursor := Started()
	for {
		chunk, next := e.GetExecutedOpsPart(cursor)
		encoded := EncodeChunk(chunk)
		out = codec.PutUvarint(out, uint64(len(encoded)))
		out = append(out, encoded...)
		if next.Kind == StepFinished {
			break
		}
		cursor = next
	}
	return out, nil
}

// LoadSnapshot restores the state produced by Snapshot into a freshly
// constructed ExecutedOps.
func LoadSnapshot(config Config, data []byte, maxChunkLen, maxOpsPerSlot uint64) (*ExecutedOps, error) {
	e := New(config)
	for len(data) > 0 {
		chunkLen, n, err := codec.UvarintBounded(data, maxChunkLen)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		if uint64(len(data)) < chunkLen {
			return nil, trailingErr(len(data))
		}
		chunk, err := DecodeChunk(data[:chunkLen], config.ThreadCount, maxChunkLen, maxOpsPerSlot)
		if err != nil {
			return nil, err
		}
		data = data[chunkLen:]
		e.SetExecutedOpsPart(chunk)
	}
	return e, nil
}
