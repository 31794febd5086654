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

package peer

import (
	"bytes"
	"sort"

	"github.com/massa-labs/go-massa/codec"
	"github.com/massa-labs/go-massa/massaerrs"
)

// BootstrapCursorKind mirrors executedops.StepKind for an ID-keyed stream.
type BootstrapCursorKind int

const (
	BootstrapStarted BootstrapCursorKind = iota
	BootstrapOngoing
	BootstrapFinished
)

// BootstrapCursor is the resumable cursor used to chunk a full peer
// database transfer to a joining node, the peer-keyed analogue of
// executedops.StreamingStep.
type BootstrapCursor struct {
	Kind BootstrapCursorKind
	ID   ID // only meaningful when Kind == BootstrapOngoing
}

// BootstrapPeerEntry pairs a peer id with its last announcement, the
// payload shape of one bootstrap peer_entry.
type BootstrapPeerEntry struct {
	ID           ID
	LastAnnounce Announcement
}

// BootstrapPeerWriter streams db's full contents in ascending-id order,
// chunked at chunkSize entries, for transferring the whole peer database
// to a joining node (as opposed to GetBootstrapPeers' single random
// sample).
type BootstrapPeerWriter struct {
	entries   []BootstrapPeerEntry
	chunkSize int
}

// NewBootstrapPeerWriter snapshots db's peers (excluding Banned, per the
// same "never expose banned peers" rule GetRandPeersToSend follows) sorted
// by ascending id, ready to be streamed in chunkSize-sized parts.
func NewBootstrapPeerWriter(db *DB, chunkSize int) *BootstrapPeerWriter {
	snap := db.Snapshot()
	entries := make([]BootstrapPeerEntry, 0, len(snap))
	for id, info := range snap {
		if info.State == Banned {
			continue
		}
		entries = append(entries, BootstrapPeerEntry{ID: id, LastAnnounce: info.LastAnnounce})
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].ID[:], entries[j].ID[:]) < 0 })
	return &BootstrapPeerWriter{entries: entries, chunkSize: chunkSize}
}

func (w *BootstrapPeerWriter) indexOf(id ID) int {
	return sort.Search(len(w.entries), func(i int) bool { return bytes.Compare(w.entries[i].ID[:], id[:]) >= 0 })
}

// Part returns at most chunkSize entries starting from the bound implied
// by cursor, and the cursor the next call should be made with.
func (w *BootstrapPeerWriter) Part(cursor BootstrapCursor) ([]BootstrapPeerEntry, BootstrapCursor) {
	var start int
	switch cursor.Kind {
	case BootstrapFinished:
		return nil, BootstrapCursor{Kind: BootstrapFinished}
	case BootstrapOngoing:
		start = w.indexOf(cursor.ID) + 1
	default: // BootstrapStarted
		start = 0
	}

	end := start + w.chunkSize
	if end > len(w.entries) {
		end = len(w.entries)
	}
	if end <= start {
		return nil, BootstrapCursor{Kind: BootstrapFinished}
	}
	chunk := append([]BootstrapPeerEntry{}, w.entries[start:end]...)
	return chunk, BootstrapCursor{Kind: BootstrapOngoing, ID: chunk[len(chunk)-1].ID}
}

// EncodeBootstrapPeerChunk serializes a chunk per §6a's wire form:
// varint(n) repeat n of (peer_id(32) announcement).
func EncodeBootstrapPeerChunk(chunk []BootstrapPeerEntry) []byte {
	buf := codec.PutUvarint(nil, uint64(len(chunk)))
	for _, e := range chunk {
		buf = append(buf, e.ID[:]...)
		buf = append(buf, EncodeAnnouncement(e.LastAnnounce)...)
	}
	return buf
}

// DecodeBootstrapPeerChunk parses the form produced by
// EncodeBootstrapPeerChunk, bounded by maxChunkLen (number of entries) and
// listenerBound (max_size_listeners_per_peer for each announcement).
func DecodeBootstrapPeerChunk(buf []byte, maxChunkLen, listenerBound uint64) ([]BootstrapPeerEntry, error) {
	n, c, err := codec.UvarintBounded(buf, maxChunkLen)
	if err != nil {
		return nil, err
	}
	buf = buf[c:]
	out := make([]BootstrapPeerEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		if len(buf) < IDLength {
			return nil, massaerrs.CodecBounds("truncated peer_entry: missing peer id")
		}
		var id ID
		copy(id[:], buf[:IDLength])
		buf = buf[IDLength:]
		ann, c, err := DecodeAnnouncement(buf, listenerBound)
		if err != nil {
			return nil, err
		}
		buf = buf[c:]
		out = append(out, BootstrapPeerEntry{ID: id, LastAnnounce: ann})
	}
	if len(buf) != 0 {
		return nil, massaerrs.CodecTrailing("%d unconsumed bytes after peer chunk", len(buf))
	}
	return out, nil
}

// ApplyBootstrapPeerChunk merges a decoded chunk into db, the client side
// of a full peer-database bootstrap transfer.
func ApplyBootstrapPeerChunk(db *DB, chunk []BootstrapPeerEntry) {
	for _, e := range chunk {
		db.Upsert(e.ID, e.LastAnnounce, Trusted)
	}
}
