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

// Config bounds the lifecycle of an ExecutedOps instance.
type Config struct {
	ThreadCount       uint8
	BootstrapPartSize uint64
}

// ExecutedOps lists and prunes previously executed operations, detecting
// reuse. sortedOps indexes operation ids by the expiry slot supplied by the
// caller; ops denormalizes the same ids into a flat set for O(1) membership
// tests; hash is the XOR accumulator of every id currently in ops.
//
// Go has no ordered map, so ordered iteration over sortedOps is backed by
// keys, an ascending slice of the slots currently present, maintained
// alongside the map (see insertSlotKey/prune).
type ExecutedOps struct {
	config Config

	sortedOps map[codec.Slot]map[codec.OperationID]struct{}
	keys      []codec.Slot // ascending, kept in sync with sortedOps

	ops map[codec.OperationID]struct{}

	hash [32]byte

	cache *chunkCache
}

// New creates a zero-initialized ExecutedOps.
func New(config Config) *ExecutedOps {
	return &ExecutedOps{
		config:    config,
		sortedOps: make(map[codec.Slot]map[codec.OperationID]struct{}),
		ops:       make(map[codec.OperationID]struct{}),
		cache:     newChunkCache(),
	}
}

// Len returns the number of distinct operation ids currently tracked.
func (e *ExecutedOps) Len() int { return len(e.ops) }

// IsEmpty reports whether no operation ids are currently tracked.
func (e *ExecutedOps) IsEmpty() bool { return len(e.ops) == 0 }

// Contains reports whether opID has already been executed.
func (e *ExecutedOps) Contains(opID codec.OperationID) bool {
	_, ok := e.ops[opID]
	return ok
}

// Hash returns the current XOR accumulator value.
func (e *ExecutedOps) Hash() [32]byte { return e.hash }

// extendAndComputeHash inserts every id from ids into ops, XORing its own
// hash value in exactly once per id — re-inserting an id already present
// must not toggle the accumulator.
func (e *ExecutedOps) extendAndComputeHash(ids []codec.OperationID) {
	for _, id := range ids {
		if _, present := e.ops[id]; !present {
			e.ops[id] = struct{}{}
			xorInto(&e.hash, id.Hash())
		}
	}
}

func xorInto(dst *[32]byte, src [32]byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// insertSlotKey records slot in the ascending keys index if it isn't
// already present, keeping the slice sorted via binary search.
func (e *ExecutedOps) insertSlotKey(slot codec.Slot) {
	i := sort.Search(len(e.keys), func(i int) bool { return !e.keys[i].Less(slot) })
	if i < len(e.keys) && e.keys[i] == slot {
		return
	}
	e.keys = append(e.keys, codec.Slot{})
	copy(e.keys[i+1:], e.keys[i:])
	e.keys[i] = slot
}

// ApplyChanges applies a speculative batch of (operation id -> expiry slot)
// changes to the executed-ops state, then prunes everything strictly
// below currentSlot. Note that an expiry strictly below currentSlot is
// inserted and then immediately pruned: the accumulator XORs the id in and
// right back out, leaving no observable trace. This is the behavior the
// design calls out as defined-but-caller-ambiguous, not a bug.
func (e *ExecutedOps) ApplyChanges(changes map[codec.OperationID]codec.Slot, currentSlot codec.Slot) {
	ids := make([]codec.OperationID, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	e.extendAndComputeHash(ids)

	for id, slot := range changes {
		set, ok := e.sortedOps[slot]
		if !ok {
			set = make(map[codec.OperationID]struct{})
			e.sortedOps[slot] = set
			e.insertSlotKey(slot)
		}
		set[id] = struct{}{}
	}
	e.cache.invalidate()
	e.prune(currentSlot)
}

// prune removes every slot entry strictly below threshold, XORing each
// removed id's hash back out of the accumulator. XOR is self-inverse, so
// this exactly undoes the contribution each id made on insertion.
func (e *ExecutedOps) prune(threshold codec.Slot) {
	cut := sort.Search(len(e.keys), func(i int) bool { return !e.keys[i].Less(threshold) })
	if cut == 0 {
		return
	}
	for _, slot := range e.keys[:cut] {
		ids := e.sortedOps[slot]
		for id := range ids {
			delete(e.ops, id)
			xorInto(&e.hash, id.Hash())
		}
		delete(e.sortedOps, slot)
	}
	remaining := make([]codec.Slot, len(e.keys)-cut)
	copy(remaining, e.keys[cut:])
	e.keys = remaining
	e.cache.invalidate()
}

// partStart resolves cursor to an index into e.keys to start copying from,
// cheaply (no id cloning) — shared by GetExecutedOpsPart and the cache
// lookup in GetExecutedOpsPartBytes so a cache hit never has to rebuild
// clones just to learn the next cursor.
func (e *ExecutedOps) partStart(cursor StreamingStep) (int, bool) {
	switch cursor.Kind {
	case StepFinished:
		return 0, false
	case StepOngoing:
		i := sort.Search(len(e.keys), func(i int) bool { return !e.keys[i].Less(cursor.Slot) })
		if i < len(e.keys) && e.keys[i] == cursor.Slot {
			i++
		}
		return i, true
	default: // StepStarted
		return 0, true
	}
}

// nextCursorFrom computes the StreamingStep that GetExecutedOpsPart would
// return for cursor, without cloning any operation id sets.
func (e *ExecutedOps) nextCursorFrom(cursor StreamingStep) StreamingStep {
	start, ok := e.partStart(cursor)
	if !ok {
		return Finished()
	}
	end := start + int(e.config.BootstrapPartSize)
	if end > len(e.keys) {
		end = len(e.keys)
	}
	if end <= start {
		return Finished()
	}
	return Ongoing(e.keys[end-1])
}

// GetExecutedOpsPart walks sortedOps in slot order starting from the bound
// implied by cursor, copying at most config.BootstrapPartSize (slot, ids)
// pairs into the returned chunk. It is used exclusively by the bootstrap
// server side of a state transfer.
func (e *ExecutedOps) GetExecutedOpsPart(cursor StreamingStep) ([]SlotOps, StreamingStep) {
	start, ok := e.partStart(cursor)
	if !ok {
		return nil, Finished()
	}

	var chunk []SlotOps
	var lastSlot codec.Slot
	haveLast := false
	for i := start; i < len(e.keys) && uint64(len(chunk)) < e.config.BootstrapPartSize; i++ {
		slot := e.keys[i]
		ids := e.sortedOps[slot]
		clone := make(map[codec.OperationID]struct{}, len(ids))
		for id := range ids {
			clone[id] = struct{}{}
		}
		chunk = append(chunk, SlotOps{Slot: slot, IDs: clone})
		lastSlot = slot
		haveLast = true
	}
	if !haveLast {
		return chunk, Finished()
	}
	return chunk, Ongoing(lastSlot)
}

// SetExecutedOpsPart merges a chunk produced by GetExecutedOpsPart into this
// instance, feeding every id through the same accumulator update as
// ApplyChanges, and is used exclusively by the bootstrap client side.
func (e *ExecutedOps) SetExecutedOpsPart(chunk []SlotOps) StreamingStep {
	for _, so := range chunk {
		for id := range so.IDs {
			// An id already tracked under some other slot keeps its
			// first-seen slot: ops.insert would report "already present"
			// and no second XOR or slot reassignment happens.
			if _, present := e.ops[id]; present {
				continue
			}
			set, ok := e.sortedOps[so.Slot]
			if !ok {
				set = make(map[codec.OperationID]struct{})
				e.sortedOps[so.Slot] = set
				e.insertSlotKey(so.Slot)
			}
			set[id] = struct{}{}
			e.ops[id] = struct{}{}
			xorInto(&e.hash, id.Hash())
		}
	}
	e.cache.invalidate()
	if len(e.keys) == 0 {
		return Finished()
	}
	return Ongoing(e.keys[len(e.keys)-1])
}

// SlotOps pairs a slot with the set of operation ids expiring at it; it is
// the in-memory shape of one bootstrap chunk entry.
type SlotOps struct {
	Slot codec.Slot
	IDs  map[codec.OperationID]struct{}
}
