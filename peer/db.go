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
	"math/rand"
	"sort"
	"sync"
)

// recencyEntry is one (timestamp, id) pair in the descending recency index.
type recencyEntry struct {
	timestamp uint64
	id        ID
}

// DB is the shared, lock-protected mapping of peer identity to peer state.
// Readers take the read lock; mutations take the write lock; no I/O ever
// happens while either is held.
type DB struct {
	mu            sync.RWMutex
	peers         map[ID]*Info
	indexByNewest []recencyEntry // descending by timestamp, at most one entry per peer
}

// NewDB returns an empty peer database.
func NewDB() *DB {
	return &DB{peers: make(map[ID]*Info)}
}

// State reports id's current state, or Unknown if it has no entry.
func (db *DB) State(id ID) State {
	db.mu.RLock()
	defer db.mu.RUnlock()
	info, ok := db.peers[id]
	if !ok {
		return Unknown
	}
	return info.State
}

// Upsert records ann as id's most recent announcement, sets its state and
// refreshes indexByNewest: any prior entry for id is removed and a fresh
// (timestamp, id) pair is inserted, keeping the index sorted descending.
func (db *DB) Upsert(id ID, ann Announcement, state State) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.peers[id] = &Info{LastAnnounce: ann, State: state}
	db.removeFromIndexLocked(id)
	db.insertIndexLocked(recencyEntry{timestamp: ann.Timestamp, id: id})
}

// SetState updates id's state without touching its last announcement or
// recency index entry. If id has no entry yet, one is created with a zero
// Announcement.
func (db *DB) SetState(id ID, state State) {
	db.mu.Lock()
	defer db.mu.Unlock()
	info, ok := db.peers[id]
	if !ok {
		db.peers[id] = &Info{State: state}
		return
	}
	info.State = state
}

func (db *DB) removeFromIndexLocked(id ID) {
	for i, e := range db.indexByNewest {
		if e.id == id {
			db.indexByNewest = append(db.indexByNewest[:i], db.indexByNewest[i+1:]...)
			return
		}
	}
}

func (db *DB) insertIndexLocked(e recencyEntry) {
	i := sort.Search(len(db.indexByNewest), func(i int) bool { return db.indexByNewest[i].timestamp <= e.timestamp })
	db.indexByNewest = append(db.indexByNewest, recencyEntry{})
	copy(db.indexByNewest[i+1:], db.indexByNewest[i:])
	db.indexByNewest[i] = e
}

// BanPeer sets id's state to Banned without removing it from peers.
func (db *DB) BanPeer(id ID) {
	db.SetState(id, Banned)
}

// UnbanPeer clears id's Banned state, demoting it to HandshakeFailed so it
// must re-earn Trusted through a fresh handshake rather than being treated
// as already-verified.
func (db *DB) UnbanPeer(id ID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	info, ok := db.peers[id]
	if !ok || info.State != Banned {
		return
	}
	info.State = HandshakeFailed
}

// GetRandPeersToSend uniformly samples at most n peers whose state is
// Trusted and whose last announcement has at least one listener. Banned
// peers are never returned.
func (db *DB) GetRandPeersToSend(n int) []PeerListeners {
	db.mu.RLock()
	defer db.mu.RUnlock()

	candidates := make([]PeerListeners, 0, len(db.peers))
	for id, info := range db.peers {
		if info.State != Trusted || len(info.LastAnnounce.Listeners) == 0 {
			continue
		}
		candidates = append(candidates, PeerListeners{ID: id, Listeners: info.LastAnnounce.Listeners})
	}
	rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// Announcement returns id's last known announcement and whether id has any
// entry at all.
func (db *DB) Announcement(id ID) (Announcement, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	info, ok := db.peers[id]
	if !ok {
		return Announcement{}, false
	}
	return info.LastAnnounce, true
}

// Len returns the total number of peers tracked, regardless of state.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.peers)
}

// Snapshot copies every (id, Info) pair currently tracked, for callers
// that need a consistent point-in-time view (the admin API, the leveldb
// persistence layer).
func (db *DB) Snapshot() map[ID]Info {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make(map[ID]Info, len(db.peers))
	for id, info := range db.peers {
		out[id] = *info
	}
	return out
}
