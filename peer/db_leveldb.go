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
	"github.com/syndtr/goleveldb/leveldb"
)

// Store persists a DB's peers map to an embedded goleveldb instance so
// known-trusted peers survive a restart without a fresh bootstrap. This is
// an optional convenience; DB itself is fully functional purely in memory.
type Store struct {
	ldb *leveldb.DB
}

// OpenStore opens (creating if absent) a goleveldb store at path.
func OpenStore(path string) (*Store, error) {
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{ldb: ldb}, nil
}

func (s *Store) Close() error { return s.ldb.Close() }

// Save writes every peer currently in db to the store, keyed by raw peer
// id, value = announcement wire form || state byte.
func (s *Store) Save(db *DB) error {
	batch := new(leveldb.Batch)
	for id, info := range db.Snapshot() {
		val := append(EncodeAnnouncement(info.LastAnnounce), byte(info.State))
		batch.Put(append([]byte{}, id[:]...), val)
	}
	return s.ldb.Write(batch, nil)
}

// Load restores a DB from the store's current contents, bounded by
// listenerBound (max_size_listeners_per_peer) for announcement decoding.
func (s *Store) Load(listenerBound uint64) (*DB, error) {
	db := NewDB()
	iter := s.ldb.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != IDLength {
			continue
		}
		var id ID
		copy(id[:], key)

		val := iter.Value()
		if len(val) == 0 {
			continue
		}
		state := State(val[len(val)-1])
		ann, _, err := DecodeAnnouncement(val[:len(val)-1], listenerBound)
		if err != nil {
			continue
		}
		db.Upsert(id, ann, state)
	}
	return db, iter.Error()
}
