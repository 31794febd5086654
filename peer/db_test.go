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
	"testing"

	"github.com/massa-labs/go-massa/transport"
)

func TestBanExcludesFromRandomSample(t *testing.T) {
	db := NewDB()
	a, b := ID{1}, ID{2}
	db.Upsert(a, Announcement{Listeners: Listeners{"a:1": transport.TypeTCP}, Timestamp: 1}, Trusted)
	db.Upsert(b, Announcement{Listeners: Listeners{"b:1": transport.TypeTCP}, Timestamp: 2}, Trusted)

	db.BanPeer(a)
	if db.State(a) != Banned {
		t.Fatal("expected a to be banned")
	}

	sample := db.GetRandPeersToSend(10)
	for _, p := range sample {
		if p.ID == a {
			t.Fatal("banned peer must never appear in get_rand_peers_to_send")
		}
	}
	if db.Len() != 2 {
		t.Fatal("banning must not remove the peer from the database")
	}
}

func TestUnbanPeer(t *testing.T) {
	db := NewDB()
	id := ID{3}
	db.Upsert(id, Announcement{Listeners: Listeners{"c:1": transport.TypeTCP}, Timestamp: 1}, Trusted)
	db.BanPeer(id)
	db.UnbanPeer(id)
	if db.State(id) == Banned {
		t.Fatal("expected unban to clear the banned state")
	}
}

func TestRandPeersToSendExcludesEmptyListeners(t *testing.T) {
	db := NewDB()
	id := ID{4}
	db.Upsert(id, Announcement{Timestamp: 1}, Trusted)
	if got := db.GetRandPeersToSend(10); len(got) != 0 {
		t.Fatalf("expected 0 candidates for a peer with no listeners, got %d", len(got))
	}
}

func TestIndexByNewestStaysSortedDescending(t *testing.T) {
	db := NewDB()
	db.Upsert(ID{1}, Announcement{Timestamp: 5}, Trusted)
	db.Upsert(ID{2}, Announcement{Timestamp: 9}, Trusted)
	db.Upsert(ID{3}, Announcement{Timestamp: 1}, Trusted)
	// Re-announce id 1 at a later timestamp: its index entry must move.
	db.Upsert(ID{1}, Announcement{Timestamp: 20}, Trusted)

	db.mu.RLock()
	defer db.mu.RUnlock()
	if len(db.indexByNewest) != 3 {
		t.Fatalf("expected 3 index entries, got %d", len(db.indexByNewest))
	}
	for i := 1; i < len(db.indexByNewest); i++ {
		if db.indexByNewest[i-1].timestamp < db.indexByNewest[i].timestamp {
			t.Fatal("indexByNewest must stay sorted descending by timestamp")
		}
	}
	if db.indexByNewest[0].id != (ID{1}) {
		t.Fatal("expected the freshly re-announced peer to be first")
	}
}
