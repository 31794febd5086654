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

package tester

import (
	"testing"
	"time"

	"github.com/massa-labs/go-massa/peer"
	"github.com/massa-labs/go-massa/transport"
)

func TestPoolPromotesReachablePeer(t *testing.T) {
	db := peer.NewDB()
	in := make(chan peer.PeerListeners, 4)
	probe := func(addr string, typ transport.Type) bool { return addr == "good:1" }

	pool := NewPool(Config{NumWorkers: 2}, db, probe, in)
	pool.Start()

	id := peer.ID{1}
	in <- peer.PeerListeners{ID: id, Listeners: peer.Listeners{"good:1": transport.TypeTCP}}
	close(in)
	pool.Join()

	if db.State(id) != peer.Trusted {
		t.Fatalf("expected a reachable peer to be promoted to Trusted, got %v", db.State(id))
	}
}

func TestPoolLeavesUnreachableUnknownPeerAlone(t *testing.T) {
	db := peer.NewDB()
	in := make(chan peer.PeerListeners, 4)
	probe := func(addr string, typ transport.Type) bool { return false }

	pool := NewPool(Config{NumWorkers: 1}, db, probe, in)
	pool.Start()

	id := peer.ID{2}
	in <- peer.PeerListeners{ID: id, Listeners: peer.Listeners{"bad:1": transport.TypeTCP}}
	close(in)
	pool.Join()

	if db.State(id) != peer.Unknown {
		t.Fatalf("expected an unreachable never-seen peer to remain Unknown, got %v", db.State(id))
	}
}

func TestPoolSkipsRecentlyTestedListener(t *testing.T) {
	db := peer.NewDB()
	in := make(chan peer.PeerListeners, 4)
	calls := 0
	probe := func(addr string, typ transport.Type) bool {
		calls++
		return true
	}

	pool := NewPool(Config{NumWorkers: 1, RetestInterval: time.Hour}, db, probe, in)
	pool.Start()

	id := peer.ID{3}
	candidate := peer.PeerListeners{ID: id, Listeners: peer.Listeners{"x:1": transport.TypeTCP}}
	in <- candidate
	in <- candidate
	close(in)
	pool.Join()

	if calls != 1 {
		t.Fatalf("expected the second test within the retest interval to be skipped, probe called %d times", calls)
	}
}

func TestPoolSkipsProbingOnceGroupTargetMet(t *testing.T) {
	db := peer.NewDB()
	already := peer.ID{9}
	db.Upsert(already, peer.Announcement{Listeners: peer.Listeners{"10.0.0.1:1": transport.TypeTCP}}, peer.Trusted)

	in := make(chan peer.PeerListeners, 4)
	calls := 0
	probe := func(addr string, typ transport.Type) bool {
		calls++
		return true
	}

	pool := NewPool(Config{
		NumWorkers:           1,
		TargetOutConnections: map[string]int{"10.0.0.": 1},
	}, db, probe, in)
	pool.Start()

	id := peer.ID{4}
	in <- peer.PeerListeners{ID: id, Listeners: peer.Listeners{"10.0.0.2:1": transport.TypeTCP}}
	close(in)
	pool.Join()

	if calls != 0 {
		t.Fatalf("expected probing to be skipped once the group's out-connection target was already met, probe called %d times", calls)
	}
	if db.State(id) != peer.Unknown {
		t.Fatalf("expected candidate left untouched, got %v", db.State(id))
	}
}

func TestPoolProbesBelowGroupTarget(t *testing.T) {
	db := peer.NewDB()
	in := make(chan peer.PeerListeners, 4)
	probe := func(addr string, typ transport.Type) bool { return true }

	pool := NewPool(Config{
		NumWorkers:           1,
		TargetOutConnections: map[string]int{"10.0.0.": 2},
	}, db, probe, in)
	pool.Start()

	id := peer.ID{5}
	in <- peer.PeerListeners{ID: id, Listeners: peer.Listeners{"10.0.0.3:1": transport.TypeTCP}}
	close(in)
	pool.Join()

	if db.State(id) != peer.Trusted {
		t.Fatalf("expected candidate under target to be probed and promoted, got %v", db.State(id))
	}
}

func TestPoolDemotesFormerlyTrustedUnreachablePeer(t *testing.T) {
	db := peer.NewDB()
	id := peer.ID{6}
	db.Upsert(id, peer.Announcement{Listeners: peer.Listeners{"x:1": transport.TypeTCP}}, peer.Trusted)

	in := make(chan peer.PeerListeners, 4)
	probe := func(addr string, typ transport.Type) bool { return false }

	pool := NewPool(Config{NumWorkers: 1}, db, probe, in)
	pool.Start()

	in <- peer.PeerListeners{ID: id, Listeners: peer.Listeners{"x:1": transport.TypeTCP}}
	close(in)
	pool.Join()

	if db.State(id) != peer.HandshakeFailed {
		t.Fatalf("expected a formerly Trusted peer that failed retest to be demoted, got %v", db.State(id))
	}
}
