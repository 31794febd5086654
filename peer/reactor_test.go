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
	"sync"
	"testing"
	"time"
)

type fakeConns struct {
	mu        sync.Mutex
	connected []ID
	sent      []InboundMessage
	disc      []ID
}

func (f *fakeConns) Send(id ID, msgID byte, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, InboundMessage{From: id, MsgID: msgID, Body: body})
	return nil
}
func (f *fakeConns) Connected() []ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ID{}, f.connected...)
}
func (f *fakeConns) Disconnect(id ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disc = append(f.disc, id)
	return nil
}

// TestBannedPeerListPeersNotForwarded mirrors scenario S6: a ListPeers
// message from a peer already marked Banned must not reach the tester
// channel at all.
func TestBannedPeerListPeersNotForwarded(t *testing.T) {
	db := NewDB()
	banned := ID{1}
	db.BanPeer(banned)

	testerOut := make(chan PeerListeners, 10)
	conns := &fakeConns{}
	r := NewReactor(Config{MaxSizePeersAnnouncement: 100, MaxSizeListenersPerPeer: 100}, db, conns, testerOut)

	go r.Run()
	defer func() { r.Commands() <- Command{Kind: CmdStop} }()

	body := EncodeListPeersFrame([]PeerListeners{{ID: ID{2}, Listeners: nil}})
	r.Inbound() <- InboundMessage{From: banned, MsgID: MsgListPeers, Body: body}

	select {
	case <-testerOut:
		t.Fatal("expected no candidate to reach the tester channel from a banned sender")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReactorForwardsNewPeerConnectedToTester(t *testing.T) {
	db := NewDB()
	testerOut := make(chan PeerListeners, 10)
	conns := &fakeConns{}
	r := NewReactor(Config{MaxSizePeersAnnouncement: 100, MaxSizeListenersPerPeer: 100}, db, conns, testerOut)

	go r.Run()
	defer func() { r.Commands() <- Command{Kind: CmdStop} }()

	id := ID{5}
	body := EncodeNewPeerConnected(id, Listeners{"a:1": 0})
	r.Inbound() <- InboundMessage{From: ID{99}, MsgID: MsgNewPeerConnected, Body: body}

	select {
	case pl := <-testerOut:
		if pl.ID != id {
			t.Fatalf("expected candidate id %v, got %v", id, pl.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the candidate to reach the tester channel")
	}
}

func TestBanCommandBroadcastsBanNotice(t *testing.T) {
	db := NewDB()
	other := ID{2}
	target := ID{1}
	db.Upsert(other, Announcement{Timestamp: 1}, Trusted)
	db.Upsert(target, Announcement{Timestamp: 1}, Trusted)

	testerOut := make(chan PeerListeners, 10)
	conns := &fakeConns{connected: []ID{other, target}}
	r := NewReactor(Config{}, db, conns, testerOut)

	go r.Run()
	defer func() { r.Commands() <- Command{Kind: CmdStop} }()

	r.Commands() <- Command{Kind: CmdBan, IDs: []ID{target}}
	time.Sleep(100 * time.Millisecond)

	if db.State(target) != Banned {
		t.Fatal("expected the target peer to be marked banned")
	}

	conns.mu.Lock()
	defer conns.mu.Unlock()
	found := false
	for _, msg := range conns.sent {
		if msg.From == other && msg.MsgID == MsgBanNotice {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a BanNotice to be sent to the other connected peer")
	}
}
