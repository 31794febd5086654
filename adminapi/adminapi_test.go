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

package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/massa-labs/go-massa/peer"
)

func TestHandlePeersReturnsSnapshot(t *testing.T) {
	db := peer.NewDB()
	id := peer.ID{1}
	db.Upsert(id, peer.Announcement{Listeners: peer.Listeners{"a:1": 0}, Timestamp: 42}, peer.Trusted)

	srv := New(db, peer.NewBroadcaster())
	req := httptest.NewRequest(http.MethodGet, "/peers", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var views []peerView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(views) != 1 || views[0].ID != id.String() {
		t.Fatalf("unexpected peers payload: %+v", views)
	}
	if views[0].State != "trusted" {
		t.Fatalf("expected state trusted, got %s", views[0].State)
	}
}

func TestHandleStatsReportsCount(t *testing.T) {
	db := peer.NewDB()
	db.Upsert(peer.ID{1}, peer.Announcement{}, peer.Trusted)
	db.Upsert(peer.ID{2}, peer.Announcement{}, peer.Trusted)

	srv := New(db, peer.NewBroadcaster())
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var stats statsView
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.TotalPeers != 2 {
		t.Fatalf("expected 2 peers, got %d", stats.TotalPeers)
	}
}
