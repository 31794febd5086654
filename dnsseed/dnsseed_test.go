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

package dnsseed

import (
	"context"
	"testing"

	"github.com/massa-labs/go-massa/peer"
	"github.com/massa-labs/go-massa/transport"
)

type fakeBackend struct {
	current map[string]string
	upserts map[string]string
	deletes []string
}

func (f *fakeBackend) ListTXT(ctx context.Context) (map[string]string, error) {
	return f.current, nil
}

func (f *fakeBackend) ApplyChanges(ctx context.Context, upsert map[string]string, del []string) error {
	f.upserts = upsert
	f.deletes = del
	return nil
}

func TestPublishComputesMinimalDiff(t *testing.T) {
	backend := &fakeBackend{current: map[string]string{
		"seed.example.org":          "0000000000000000",
		"0000000000000000.seed.example.org": "stale:1/tcp",
		"stale-only.seed.example.org":        "x:1/tcp",
	}}
	seeder := New(backend, "seed.example.org")

	entries := []peer.PeerListeners{
		{ID: peer.ID{0}, Listeners: peer.Listeners{"fresh:1": transport.TypeTCP}},
	}
	if err := seeder.Publish(context.Background(), entries); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if _, ok := backend.upserts["0000000000000000.seed.example.org"]; !ok {
		t.Fatal("expected the changed leaf record to be upserted")
	}
	if _, ok := backend.upserts["seed.example.org"]; !ok {
		t.Fatal("expected the root record to be upserted")
	}
	found := false
	for _, name := range backend.deletes {
		if name == "stale-only.seed.example.org" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the orphaned leaf record to be deleted")
	}
}

func TestPublishNoOpWhenUnchanged(t *testing.T) {
	entries := []peer.PeerListeners{
		{ID: peer.ID{0}, Listeners: peer.Listeners{"fresh:1": transport.TypeTCP}},
	}
	leaf := leafName("seed.example.org", peer.ID{0})
	backend := &fakeBackend{current: map[string]string{
		"seed.example.org": leaf,
		leaf:                "fresh:1/tcp",
	}}
	seeder := New(backend, "seed.example.org")

	if err := seeder.Publish(context.Background(), entries); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if backend.upserts != nil || backend.deletes != nil {
		t.Fatal("expected no changes when the desired record set already matches")
	}
}
