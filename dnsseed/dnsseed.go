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

// Package dnsseed publishes a rolling sample of trusted peers as DNS TXT
// records, so a freshly-started node with no peer database can bootstrap
// by resolving a well-known domain instead of needing a hardcoded list.
//
// Each peer gets one leaf record at "<hex of the first 8 bytes of the peer
// id>.<domain>" holding its
// encoded listener set; a root record at "<domain>" holds the set of leaf
// names currently published, so a resolver knows what to look up.
package dnsseed

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/massa-labs/go-massa/log"
	"github.com/massa-labs/go-massa/peer"
)

// Backend is the subset of a DNS provider's API a Seeder needs. Route53Backend
// and CloudflareBackend satisfy it against their respective SDKs.
type Backend interface {
	// ListTXT returns every TXT record this seeder currently manages,
	// keyed by fully-qualified name, value unquoted.
	ListTXT(ctx context.Context) (map[string]string, error)
	// ApplyChanges performs the given upserts and deletes in as many
	// batches as the provider's API requires.
	ApplyChanges(ctx context.Context, upsert map[string]string, delete []string) error
}

// Seeder publishes the current bootstrap peer sample to a DNS Backend.
type Seeder struct {
	backend Backend
	domain  string
	log     log.Logger
}

// New returns a Seeder that publishes records under domain via backend.
func New(backend Backend, domain string) *Seeder {
	return &Seeder{backend: backend, domain: strings.TrimSuffix(domain, "."), log: log.New("component", "dnsseed")}
}

func leafName(domain string, id peer.ID) string {
	return fmt.Sprintf("%s.%s", hex.EncodeToString(id[:8]), domain)
}

// Publish computes the record set for entries and reconciles it against
// whatever is currently published, issuing only the upserts and deletes
// needed to converge — mirroring the teacher's leaf/root diffing scheme.
func (s *Seeder) Publish(ctx context.Context, entries []peer.PeerListeners) error {
	desired := make(map[string]string, len(entries)+1)
	leaves := make([]string, 0, len(entries))

	for _, e := range entries {
		name := leafName(s.domain, e.ID)
		desired[name] = encodeListenersTXT(e.Listeners)
		leaves = append(leaves, name)
	}
	sort.Strings(leaves)
	desired[s.domain] = strings.Join(leaves, ",")

	current, err := s.backend.ListTXT(ctx)
	if err != nil {
		return fmt.Errorf("list existing dns seed records: %w", err)
	}

	upsert, del := computeChanges(desired, current)
	if len(upsert) == 0 && len(del) == 0 {
		s.log.Debug("dns seed records already up to date", "domain", s.domain)
		return nil
	}
	s.log.Info("publishing dns seed records", "domain", s.domain, "upserts", len(upsert), "deletes", len(del))
	return s.backend.ApplyChanges(ctx, upsert, del)
}

// computeChanges diffs desired against current and returns the minimal set
// of upserts (added or changed) and deletes (present in current but absent
// from desired) needed to make current equal desired.
func computeChanges(desired, current map[string]string) (upsert map[string]string, del []string) {
	upsert = make(map[string]string)
	for name, value := range desired {
		if existing, ok := current[name]; !ok || existing != value {
			upsert[name] = value
		}
	}
	for name := range current {
		if _, ok := desired[name]; !ok {
			del = append(del, name)
		}
	}
	sort.Strings(del)
	return upsert, del
}

func encodeListenersTXT(listeners peer.Listeners) string {
	keys := make([]string, 0, len(listeners))
	for addr := range listeners {
		keys = append(keys, addr)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, addr := range keys {
		parts = append(parts, fmt.Sprintf("%s/%s", addr, listeners[addr].String()))
	}
	return strings.Join(parts, ";")
}
