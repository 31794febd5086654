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

// Package tester implements the fixed worker pool that probes
// newly-learned peer listeners for reachability before the peer database
// promotes them toward Trusted.
package tester

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/massa-labs/go-massa/log"
	"github.com/massa-labs/go-massa/peer"
	"github.com/massa-labs/go-massa/transport"
)

// Prober attempts to reach one listener, the out-of-scope transport-level
// collaborator this package is built against.
type Prober func(addr string, typ transport.Type) bool

// Config bounds the pool's policy.
type Config struct {
	NumWorkers                  int
	TargetOutConnections        map[string]int // by listener group/address prefix, policy-defined
	DefaultTargetOutConnections int
	RetestInterval              time.Duration
}

// Pool is a fixed pool of worker goroutines consuming (peer_id, listeners)
// candidates from a bounded channel, joinable on shutdown.
type Pool struct {
	config Config
	db     *peer.DB
	probe  Prober
	in     chan peer.PeerListeners
	recent *lru.Cache // key: "<peerID>|<addr>" -> time.Time of last test
	wg     sync.WaitGroup
	log    log.Logger
}

// NewPool constructs a Pool reading candidates from in and updating db.
func NewPool(config Config, db *peer.DB, probe Prober, in chan peer.PeerListeners) *Pool {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 4
	}
	recent, _ := lru.New(4096)
	return &Pool{
		config: config,
		db:     db,
		probe:  probe,
		in:     in,
		recent: recent,
		log:    log.New("component", "peer-tester"),
	}
}

// Start launches the configured number of worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.config.NumWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Join blocks until every worker has exited, which happens once the input
// channel is closed.
func (p *Pool) Join() {
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for candidate := range p.in {
		p.test(candidate)
	}
}

func (p *Pool) test(candidate peer.PeerListeners) {
	if len(candidate.Listeners) == 0 {
		return
	}
	retest := p.config.RetestInterval
	if retest <= 0 {
		retest = time.Minute
	}

	reached := false
	for addr, typ := range candidate.Listeners {
		target := p.targetFor(addr)
		if p.outConnections(addr) >= target {
			// Group is already at its configured out-connection target;
			// don't spend a probe on a peer we don't need.
			continue
		}
		key := candidate.ID.String() + "|" + addr
		if last, ok := p.recent.Get(key); ok {
			if time.Since(last.(time.Time)) < retest {
				continue
			}
		}
		p.recent.Add(key, time.Now())
		if p.probe(addr, typ) {
			reached = true
		}
	}

	if reached {
		p.db.SetState(candidate.ID, peer.Trusted)
		p.log.Debug("peer reachable, promoted", "peer", candidate.ID)
		return
	}

	switch p.db.State(candidate.ID) {
	case peer.Unknown:
		// Never probed successfully and no prior standing: leave it
		// untouched rather than demoting a peer we've simply not yet
		// earned an opinion about.
	case peer.Trusted:
		p.db.SetState(candidate.ID, peer.HandshakeFailed)
		p.log.Debug("peer unreachable, demoted", "peer", candidate.ID)
	default:
		p.log.Debug("peer unreachable", "peer", candidate.ID)
	}
}

// groupPrefix returns the longest key of TargetOutConnections that
// prefixes addr, or "" if none match (the default group).
func (p *Pool) groupPrefix(addr string) string {
	prefix := ""
	for candidate := range p.config.TargetOutConnections {
		if len(candidate) > len(prefix) && strings.HasPrefix(addr, candidate) {
			prefix = candidate
		}
	}
	return prefix
}

// unboundedTarget is returned when no policy caps a group's out
// connections, so probing is never suppressed by target accounting.
const unboundedTarget = int(^uint(0) >> 1)

// targetFor resolves the out-connection target for addr's group: the
// value of the longest TargetOutConnections key that prefixes addr, or
// DefaultTargetOutConnections if none match. A zero DefaultTargetOutConnections
// means no policy was configured at all, not a target of zero.
func (p *Pool) targetFor(addr string) int {
	prefix := p.groupPrefix(addr)
	if prefix != "" {
		return p.config.TargetOutConnections[prefix]
	}
	if _, ok := p.config.TargetOutConnections[""]; ok {
		return p.config.TargetOutConnections[""]
	}
	if p.config.DefaultTargetOutConnections <= 0 {
		return unboundedTarget
	}
	return p.config.DefaultTargetOutConnections
}

// outConnections counts peers already Trusted through a listener sharing
// addr's group prefix, i.e. the out connections already "spent" against
// that group's target.
func (p *Pool) outConnections(addr string) int {
	prefix := p.groupPrefix(addr)

	count := 0
	for _, info := range p.db.Snapshot() {
		if info.State != peer.Trusted {
			continue
		}
		for listener := range info.LastAnnounce.Listeners {
			if strings.HasPrefix(listener, prefix) {
				count++
				break
			}
		}
	}
	return count
}
