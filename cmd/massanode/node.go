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

package main

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	cloudflare "github.com/cloudflare/cloudflare-go"

	"github.com/massa-labs/go-massa/config"
	"github.com/massa-labs/go-massa/crypto"
	"github.com/massa-labs/go-massa/dnsseed"
	"github.com/massa-labs/go-massa/handshake"
	"github.com/massa-labs/go-massa/log"
	"github.com/massa-labs/go-massa/natdisco"
	"github.com/massa-labs/go-massa/peer"
	"github.com/massa-labs/go-massa/peer/tester"
	"github.com/massa-labs/go-massa/transport"
)

// node bundles the live collaborators runNode wires together: the peer
// database, the reactor event loop, the tester pool, the connection
// table the handshake driver registers into, and this node's own
// identity and announced listeners.
type node struct {
	cfg    config.Config
	logger log.Logger

	self       *crypto.KeyPair
	selfID     peer.ID
	listeners  peer.Listeners
	version    handshake.Version
	routableIP *netip.Addr

	db      *peer.DB
	conns   *connTable
	reactor *peer.Reactor
	pool    *tester.Pool
	seeder  *dnsseed.Seeder
}

func newNode(cfg config.Config, db *peer.DB, logger log.Logger) (*node, error) {
	self, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate node identity: %w", err)
	}
	listeners, err := parseListeners(cfg.Listeners)
	if err != nil {
		return nil, fmt.Errorf("parse listeners: %w", err)
	}
	version, err := parseVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("parse version: %w", err)
	}

	conns := newConnTable()
	testerOut := make(chan peer.PeerListeners, 256)

	reactorCfg := peer.Config{
		TickInterval:             time.Duration(cfg.ReactorTickIntervalSeconds) * time.Second,
		SampleSize:               cfg.ReactorSampleSize,
		MaxSizePeersAnnouncement: cfg.MaxSizePeersAnnouncement,
		MaxSizeListenersPerPeer:  cfg.MaxSizeListenersPerPeer,
		OwnListeners:             listeners,
		SelfID:                   peer.ID(crypto.PeerIDFromPublicKey(self.PublicKey())),
	}
	routableIP, err := parseRoutableIP(cfg.RoutableIP)
	if err != nil {
		return nil, fmt.Errorf("parse routable_ip: %w", err)
	}
	if routableIP == nil {
		if port, ok := listenPort(cfg.ListenAddr); ok {
			if mapping, ok := natdisco.Discover(port, "tcp", "go-massa"); ok {
				logger.Info("discovered routable address via NAT traversal", "ip", mapping.ExternalIP, "port", mapping.ExternalPort)
				routableIP = &mapping.ExternalIP
			}
		}
	}
	reactorCfg.RoutableIP = routableIP
	reactor := peer.NewReactor(reactorCfg, db, conns, testerOut)

	pool := tester.NewPool(tester.Config{
		NumWorkers:                  cfg.TesterWorkers,
		DefaultTargetOutConnections: cfg.TesterDefaultTargetOutConns,
		RetestInterval:              time.Duration(cfg.TesterRetestIntervalSeconds) * time.Second,
	}, db, probeReachability, testerOut)

	seeder, err := buildSeeder(cfg)
	if err != nil {
		logger.Warn("dns seed publishing disabled", "err", err)
	}

	return &node{
		cfg:        cfg,
		logger:     logger,
		self:       self,
		selfID:     reactorCfg.SelfID,
		listeners:  listeners,
		version:    version,
		routableIP: routableIP,
		db:         db,
		conns:      conns,
		reactor:    reactor,
		pool:       pool,
		seeder:     seeder,
	}, nil
}

// handshakeConfig returns the per-connection handshake.Config template;
// callers must set Endpoint before calling handshake.Run.
func (n *node) handshakeConfig() handshake.Config {
	return handshake.Config{
		Self:           n.self,
		SelfVersion:    n.version,
		SelfListeners:  n.listeners,
		SelfRoutableIP: n.routableIP,
		DB:             n.db,
		Inbound:        n.reactor.Inbound(),
		Sample:         n.db.GetRandPeersToSend,
		ListenerBound:  n.cfg.MaxSizeListenersPerPeer,
	}
}

// run launches every background loop: the reactor, the tester pool, the
// inbound accept loop (if a listen address is configured), the outbound
// dial loop, and periodic DNS seed publishing (if configured). It blocks
// until ctx is canceled.
func (n *node) run(ctx context.Context) error {
	go n.reactor.Run()
	n.pool.Start()

	var ln net.Listener
	if n.cfg.ListenAddr != "" {
		var err error
		ln, err = net.Listen("tcp", n.cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", n.cfg.ListenAddr, err)
		}
		n.logger.Info("accepting inbound connections", "addr", n.cfg.ListenAddr)
		go n.acceptLoop(ln)
	}

	dialInterval := time.Duration(n.cfg.ReactorTickIntervalSeconds) * time.Second
	if dialInterval <= 0 {
		dialInterval = 10 * time.Second
	}
	go n.dialLoop(ctx, dialInterval)

	if n.seeder != nil {
		go n.publishLoop(ctx, dialInterval)
	}

	<-ctx.Done()
	if ln != nil {
		ln.Close()
	}
	n.reactor.Commands() <- peer.Command{Kind: peer.CmdStop}
	return ctx.Err()
}

func (n *node) acceptLoop(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			n.logger.Debug("accept loop stopping", "err", err)
			return
		}
		go n.handleConn(c)
	}
}

func (n *node) dialLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.dialMissingTrusted()
		}
	}
}

const maxDialsPerTick = 5

// dialMissingTrusted dials out to Trusted peers the connTable doesn't
// already hold an endpoint for, bounded per tick so a large peer
// database can't cause a connection storm.
func (n *node) dialMissingTrusted() {
	dialed := 0
	connected := n.conns.Connected()
	isConnected := make(map[peer.ID]bool, len(connected))
	for _, id := range connected {
		isConnected[id] = true
	}

	for id, info := range n.db.Snapshot() {
		if dialed >= maxDialsPerTick {
			return
		}
		if info.State != peer.Trusted || isConnected[id] {
			continue
		}
		for addr, typ := range info.LastAnnounce.Listeners {
			if typ != transport.TypeTCP {
				continue
			}
			c, err := net.DialTimeout("tcp", addr, 5*time.Second)
			if err != nil {
				n.logger.Debug("dial failed", "peer", id, "addr", addr, "err", err)
				break
			}
			dialed++
			go n.handleConn(c)
			break
		}
	}
}

func (n *node) handleConn(c net.Conn) {
	ep := transport.NewConn(c)
	cfg := n.handshakeConfig()
	cfg.Endpoint = ep

	id, err := handshake.Run(cfg)
	if err != nil {
		n.logger.Debug("handshake failed", "peer", id, "err", err)
		ep.Close()
		return
	}
	n.conns.register(id, ep)
	n.readLoop(id, ep)
}

// readLoop forwards every subsequent frame on ep to the reactor until the
// connection closes, then removes it from the connection table.
func (n *node) readLoop(id peer.ID, ep transport.Endpoint) {
	defer func() {
		n.conns.remove(id)
		ep.Close()
	}()
	for {
		frame, err := ep.Receive()
		if err != nil {
			n.logger.Debug("connection closed", "peer", id, "err", err)
			return
		}
		if len(frame) == 0 {
			continue
		}
		n.reactor.Inbound() <- peer.InboundMessage{From: id, MsgID: frame[0], Body: frame[1:]}
	}
}

func (n *node) publishLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.publishOnce(ctx)
		}
	}
}

func (n *node) publishOnce(ctx context.Context) {
	sample := n.db.GetRandPeersToSend(n.cfg.ReactorSampleSize)
	if len(n.listeners) > 0 {
		sample = append(sample, peer.PeerListeners{ID: n.selfID, Listeners: n.listeners})
	}
	if err := n.seeder.Publish(ctx, sample); err != nil {
		n.logger.Warn("dns seed publish failed", "err", err)
	}
}

// probeReachability is the tester pool's Prober: a bare reachability
// check, independent of the handshake protocol.
func probeReachability(addr string, typ transport.Type) bool {
	if typ != transport.TypeTCP {
		return false
	}
	c, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		return false
	}
	c.Close()
	return true
}

func parseListeners(raw map[string]string) (peer.Listeners, error) {
	out := make(peer.Listeners, len(raw))
	for addr, kind := range raw {
		switch strings.ToLower(kind) {
		case "tcp":
			out[addr] = transport.TypeTCP
		case "quic":
			out[addr] = transport.TypeQUIC
		default:
			return nil, fmt.Errorf("listener %s: unknown transport %q", addr, kind)
		}
	}
	return out, nil
}

func parseVersion(raw string) (handshake.Version, error) {
	if raw == "" {
		return handshake.Version{Major: 1}, nil
	}
	var major, minor uint32
	if _, err := fmt.Sscanf(raw, "%d.%d", &major, &minor); err != nil {
		return handshake.Version{}, fmt.Errorf("version %q must be major.minor: %w", raw, err)
	}
	return handshake.Version{Major: major, Minor: minor}, nil
}

func parseRoutableIP(raw string) (*netip.Addr, error) {
	if raw == "" {
		return nil, nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func listenPort(addr string) (int, bool) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, false
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return 0, false
	}
	return port, true
}

// buildSeeder constructs the DNS seed backend named by
// cfg.DNSSeedProvider. It returns (nil, nil) when no provider is
// configured, which callers treat as "seeding disabled".
func buildSeeder(cfg config.Config) (*dnsseed.Seeder, error) {
	if cfg.DNSSeedProvider == "" || cfg.DNSSeedDomain == "" {
		return nil, nil
	}
	switch strings.ToLower(cfg.DNSSeedProvider) {
	case "route53":
		backend, err := dnsseed.NewRoute53Backend(
			context.Background(),
			cfg.DNSSeedRoute53AccessKeyID,
			cfg.DNSSeedRoute53SecretAccessKey,
			cfg.DNSSeedRoute53HostedZoneID,
			int64(cfg.DNSSeedTTLSeconds),
		)
		if err != nil {
			return nil, fmt.Errorf("build route53 backend: %w", err)
		}
		return dnsseed.New(backend, cfg.DNSSeedDomain), nil
	case "cloudflare":
		api, err := cloudflare.NewWithAPIToken(cfg.DNSSeedCloudflareAPIToken)
		if err != nil {
			return nil, fmt.Errorf("build cloudflare client: %w", err)
		}
		backend := &dnsseed.CloudflareBackend{API: api, ZoneID: cfg.DNSSeedCloudflareZoneID, TTL: cfg.DNSSeedTTLSeconds}
		return dnsseed.New(backend, cfg.DNSSeedDomain), nil
	default:
		return nil, fmt.Errorf("unknown dns seed provider %q", cfg.DNSSeedProvider)
	}
}
