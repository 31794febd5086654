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

// Package config loads a node's TOML configuration file, covering every
// key the executed-ops core, the peer database, and the handshake driver
// are parameterized by.
package config

import (
	"os"

	"github.com/naoina/toml"
)

// Config is the full set of configuration keys a massanode process reads
// at startup.
type Config struct {
	ThreadCount          uint8  `toml:"thread_count"`
	BootstrapPartSize    uint64 `toml:"bootstrap_part_size"`
	MaxExecutedOpsLength uint64 `toml:"max_executed_ops_length"`
	MaxOperationsPerSlot uint64 `toml:"max_operations_per_block"`

	MaxSizePeersAnnouncement uint64 `toml:"max_size_peers_announcement"`
	MaxSizeListenersPerPeer  uint64 `toml:"max_size_listeners_per_peer"`

	RoutableIP string            `toml:"routable_ip"` // empty means "not configured"
	Listeners  map[string]string `toml:"listeners"`    // "host:port" -> "tcp"|"quic"
	Version    string            `toml:"version"`      // "major.minor"

	BootstrapPeerChunkSize int `toml:"bootstrap_peer_chunk_size"`

	TesterWorkers               int `toml:"tester_workers"`
	TesterDefaultTargetOutConns int `toml:"tester_default_target_out_connections"`
	TesterRetestIntervalSeconds int `toml:"tester_retest_interval_seconds"`

	ReactorTickIntervalSeconds int `toml:"reactor_tick_interval_seconds"`
	ReactorSampleSize          int `toml:"reactor_sample_size"`

	AdminAPIListenAddr string `toml:"admin_api_listen_addr"`

	DNSSeedDomain     string `toml:"dns_seed_domain"`
	DNSSeedProvider   string `toml:"dns_seed_provider"` // "route53" | "cloudflare"
	DNSSeedTTLSeconds int    `toml:"dns_seed_ttl_seconds"`

	DNSSeedRoute53HostedZoneID     string `toml:"dns_seed_route53_hosted_zone_id"`
	DNSSeedRoute53AccessKeyID     string `toml:"dns_seed_route53_access_key_id"` // empty uses the default AWS credential chain
	DNSSeedRoute53SecretAccessKey string `toml:"dns_seed_route53_secret_access_key"`

	DNSSeedCloudflareAPIToken string `toml:"dns_seed_cloudflare_api_token"`
	DNSSeedCloudflareZoneID   string `toml:"dns_seed_cloudflare_zone_id"`

	ListenAddr string `toml:"listen_addr"` // own inbound TCP listener; empty disables accepting connections

	PeerDBPath string `toml:"peer_db_path"` // goleveldb directory; empty disables persistence
	LogLevel   string `toml:"log_level"`
}

// Default returns a Config with the same conservative values the teacher's
// own node ships as defaults.
func Default() Config {
	return Config{
		ThreadCount:                  32,
		BootstrapPartSize:            10000,
		MaxExecutedOpsLength:         1000000,
		MaxOperationsPerSlot:         10000,
		MaxSizePeersAnnouncement:     1000,
		MaxSizeListenersPerPeer:      100,
		Version:                      "1.0",
		BootstrapPeerChunkSize:       1000,
		TesterWorkers:                4,
		TesterDefaultTargetOutConns:  5,
		TesterRetestIntervalSeconds:  60,
		ReactorTickIntervalSeconds:   10,
		ReactorSampleSize:            100,
		AdminAPIListenAddr:           "127.0.0.1:33810",
		DNSSeedTTLSeconds:            300,
		ListenAddr:                   "0.0.0.0:33811",
		LogLevel:                     "info",
	}
}

// Load reads and parses a TOML configuration file at path, starting from
// Default() so an omitted key keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
