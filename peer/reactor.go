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
	"net/netip"
	"time"

	"github.com/massa-labs/go-massa/log"
)

// Connections is the active-connections collaborator the reactor uses to
// reach currently connected peers; the transport layer supplies the real
// implementation.
type Connections interface {
	Send(id ID, msgID byte, body []byte) error
	Connected() []ID
	Disconnect(id ID) error
}

// CommandKind tags a Command's variant.
type CommandKind int

const (
	CmdBan CommandKind = iota
	CmdUnban
	CmdGetBootstrapPeers
	CmdStop
)

// Command is one administrative request sent to the reactor's command
// channel.
type Command struct {
	Kind      CommandKind
	IDs       []ID                 // Ban, Unban
	Responder chan []PeerListeners // GetBootstrapPeers
}

// InboundMessage is one (peer_id, message_id, bytes) frame delivered by the
// transport/handshake layer.
type InboundMessage struct {
	From  ID
	MsgID byte
	Body  []byte
}

// Config bounds the reactor's behavior, sourced from the configuration
// keys in the external interfaces section.
type Config struct {
	TickInterval             time.Duration
	SampleSize               int
	MaxSizePeersAnnouncement uint64
	MaxSizeListenersPerPeer  uint64
	RoutableIP               *netip.Addr
	OwnListeners             Listeners
	SelfID                   ID
}

// Reactor is the single-threaded event loop multiplexing a periodic tick,
// an inbound-message channel, and a command channel, realized in Go as one
// goroutine selecting over three channels — the direct analogue of the
// source's crossbeam::select! over OS threads.
type Reactor struct {
	config    Config
	db        *DB
	conns     Connections
	events    *Broadcaster
	commands  chan Command
	inbound   chan InboundMessage
	testerOut chan PeerListeners
	log       log.Logger
}

// NewReactor constructs a Reactor. testerOut is the bounded channel the
// tester pool consumes from; the reactor only ever try-sends to it.
func NewReactor(config Config, db *DB, conns Connections, testerOut chan PeerListeners) *Reactor {
	return &Reactor{
		config:    config,
		db:        db,
		conns:     conns,
		events:    NewBroadcaster(),
		commands:  make(chan Command, 16),
		inbound:   make(chan InboundMessage, 256),
		testerOut: testerOut,
		log:       log.New("component", "peer-reactor"),
	}
}

// Commands returns the channel callers send administrative Commands on.
func (r *Reactor) Commands() chan<- Command { return r.commands }

// Inbound returns the channel the handshake/transport layer delivers
// (peer_id, message_id, bytes) frames on.
func (r *Reactor) Inbound() chan<- InboundMessage { return r.inbound }

// Events returns the broadcaster adminapi subscribes to for live updates.
func (r *Reactor) Events() *Broadcaster { return r.events }

// Run drives the event loop until a CmdStop command is processed or the
// inbound channel is closed. It is meant to be launched in its own
// goroutine: `go reactor.Run()`.
func (r *Reactor) Run() {
	interval := r.config.TickInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick()
		case cmd, ok := <-r.commands:
			if !ok {
				return
			}
			if r.handleCommand(cmd) {
				r.drainTester()
				return
			}
		case msg, ok := <-r.inbound:
			if !ok {
				return
			}
			r.handleInbound(msg)
		}
	}
}

// tick samples up to config.SampleSize peers and sends them as a ListPeers
// message to every currently connected peer.
func (r *Reactor) tick() {
	sample := r.db.GetRandPeersToSend(r.sampleSize())
	body := append([]byte{MsgListPeers}, EncodeListPeersFrame(sample)...)
	for _, id := range r.conns.Connected() {
		if err := r.conns.Send(id, MsgListPeers, body); err != nil {
			r.log.Debug("tick send failed", "peer", id, "err", err)
		}
	}
}

func (r *Reactor) sampleSize() int {
	if r.config.SampleSize <= 0 {
		return 100
	}
	return r.config.SampleSize
}

// handleCommand processes one Command and reports whether the reactor
// should stop.
func (r *Reactor) handleCommand(cmd Command) bool {
	switch cmd.Kind {
	case CmdBan:
		r.ban(cmd.IDs)
	case CmdUnban:
		for _, id := range cmd.IDs {
			r.db.UnbanPeer(id)
			r.events.Publish(Event{Kind: EventUnbanned, ID: id})
		}
	case CmdGetBootstrapPeers:
		r.getBootstrapPeers(cmd.Responder)
	case CmdStop:
		return true
	}
	return false
}

// ban shuts down any active connection to each id, marks it Banned, and
// broadcasts an advisory BanNotice (message id 8) to every other currently
// connected peer so they can independently deprioritize it.
func (r *Reactor) ban(ids []ID) {
	banned := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		banned[id] = struct{}{}
		if err := r.conns.Disconnect(id); err != nil {
			r.log.Debug("disconnect on ban failed", "peer", id, "err", err)
		}
		r.db.BanPeer(id)
		r.events.Publish(Event{Kind: EventBanned, ID: id})
	}
	for _, connected := range r.conns.Connected() {
		if _, justBanned := banned[connected]; justBanned {
			continue
		}
		for id := range banned {
			body := append([]byte{MsgBanNotice}, EncodeBanNotice(id)...)
			if err := r.conns.Send(connected, MsgBanNotice, body); err != nil {
				r.log.Debug("ban notice send failed", "peer", connected, "err", err)
			}
		}
	}
}

// getBootstrapPeers samples up to config.SampleSize peers (100 when unset)
// and, if a routable IP is
// configured, includes self with the configured listeners. It replies
// through cmd.Responder without blocking: a responder nobody is listening
// on anymore is logged and dropped.
func (r *Reactor) getBootstrapPeers(responder chan []PeerListeners) {
	sample := r.db.GetRandPeersToSend(r.sampleSize())
	if r.config.RoutableIP != nil {
		sample = append(sample, PeerListeners{ID: r.config.SelfID, Listeners: r.config.OwnListeners})
	}
	select {
	case responder <- sample:
	default:
		r.log.Debug("get-bootstrap-peers responder gone, dropping reply")
	}
}

// handleInbound dispatches one (peer_id, message_id, bytes) frame.
func (r *Reactor) handleInbound(msg InboundMessage) {
	if r.db.State(msg.From) == Banned {
		r.log.Debug("dropping message from banned peer", "peer", msg.From)
		return
	}

	switch msg.MsgID {
	case MsgNewPeerConnected:
		id, listeners, err := DecodeNewPeerConnected(msg.Body, r.config.MaxSizeListenersPerPeer)
		if err != nil {
			r.log.Debug("malformed NewPeerConnected", "peer", msg.From, "err", err)
			return
		}
		r.forwardToTester(PeerListeners{ID: id, Listeners: listeners})
	case MsgListPeers:
		peers, err := DecodeListPeersFrame(msg.Body, r.config.MaxSizePeersAnnouncement, r.config.MaxSizeListenersPerPeer)
		if err != nil {
			r.log.Debug("malformed ListPeers", "peer", msg.From, "err", err)
			return
		}
		for _, p := range peers {
			r.forwardToTester(p)
		}
	case MsgBanNotice:
		id, err := DecodeBanNotice(msg.Body)
		if err != nil {
			r.log.Debug("malformed BanNotice", "peer", msg.From, "err", err)
			return
		}
		r.log.Debug("received advisory ban notice", "from", msg.From, "about", id)
	default:
		r.log.Debug("unknown message id, dropping", "peer", msg.From, "id", msg.MsgID)
	}
}

// forwardToTester performs a non-blocking try-send to the tester channel;
// a full channel means backpressure, logged and dropped rather than
// blocking the reactor.
func (r *Reactor) forwardToTester(pl PeerListeners) {
	select {
	case r.testerOut <- pl:
	default:
		r.log.Debug("tester channel full, dropping candidate", "peer", pl.ID)
	}
}

// drainTester empties any pending tester-output messages non-blockingly
// before the reactor exits, per the Stop command's contract.
func (r *Reactor) drainTester() {
	for {
		select {
		case <-r.testerOut:
		default:
			return
		}
	}
}
