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

// Package adminapi exposes a node's peer database over HTTP: a JSON
// snapshot endpoint for operator tooling and a websocket stream of live
// handshake/ban events.
package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/massa-labs/go-massa/log"
	"github.com/massa-labs/go-massa/peer"
)

// Server serves /peers, /stats and /events over HTTP.
type Server struct {
	db       *peer.DB
	events   *peer.Broadcaster
	log      log.Logger
	upgrader websocket.Upgrader
}

// New returns a Server reading from db and streaming events from events.
func New(db *peer.DB, events *peer.Broadcaster) *Server {
	return &Server{
		db:     db,
		events: events,
		log:    log.New("component", "adminapi"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the CORS-wrapped HTTP handler, ready to pass to
// http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/peers", s.handlePeers)
	router.GET("/stats", s.handleStats)
	router.GET("/events", s.handleEvents)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(router)
}

type peerView struct {
	ID        string            `json:"id"`
	State     string            `json:"state"`
	Listeners map[string]string `json:"listeners"`
	Timestamp uint64            `json:"timestamp"`
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snapshot := s.db.Snapshot()
	views := make([]peerView, 0, len(snapshot))
	for id, info := range snapshot {
		listeners := make(map[string]string, len(info.LastAnnounce.Listeners))
		for addr, typ := range info.LastAnnounce.Listeners {
			listeners[addr] = typ.String()
		}
		views = append(views, peerView{
			ID:        id.String(),
			State:     info.State.String(),
			Listeners: listeners,
			Timestamp: info.LastAnnounce.Timestamp,
		})
	}
	writeJSON(w, views)
}

type statsView struct {
	TotalPeers int    `json:"total_peers"`
	ServerTime string `json:"server_time"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, statsView{
		TotalPeers: s.db.Len(),
		ServerTime: nowRFC3339(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub := s.events.Subscribe()
	defer s.events.Unsubscribe(sub)

	for ev := range sub {
		payload := struct {
			Kind string `json:"kind"`
			ID   string `json:"id"`
		}{Kind: ev.Kind.String(), ID: ev.ID.String()}

		if err := conn.WriteJSON(payload); err != nil {
			s.log.Debug("websocket write failed, closing stream", "err", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// nowRFC3339 is a thin seam so tests can avoid depending on wall-clock time.
var nowRFC3339 = func() string { return time.Now().UTC().Format(time.RFC3339) }
