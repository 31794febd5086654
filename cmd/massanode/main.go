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

// Command massanode runs a standalone peer-management node: handshake
// driver, reactor, tester pool, admin API, NAT traversal and DNS seed
// publishing wired together from a TOML configuration file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/massa-labs/go-massa/adminapi"
	"github.com/massa-labs/go-massa/config"
	"github.com/massa-labs/go-massa/log"
	"github.com/massa-labs/go-massa/peer"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
		Value: "massanode.toml",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "loglevel",
		Usage: "log verbosity (trace|debug|info|warn|error)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "massanode"
	app.Usage = "peer-management node"
	app.Flags = []cli.Flag{configFileFlag, logLevelFlag}
	app.Action = runNode
	app.Commands = []cli.Command{peersCommand}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (config.Config, error) {
	path := ctx.GlobalString(configFileFlag.Name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runNode(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl := ctx.GlobalString(logLevelFlag.Name); lvl != "" {
		cfg.LogLevel = lvl
	}
	levels := map[string]log.Lvl{"trace": log.LvlTrace, "debug": log.LvlDebug, "info": log.LvlInfo, "warn": log.LvlWarn, "error": log.LvlError}
	if l, ok := levels[cfg.LogLevel]; ok {
		log.SetLevel(l)
	}

	logger := log.New("component", "massanode")
	logger.Info("starting node", "admin_api", cfg.AdminAPIListenAddr, "log_level", cfg.LogLevel)

	db := peer.NewDB()
	if cfg.PeerDBPath != "" {
		store, err := peer.OpenStore(cfg.PeerDBPath)
		if err != nil {
			return fmt.Errorf("open peer db: %w", err)
		}
		defer store.Close()
		if loaded, err := store.Load(cfg.MaxSizeListenersPerPeer); err == nil {
			db = loaded
			logger.Info("loaded peer database", "path", cfg.PeerDBPath, "peers", db.Len())
		} else {
			logger.Warn("could not load peer database, starting empty", "path", cfg.PeerDBPath, "err", err)
		}
		defer func() {
			if err := store.Save(db); err != nil {
				logger.Error("failed to persist peer database on shutdown", "err", err)
			}
		}()
	}

	n, err := newNode(cfg, db, logger)
	if err != nil {
		return fmt.Errorf("build node: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- n.run(runCtx) }()

	srv := adminapi.New(db, n.reactor.Events())
	logger.Info("serving admin api", "addr", cfg.AdminAPIListenAddr)

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- http.ListenAndServe(cfg.AdminAPIListenAddr, srv.Handler()) }()

	select {
	case err := <-httpErrCh:
		cancel()
		<-errCh
		return err
	case <-runCtx.Done():
		<-errCh // n.run returns ctx.Err() on a clean signal-triggered shutdown; not a failure
		return nil
	}
}

var peersCommand = cli.Command{
	Name:  "peers",
	Usage: "query a running node's peer database over its admin API",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "addr", Value: "127.0.0.1:33810", Usage: "admin API address"},
	},
	Action: printPeers,
}

func printPeers(ctx *cli.Context) error {
	addr := ctx.String("addr")
	resp, err := http.Get("http://" + addr + "/peers")
	if err != nil {
		return fmt.Errorf("query admin api: %w", err)
	}
	defer resp.Body.Close()

	return renderPeersTable(resp.Body)
}

