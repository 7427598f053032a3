// Command ccs runs a single node of the consensus cluster service: it
// discovers its peers over DNS, drives the leader-election protocol, serves
// the peer-facing HTTP/JSON RPCs, and launches the configured payload
// script on every role transition.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ccs/internal/config"
	"ccs/internal/discovery"
	"ccs/internal/launcher"
	"ccs/internal/raft"
	transporthttp "ccs/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("ccs: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	_, port, err := net.SplitHostPort(cfg.HTTPAddr)
	if err != nil {
		logger.Fatalf("ccs: invalid HTTP_ADDR %q: %v", cfg.HTTPAddr, err)
	}

	peers, err := discovery.Discover(discovery.DefaultResolver, cfg.AppName, cfg.Hostname, port)
	if err != nil {
		logger.Fatalf("ccs: peer discovery failed: %v", err)
	}
	logger.WithField("peers", peers).Info("discovered peers")

	node := raft.NewNode(raft.Config{
		ID:                 cfg.Hostname,
		Peers:              peers,
		ElectionTimeoutMin: cfg.ElectionTimeoutLower,
		ElectionTimeoutMax: cfg.ElectionTimeoutUpper,
		HeartbeatInterval:  cfg.HeartbeatInterval,
		Client:             raft.NewHTTPPeerClient(cfg.PeerClientTimeout),
		Logger:             logger,
	})

	launch := launcher.New(node.Events(), cfg.ScriptLeaderPath, cfg.ScriptFollowerPath, logger)
	launch.Start()
	defer launch.Stop()

	server := transporthttp.NewServer(cfg.HTTPAddr, node, cfg.AppName, logger)
	server.Start()

	node.Start()
	defer node.Shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("ccs: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("ccs: error during HTTP shutdown")
	}
}
