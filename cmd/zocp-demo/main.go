/*
zocp-demo runs a single ZOCP node that publishes a small capability
tree (an "arm" object with an angle attribute) and logs peer activity.

Usage:

    zocp-demo [options]

Options:

  -name="zocp-demo": This node's public name
  -config="": Path to a zocp.yaml config file (searched for if empty)
  -angle-access="rwe": Access flags for the demo angle attribute
*/
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	zocp "github.com/fieldOfView/zocp-go"
	"github.com/fieldOfView/zocp-go/capability"
	"github.com/fieldOfView/zocp-go/config"
	"github.com/fieldOfView/zocp-go/dispatch"
)

var (
	name        = flag.String("name", "zocp-demo", "This node's public name")
	configPath  = flag.String("config", "", "Path to a zocp.yaml config file (searched for if empty)")
	angleAccess = flag.String("angle-access", "rwe", "Access flags for the demo angle attribute")
)

func main() {
	flag.Parse()

	path, err := config.FindConfig(*configPath)
	var cfg *config.Config
	if err != nil {
		cfg = config.Default()
	} else if cfg, err = config.Load(path); err != nil {
		slog.Error("failed to load config", "path", path, "err", err)
		os.Exit(1)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	log := config.NewLogger(level)

	nodeName := *name
	if cfg.Node.Name != "" {
		nodeName = cfg.Node.Name
	}

	node, err := zocp.New(nodeName, log)
	if err != nil {
		log.Error("failed to create node", "err", err)
		os.Exit(1)
	}
	for k, v := range cfg.Node.Headers {
		node.SetHeader(k, v)
	}

	node.SetCallbacks(dispatch.Callbacks{
		OnPeerEnter: func(peer string) { log.Info("peer entered", "peer", peer) },
		OnPeerExit:  func(peer string) { log.Info("peer exited", "peer", peer) },
	})

	arm, err := node.Root().Object("arm", "demo-arm")
	if err != nil {
		log.Error("failed to open arm object", "err", err)
		os.Exit(1)
	}
	min, max := 0.0, 180.0
	bounds := capability.Bounds{Min: &min, Max: &max}
	if err := arm.RegisterFloat("angle", 90, *angleAccess, bounds); err != nil {
		log.Error("failed to register angle attribute", "err", err)
		os.Exit(1)
	}

	if err := node.Start(); err != nil {
		log.Error("failed to start transport", "err", err)
		os.Exit(1)
	}
	defer node.Stop()

	node.ScheduleRepeating(5*time.Second, func() {
		log.Debug("known peers", "count", len(node.Peers()))
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	go func() {
		<-sigCh
		node.StopLoop()
	}()

	log.Info("zocp-demo running", "name", node.Name(), "uuid", node.Uuid())
	node.Run(200 * time.Millisecond)
}
