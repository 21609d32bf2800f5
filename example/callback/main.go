package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"marinecore"
)

func main() {
	cfg, err := marinecore.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	hub, err := marinecore.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	hub.Service().OnInstancesDetected(func(snap marinecore.Snapshot) {
		fmt.Printf("tick: %d engines, %d batteries, %d tanks\n",
			len(snap.Engines), len(snap.Batteries), len(snap.Tanks))
		for _, e := range snap.Engines {
			fmt.Printf("  %s [%s] last seen %s\n", e.Title, e.ID, e.LastSeen.Format("15:04:05"))
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := hub.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("hub runtime exited: %v", err)
	}
}
