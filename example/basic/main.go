package main

import (
	"context"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := hub.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("hub runtime exited: %v", err)
	}
}
