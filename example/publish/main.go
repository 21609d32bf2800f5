package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"marinecore"
)

// Publishes hand-crafted battery records into the default record store,
// standing in for a real bus decoder feeding the hub.
func main() {
	cfg, err := marinecore.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Simulator.Enabled = false

	hub, err := marinecore.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	hub.Service().OnInstancesDetected(func(snap marinecore.Snapshot) {
		for _, b := range snap.Batteries {
			if v, ok := hub.Service().Metric(marinecore.SensorBattery, b.Number, "voltage"); ok {
				fmt.Printf("%s: %s\n", b.Title, marinecore.FormatMetric("voltage", v.Value))
			}
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hub.RecordStore().Publish(marinecore.RawRecord{
					PGN:      marinecore.PGNBatteryStatus,
					Source:   0x30,
					Instance: 0,
					Battery:  &marinecore.BatteryFields{Voltage: 12.7},
				})
			}
		}
	}()

	if err := hub.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("hub runtime exited: %v", err)
	}
}
