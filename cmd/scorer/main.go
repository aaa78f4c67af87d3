// Package main starts the scorer HTTP service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	scorercmd "github.com/louisbranch/courtside/internal/cmd/scorer"
	"github.com/louisbranch/courtside/internal/platform/config"
)

func main() {
	cfg, err := scorercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SCORER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Probe {
		if err := scorercmd.Probe(ctx, cfg); err != nil {
			stop()
			config.Exitf("scorer unhealthy: %v", err)
		}
		return
	}
	if err := scorercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
