// Package main starts the atlas location service.
//
// This process owns the campaign location tree: the JSON API for tree
// mutations and the websocket feed that fans mutation events out to
// campaign subscribers.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	atlascmd "github.com/westmarch/atlas/internal/cmd/atlas"
)

func main() {
	cfg, err := atlascmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ATLAS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := atlascmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
