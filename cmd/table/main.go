// Package main starts the table real-time service and handles termination.
//
// The process is a transport adapter around room lifecycle, session state
// mutation, and fan-out; each room's state lives in memory and checkpoints to
// a JSON snapshot on explicit saves.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tablecmd "github.com/louisbranch/mesa.live/internal/cmd/table"
)

func main() {
	cfg, err := tablecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[TABLE] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tablecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
