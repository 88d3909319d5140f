package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sei-gateway/go-backend/internal/composition/gatewayserver"
	"sei-gateway/go-backend/internal/config"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "", "Path to gateway.yaml (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("sei-gateway version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("sei-gateway failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := gatewayserver.NewLogger(os.Stdout, cfg.LogLevel())
	srv, err := gatewayserver.New(cfg, version, logger)
	if err != nil {
		log.Fatalf("sei-gateway failed to initialize: %v", err)
	}
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("sei-gateway failed: %v", err)
	}
}
