package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/config"
	"nublack-orders/internal/orders"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	port := flag.Int("port", 0, "override the HTTP port from the config")
	flag.Parse()

	lg := logger.New("order-service")

	cfg, err := config.Load(*configPath)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": *configPath})
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lg.Info("service_started", map[string]any{"service": "order-service", "port": cfg.HTTP.Port})
	if err := orders.Run(ctx, cfg, lg); err != nil {
		lg.Error("fatal", err, nil)
		os.Exit(1)
	}
}
