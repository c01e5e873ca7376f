package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"camclip/internal/config"
	"camclip/internal/daemon"
	"camclip/internal/logging"
	"camclip/internal/store"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "camclipd.log")
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ledger, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}
	defer ledger.Close()

	d, err := daemon.New(buildDaemonOptions(cfg, logger, ledger))
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}
	logger.Info("camclipd ready",
		logging.String("camera", cfg.Camera.Name),
		logging.String("addr", d.APIAddr()))

	<-ctx.Done()
	logger.Info("camclipd shutting down")
	d.Stop()
}
