package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/existflow/projectdraft/internal/config"
	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/server"
)

func main() {
	// Settings come from PORT, DATABASE_URL and PROJECTDRAFT_* only
	cfg, err := config.LoadFile(os.Getenv("PROJECTDRAFT_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	logCfg.FilePath = os.Getenv("PROJECTDRAFT_LOG_FILE")
	logCfg.Console = true
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("ProjectDraft server starting on %s (storage: %s)", cfg.Server.Addr, cfg.Storage.Driver)
	if err := server.Run(ctx, cfg); err != nil {
		logger.Error("Server failed", logger.F("error", err))
		log.Fatalf("Server failed: %v", err)
	}
}
