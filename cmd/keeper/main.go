package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/keeper"
	"github.com/fuelstack/intent-bridge/internal/ledger"
)

// Custom formatter that outputs only the message
type cleanFormatter struct{}

func (f *cleanFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateKeeper(); err != nil {
		logrus.Fatalf("Invalid keeper configuration: %v", err)
	}

	logger := setupLogger(cfg)
	logger.Info("🔮 Intent Bridge Keeper")
	logger.Infof("📊 Destination: %s, ledger: %s", cfg.DestinationType, cfg.DatabaseType)
	for _, chain := range cfg.SourceChains {
		logger.Infof("   %s (chain %d): open gate %s", chain.Name, chain.ChainID, chain.OpenGate.Hex())
	}

	store, err := openLedger(cfg)
	if err != nil {
		logger.Fatalf("❌ Failed to open ledger: %v", err)
	}
	defer store.Close()

	registry, err := config.NewRegistry(cfg.SourceChains, logger)
	if err != nil {
		logger.Fatalf("❌ Failed to connect to source chains: %v", err)
	}
	defer registry.Close()

	manager := keeper.NewManager(cfg, registry, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		logger.Fatalf("❌ Failed to start keeper: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("🔄 Received shutdown signal, shutting down...")

	cancel()
	manager.Stop()
	logger.Info("✅ Keeper shutdown complete")
}

// openLedger selects the ledger backend from configuration.
func openLedger(cfg *config.Config) (ledger.Store, error) {
	if cfg.DatabaseType == "sqlite" {
		return ledger.OpenSQLite(cfg.DatabasePath)
	}
	return ledger.NewMemoryStore(), nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level %s, using info: %v", cfg.LogLevel, err)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		// Custom formatter that outputs only the message text
		logger.SetFormatter(&cleanFormatter{})
	}

	return logger
}
