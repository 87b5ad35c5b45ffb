package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/config"
	"github.com/fuelstack/intent-bridge/internal/solver"
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
	if err := cfg.ValidateSolver(); err != nil {
		logrus.Fatalf("Invalid solver configuration: %v", err)
	}

	logger := setupLogger(cfg)
	logger.Info("🙍 Intent Bridge Solver")
	logger.Infof("📊 Destination: %s, auto-fill: %v, fill delay: %s",
		cfg.DestinationType, cfg.AutoFill, cfg.FillDelay)

	registry, err := config.NewRegistry(cfg.SourceChains, logger)
	if err != nil {
		logger.Fatalf("❌ Failed to connect to source chains: %v", err)
	}
	defer registry.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One listener and filler pair per origin chain, all paying out on the
	// same destination.
	var wg sync.WaitGroup
	for _, origin := range registry.Origins() {
		filler, err := newFiller(origin, cfg, logger)
		if err != nil {
			logger.Fatalf("❌ Failed to build filler for %s: %v", origin.Name, err)
		}

		listener := solver.NewListener(origin, filler, cfg, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			listener.Run(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("🔄 Received shutdown signal, shutting down...")

	cancel()
	wg.Wait()
	logger.Info("✅ Solver shutdown complete")
}

// newFiller builds the destination-appropriate filler for one origin chain.
func newFiller(origin *config.OriginChain, cfg *config.Config, logger *logrus.Logger) (solver.Filler, error) {
	if cfg.DestinationType == "evm" {
		return solver.NewEVMFiller(origin, cfg.EVMDest, cfg.SolverEVMPrivateKey, logger)
	}

	filler, err := solver.NewStacksFiller(origin, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Infof("🔑 Solver Stacks account: %s (settlement to %s)", filler.Address(), cfg.SolverEVMAddress)
	return filler, nil
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
