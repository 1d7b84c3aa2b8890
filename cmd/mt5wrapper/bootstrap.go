package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"mt5-wrapper/internal/history"
	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/recon"
	"mt5-wrapper/internal/recon/reconobs"
	"mt5-wrapper/internal/robots"
	"mt5-wrapper/internal/store"
	"mt5-wrapper/internal/terminal"
	"mt5-wrapper/internal/terminal/terminalobs"
	"mt5-wrapper/internal/trace"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	// Load environment variables (experts path, gateway key, log settings)
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeSessions builds the terminal client and wraps the configured
// session lifecycle policy with observability middleware. The raw provider
// is returned alongside so main can tear down a persistent session on exit.
func initializeSessions(ctx context.Context, cfg *store.Config) (interfaces.SessionProvider, interfaces.SessionProvider) {
	client := terminal.NewClient(cfg)
	provider := terminal.NewSessionProvider(cfg, client)

	if cfg.Terminal.ConnectionPolicy == store.PolicyPersistent {
		logger.Info(ctx, "Using persistent terminal session", "base_url", cfg.Terminal.BaseURL)
	} else {
		logger.Info(ctx, "Using per-request terminal sessions", "base_url", cfg.Terminal.BaseURL)
	}

	return terminalobs.WrapProvider(provider), provider
}

// initializeReconciler builds the lifecycle reconciler with observability
func initializeReconciler(sessions interfaces.SessionProvider) interfaces.Reconciler {
	return reconobs.Wrap(recon.New(sessions))
}

// initializeHistory builds the windowed history selector
func initializeHistory(ctx context.Context, cfg *store.Config, sessions interfaces.SessionProvider) interfaces.History {
	logger.Info(ctx, "History selector configured",
		"lookback_days", cfg.History.LookbackDays,
		"anchor_symbol", cfg.History.AnchorSymbol,
	)
	return history.NewSelector(cfg, sessions)
}

// initializeRobots builds the robot registry
func initializeRobots(ctx context.Context, cfg *store.Config) interfaces.RobotRegistry {
	if cfg.Robots.ExpertsPath == "" {
		logger.Warn(ctx, "Experts path not configured - /robots will return an error")
	}
	return robots.NewRegistry(cfg.Robots.ExpertsPath)
}
