package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/NicolasLM/sauna/delivery"
	"github.com/NicolasLM/sauna/internal/engine"
	"github.com/NicolasLM/sauna/observe"
	"github.com/NicolasLM/sauna/store"
)

// shutdownGrace bounds how long Stop waits for in-flight deliveries and
// pull servers to close once a shutdown signal is received.
const shutdownGrace = 10 * time.Second

func newRunCmd(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the health-check daemon (the default when no subcommand is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(cmd.Context(), flags, log)
		},
	}
}

// runEngine loads and resolves the configuration, builds the engine, and
// drives it until ctx receives SIGINT or SIGTERM.
func runEngine(ctx context.Context, flags *globalFlags, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New()
	resolved, err := resolveFromFile(flags.configPath, st)
	if err != nil {
		return fmt.Errorf("sauna: %w", err)
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "sauna",
		Logging:     observe.LoggingConfig{Enabled: true, Level: observeLevel(flags.level)},
	})
	if err != nil {
		return fmt.Errorf("sauna: building observability: %w", err)
	}

	eng, err := engine.New(resolved, st, obs, delivery.DefaultPolicy(), log.WithField("component", "engine"))
	if err != nil {
		return fmt.Errorf("sauna: building engine: %w", err)
	}

	log.WithFields(logrus.Fields{
		"hostname": resolved.Hostname,
		"checks":   len(resolved.Checks),
	}).Info("sauna starting")

	runErr := eng.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	eng.Stop(stopCtx)

	log.Info("sauna stopped")
	return runErr
}

// observeLevel maps a logrus level name onto the observe package's own
// narrower set (debug|info|warn|error): logrus also accepts trace/panic/
// fatal, which observe.Config.Validate rejects.
func observeLevel(level string) string {
	switch level {
	case "trace":
		return "debug"
	case "panic", "fatal":
		return "error"
	case "debug", "info", "warn", "error":
		return level
	default:
		return "warn"
	}
}
