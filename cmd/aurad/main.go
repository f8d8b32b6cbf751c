// aurad runs the sensor-to-particles inference pipeline: it merges sensor
// telemetry into world snapshots, runs the quantized model on the edge
// accelerator at the target frame rate, and streams binary particle frames
// to viewers over MQTT.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/config"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/core"
)

const defaultConfigPath = "config/aura.yaml"

func main() {
	configPath := pflag.String("config", defaultConfigPath, "Path to configuration file")
	healthPort := pflag.String("health-port", "8080", "HTTP health check port")
	debug := pflag.Bool("debug", false, "Enable debug logging")
	pflag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting aurad",
		"config", *configPath,
		"debug", *debug,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	aura, err := core.New(cfg)
	if err != nil {
		slog.Error("failed to create pipeline", "error", err)
		os.Exit(1)
	}

	if err := aura.StartHealthServer(*healthPort); err != nil {
		slog.Error("failed to start health check server", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- aura.Run(ctx)
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		cancel()
		<-errChan
	case runErr = <-errChan:
		if runErr != nil {
			slog.Error("pipeline stopped", "error", runErr)
		} else {
			slog.Info("pipeline stopped (via control plane shutdown)")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	if err := aura.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}

	if runErr != nil {
		// Degraded startup: exit non-zero so the supervisor starts the
		// configured fallback path.
		os.Exit(2)
	}

	slog.Info("aurad stopped")
}
