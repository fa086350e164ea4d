/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/orderpacing/internal/config"
	"github.com/friendsincode/orderpacing/internal/logging"
	"github.com/friendsincode/orderpacing/internal/pacing"
	"github.com/friendsincode/orderpacing/internal/rules"
	"github.com/friendsincode/orderpacing/internal/server"
	"github.com/friendsincode/orderpacing/internal/store"
	"github.com/friendsincode/orderpacing/internal/telemetry"
	"github.com/friendsincode/orderpacing/internal/version"
)

var (
	logger  zerolog.Logger
	cfg     *config.Config
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "pacingd",
	Short: "Order pacing service",
	Long:  "pacingd tracks order volume per location, opens busy periods when pacing rules trigger, and tells callers how long new orders must wait.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pacing API server",
	Long:  "Start the HTTP API and the Prometheus metrics listener",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before configuration")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadEnvFile applies a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.Version).Msg("pacingd starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "pacingd",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	httpServer := srv.HTTPServer()
	metricsServer := srv.MetricsServer()
	serveErr := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("addr", metricsServer.Addr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-serveErr:
		logger.Error().Err(runErr).Msg("listener failed")
	}

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := metricsServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("metrics shutdown failed")
	}

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("pacingd stopped")
	return runErr
}

// openEngine builds a standalone engine for one bucket from configuration.
// The returned func releases the store.
func openEngine(ctx context.Context, bucket string) (*pacing.Engine, func(), error) {
	st, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if closer, ok := st.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	set := &rules.RuleSet{}
	if cfg.RulesFile != "" {
		set, err = rules.LoadFile(cfg.RulesFile)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("load rules: %w", err)
		}
	}

	e, err := pacing.New(pacing.Options{
		Store:      st,
		Keys:       store.Keyspace{Prefix: cfg.KeyPrefix},
		Bucket:     bucket,
		Mode:       pacing.TimeframeMode(cfg.TimeframeMode),
		Timezone:   cfg.Timezone,
		Rules:      set,
		EmptyRules: pacing.EmptyRulesPolicy(cfg.EmptyRules),
		Logger:     logger,
	})
	if err != nil {
		release()
		return nil, nil, err
	}
	return e, release, nil
}
