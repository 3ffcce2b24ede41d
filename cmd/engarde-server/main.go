// Command engarde-server sits in front of a remote VPN daemon, accepting
// datagrams from any number of engarde-client source addresses and
// forwarding each VPN-originated datagram to every currently live client.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lthau91/engarde/internal/buildinfo"
	"github.com/lthau91/engarde/internal/config"
	"github.com/lthau91/engarde/internal/serverrouter"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:     "engarde-server [config-path]",
		Short:   "Accept VPN datagrams from any number of engarde-client paths",
		Version: buildinfo.Version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    run,
	}
	root.SetVersionTemplate(buildinfo.String("engarde-server"))
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, args []string) error {
	logger := newLogger(logLevel)

	path := config.DefaultConfigPath
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := config.LoadServer(path)
	if err != nil {
		return fmt.Errorf("engarde-server: %w", err)
	}
	if cfg.WriteTimeoutCoerced {
		logger.Warn("write timeout is not implemented yet; forcing to 0", "component", "config")
	}
	if cfg.Description != "" {
		logger.Info(cfg.Description, "component", "config")
	}

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		logger.Debug("telemetry endpoint configured but this build does not export",
			"component", "main", "endpoint", endpoint)
	}

	logger.Info("starting engarde-server",
		"component", "main", "version", buildinfo.Version, "listen", cfg.ListenAddr, "dst", cfg.DstAddr,
		"client_timeout", cfg.ClientTimeoutDuration())

	svc := serverrouter.NewService(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("engarde-server: %w", err)
	}

	logger.Info("engarde-server stopped", "component", "main")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
