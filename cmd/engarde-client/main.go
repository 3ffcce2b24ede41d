// Command engarde-client sits between a local VPN daemon and a remote
// engarde-server, fanning outbound VPN datagrams across every local network
// interface and funnelling replies back into the single VPN-facing socket.
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
	"github.com/lthau91/engarde/internal/clientrouter"
	"github.com/lthau91/engarde/internal/config"
	"github.com/lthau91/engarde/internal/netiface"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:     "engarde-client [config-path|list-interfaces]",
		Short:   "Fan out VPN datagrams across every local network interface",
		Version: buildinfo.Version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    run,
	}
	root.SetVersionTemplate(buildinfo.String("engarde-client"))
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, args []string) error {
	logger := newLogger(logLevel)

	if len(args) == 1 && args[0] == "list-interfaces" {
		return listInterfaces()
	}

	path := config.DefaultConfigPath
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := config.LoadClient(path)
	if err != nil {
		return fmt.Errorf("engarde-client: %w", err)
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

	logger.Info("starting engarde-client",
		"component", "main", "version", buildinfo.Version, "listen", cfg.ListenAddr, "dst", cfg.DstAddr)

	svc := clientrouter.NewService(cfg, netiface.NewNetlinkLister(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("engarde-client: %w", err)
	}

	logger.Info("engarde-client stopped", "component", "main")
	return nil
}

// listInterfaces implements the list-interfaces CLI mode (spec §6): prints
// each interface's name and eligible address, opens no UDP socket, exits 0.
func listInterfaces() error {
	lister := netiface.NewNetlinkLister()
	ifaces, err := lister.List()
	if err != nil {
		return fmt.Errorf("engarde-client: list-interfaces: %w", err)
	}

	for _, iface := range ifaces {
		addr := ""
		if iface.Addr != nil {
			addr = iface.Addr.String()
		}
		fmt.Println(iface.Name)
		fmt.Printf("  Address: %s\n", addr)
	}
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
