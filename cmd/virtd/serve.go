package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtd/internal/config"
	"github.com/jbweber/virtd/internal/dispatch"
	"github.com/jbweber/virtd/internal/libvirt"
	"github.com/jbweber/virtd/internal/logging"
	"github.com/jbweber/virtd/internal/server"
	"github.com/jbweber/virtd/internal/telemetry"
	"github.com/jbweber/virtd/internal/virt"
)

// telemetryShutdownTimeout bounds the final trace flush.
const telemetryShutdownTimeout = 5 * time.Second

var (
	listenAddr string
	uri        string
	logLevel   string
	strict     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve LibvirtService over gRPC",
	Long: `Open a connection to libvirt and serve LibvirtService until interrupted.

Flags override values from the configuration file. Failing to open the
libvirt connection at startup is fatal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := logging.Configure(cfg.LogLevel); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdown, err := telemetry.Setup(ctx, cfg.Tracing, "virtd", version)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("flush traces", "err", err)
			}
		}()

		conn, err := openConnection(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Close(); err != nil {
				slog.Warn("close libvirt connection", "err", err)
			}
		}()

		mode := dispatch.ModeAcknowledge
		if cfg.StrictErrors {
			mode = dispatch.ModeStrict
		}
		slog.Info("starting virtd",
			"version", version,
			"listen", cfg.Listen,
			"uri", cfg.URI,
			"mode", mode,
			"serialized", cfg.SerializeNativeCalls,
		)

		srv := server.New(dispatch.New(conn, dispatch.WithMode(mode)))
		return srv.ListenAndServe(ctx, cfg.Listen)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", config.DefaultListen, "gRPC listen address")
	serveCmd.Flags().StringVar(&uri, "uri", config.DefaultURI, "libvirt connection URI")
	serveCmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&strict, "strict", false, "Report hypervisor failures as gRPC errors")

	checkCmd.Flags().StringVar(&uri, "uri", config.DefaultURI, "libvirt connection URI")
}

// loadConfig reads the configuration file and applies flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = listenAddr
	}
	if flags.Changed("uri") {
		cfg.URI = uri
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("strict") {
		cfg.StrictErrors = strict
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openConnection opens and verifies the shared libvirt connection.
func openConnection(ctx context.Context, cfg *config.Config) (*virt.Connection, error) {
	var opts []virt.Option
	if cfg.SerializeNativeCalls {
		opts = append(opts, virt.WithSerializedCalls())
	}

	driver := libvirt.NewDriver(cfg.SocketPath, cfg.DialTimeout)
	conn, err := virt.Open(ctx, driver, cfg.URI, opts...)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}
	return conn, nil
}
