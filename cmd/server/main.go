package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janisto/hello-service/internal/http/routes"
	"github.com/janisto/hello-service/internal/platform/config"
	"github.com/janisto/hello-service/internal/platform/logging"
	"github.com/janisto/hello-service/internal/platform/metrics"
	"github.com/janisto/hello-service/internal/platform/respond"
	"github.com/janisto/hello-service/internal/platform/server"
	"github.com/janisto/hello-service/internal/platform/tracing"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	addrFlag    = "addr"
	verboseFlag = "verbose"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Serve a static greeting and a liveness probe",
		Long: `hello serves "Hello World" as plain text at / and an empty 200
response at /healthz. Settings come from the environment (optionally via a
.env file); flags override them.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().String(addrFlag, "", "TCP address to listen on, overrides HOST and PORT")
	cmd.Flags().BoolP(verboseFlag, "v", false, "log at debug level")
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hello %s\n", Version)
		},
	}
}

// applyFlags overlays explicitly set flags on cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed(addrFlag) {
		addr, err := cmd.Flags().GetString(addrFlag)
		if err != nil {
			return fmt.Errorf("read --%s: %w", addrFlag, err)
		}
		cfg.Addr = addr
	}
	verbose, err := cmd.Flags().GetBool(verboseFlag)
	if err != nil {
		return fmt.Errorf("read --%s: %w", verboseFlag, err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return nil
}

// run serves until ctx is cancelled or a listener fails, then shuts every
// listener down within cfg.ShutdownTimeout.
func run(ctx context.Context, cfg config.Config) error {
	defer func() { _ = logging.Sync() }()

	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Version:     Version,
	})
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := routes.Options{Version: Version, Metrics: m, DocsEnabled: cfg.DocsEnabled}
	if cfg.OTLPEndpoint != "" {
		opts.TraceService = cfg.ServiceName
	}

	listeners := map[string]*server.Server{
		"api": server.New(cfg.Addr, routes.NewRouter(opts), cfg.MaxConnections),
	}
	if cfg.MetricsAddr != "" {
		listeners["metrics"] = server.New(cfg.MetricsAddr, metricsRouter(m), 0)
	}
	for name, srv := range listeners {
		if err := srv.Validate(); err != nil {
			_ = shutdownTracing(ctx)
			return fmt.Errorf("%s listener: %w", name, err)
		}
	}

	listenErr := make(chan error, len(listeners))
	for name, srv := range listeners {
		go func() {
			if err := srv.Start(); err != nil {
				listenErr <- fmt.Errorf("%s listener: %w", name, err)
			}
		}()
		go func() {
			select {
			case <-srv.Ready():
				logging.LogInfo(ctx, "server listening", zap.String("listener", name), zap.String("addr", srv.Addr()))
			case <-ctx.Done():
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logging.LogInfo(context.Background(), "shutdown signal received")
	case runErr = <-listenErr:
		logging.LogError(context.Background(), "listen failed", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	errs := []error{runErr}
	for name, srv := range listeners {
		if err := srv.Stop(shutdownCtx); err != nil {
			logging.LogError(shutdownCtx, "server shutdown error", err, zap.String("listener", name))
			errs = append(errs, fmt.Errorf("%s listener: %w", name, err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.LogError(shutdownCtx, "tracing shutdown error", err)
		errs = append(errs, err)
	}
	logging.LogInfo(context.Background(), "server exited")
	return errors.Join(errs...)
}

func metricsRouter(m *metrics.Metrics) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())
	router.Method(http.MethodGet, "/metrics", m.Handler())
	return router
}
