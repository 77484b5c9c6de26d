package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/price-tracker/internal/app"
	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/metrics"
	"github.com/joseph-ayodele/price-tracker/internal/server"
)

func main() {
	configFile := flag.String("config", "", "optional config file (yaml, json or toml)")
	secretFile := flag.String("secret", common.DefaultSecretFile, "JSON file holding openai_api_key")
	flag.Parse()

	cfg, err := common.LoadConfig(common.LoadOptions{ConfigFile: *configFile, SecretFile: *secretFile})
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log.Level, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("price-tracker stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is done or the gRPC server fails. Everything it opens
// is closed before it returns.
func run(ctx context.Context, cfg common.Config, logger *slog.Logger, opts ...app.Option) error {
	a, err := app.New(ctx, cfg, logger, opts...)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("failed to close", "error", cerr)
		}
	}()

	if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	svc := server.NewPriceService(a.Processor, a.StoreSvc, a.Export, a.Images, logger)
	grpcServer, healthServer := server.NewGRPCServer(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.GRPCAddr, err)
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(a.Registry))
		metricsServer = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics serve error", "error", err)
			}
		}()
	}

	logger.Info("price-tracker listening", "addr", lis.Addr().String(), "db_driver", cfg.Database.Driver)
	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcServer.Serve(lis) }()

	var result error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		result = fmt.Errorf("grpc serve: %w", err)
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		cancel()
	}
	grpcServer.GracefulStop()
	return result
}
