// Command filterd is the batch recompute daemon. It reads
// {"filter_id": N} requests from stdin, refits both leaderboard
// distributions for that filter, rewrites every stored points fraction,
// and answers with per-phase timings on stdout.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kzero/skillpoints/internal/adapters/repository"
	"github.com/kzero/skillpoints/internal/adapters/stdio"
	"github.com/kzero/skillpoints/internal/app"
	"github.com/kzero/skillpoints/internal/config"
	"github.com/kzero/skillpoints/pkg/logger"
	"github.com/kzero/skillpoints/pkg/metrics"
)

const metricsReadHeaderTimeout = 5 * time.Second

func main() {
	// Optional .env for local development; ignore absence.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("filterd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	// A failed connect is fatal before any request is read.
	store, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(ctx, "failed to connect to database", logger.Error(err))
	}
	defer store.Close(ctx)
	if err := store.Ping(ctx); err != nil {
		log.Fatal(ctx, "database unreachable", logger.Error(err))
	}
	if cfg.Migrate {
		if err := repository.Migrate(ctx, store); err != nil {
			log.Fatal(ctx, "failed to apply schema", logger.Error(err))
		}
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, log)
	}

	rec := app.NewRecomputer(store, app.WithRecomputerLogger(log.Named("recompute")))
	loop := stdio.New(os.Stdin, os.Stdout, rec.HandleLine, stdio.WithLogger(log))

	log.Info(ctx, "filterd ready")
	if err := loop.Run(ctx); err != nil {
		log.Fatal(ctx, "request loop terminated", logger.Error(err))
	}
}

func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(ctx, "metrics server failed", logger.Error(err))
	}
}
