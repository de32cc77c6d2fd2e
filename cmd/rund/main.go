// Command rund is the single-run scoring daemon. It reads one run per
// stdin line, scores it against the already-fitted distribution
// parameters supplied in the request, and answers with the nub/pro
// fractions on stdout. No database access and no fitting.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kzero/skillpoints/internal/adapters/stdio"
	"github.com/kzero/skillpoints/internal/app"
	"github.com/kzero/skillpoints/internal/config"
	"github.com/kzero/skillpoints/pkg/logger"
	"github.com/kzero/skillpoints/pkg/metrics"
)

const metricsReadHeaderTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("rund")

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

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, log)
	}

	eval := app.NewEvaluator()
	loop := stdio.New(os.Stdin, os.Stdout, eval.HandleLine, stdio.WithLogger(log))

	log.Info(ctx, "rund ready")
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
