package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lzjever/wsorch/internal/api"
	"github.com/lzjever/wsorch/internal/gateway"
	"github.com/lzjever/wsorch/internal/observability"
	"github.com/lzjever/wsorch/internal/orchestrator"
	"github.com/lzjever/wsorch/internal/store"
	"github.com/lzjever/wsorch/internal/worker"
)

func main() {
	var cfg api.Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	var orchCfg orchestrator.Config
	if err := envconfig.Process("", &orchCfg); err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator config: %v\n", err)
		os.Exit(1)
	}
	var workerCfg worker.Config
	if err := envconfig.Process("", &workerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "worker config: %v\n", err)
		os.Exit(1)
	}

	log, _ := observability.NewLogger(cfg.LogLevel)
	defer log.Sync()

	// Replace global logger
	zap.ReplaceGlobals(log)
	observability.RouteKlog(log)

	reg := prometheus.DefaultRegisterer
	observability.RegisterAll(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gw, err := gateway.NewFromConfig(cfg.Kubeconfig, cfg.Namespace)
	if err != nil {
		log.Fatal("control plane client failed", zap.Error(err))
	}

	var (
		auditor store.Auditor = store.NopAuditor{}
		db      api.Pinger
	)
	if cfg.DBDSN != "" {
		pool, err := store.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal("db connect failed", zap.Error(err))
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatal("db migrate failed", zap.Error(err))
		}
		auditor, db = store.NewPGAuditor(pool), pool
		log.Info("audit trail enabled")
	} else {
		log.Info("WSORCH_DB_DSN not set, audit trail disabled")
	}

	bg := worker.New(workerCfg, log)
	bg.Start()

	orch := orchestrator.New(gw, bg, orchCfg, log)

	// Main API server. createWorkspace holds the request open until the
	// workspace is Running.
	apiHandler := api.NewAPI(orch, auditor, db, log)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiHandler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: orchCfg.ReadyTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: mux,
	}

	go func() {
		log.Info("metrics server starting", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("API server starting",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("namespace", gw.Namespace()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("API server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down API server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	// In-flight releases may still be waiting for a workspace to stop.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), workerCfg.ShutdownTimeout)
	defer drainCancel()
	if err := bg.Shutdown(drainCtx); err != nil {
		log.Warn("background tasks abandoned at shutdown", zap.Error(err))
	}

	log.Info("API server stopped")
}
