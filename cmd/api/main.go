package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyhq/tally/internal/web"
	"github.com/tallyhq/tally/pkg/config"
	"github.com/tallyhq/tally/pkg/logging"
)

func main() {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Cleanup()

	opts := web.Options{
		BaseURL:            cfg.Server.BaseURL,
		SessionSecret:      cfg.Auth.SessionSecret,
		Currency:           cfg.Currency,
		RateLimitPerSecond: float64(cfg.Server.RateLimitPerSecond),
		RateLimitBurst:     cfg.Server.RateLimitBurst,
		GoogleClientID:     cfg.Auth.GoogleClientID,
		GoogleClientSecret: cfg.Auth.GoogleClientSecret,
	}
	// A typed nil registry must not reach the interface field.
	if deps.Registry != nil {
		opts.Registry = deps.Registry
	}

	server, err := web.NewServer(opts, web.Services{
		Auth:       deps.AuthService,
		Categories: deps.CategoryService,
		Groups:     deps.GroupService,
		Expenses:   deps.ExpenseService,
		Suggest:    deps.SuggestService,
		Chat:       deps.ChatService,
		Health:     deps.DB.Health,
	}, logger)
	if err != nil {
		logger.Error("failed to build web server", slog.Any("error", err))
		os.Exit(1)
	}
	defer server.Close()

	if err := deps.Scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Scheduler.Stop()

	if cfg.Observability.MetricsEnabled {
		go serveMetrics(cfg.Observability.MetricsPort, deps, logger)
	}
	if cfg.Profiling.Enabled {
		go servePprof(cfg.Profiling.Port, logger)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.Handler(),
		// Write timeout must outlast the Gemini request timeout so chat
		// submissions are not cut off mid-generation.
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		cancel()
	}()

	logger.Info("starting tally server",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("base_url", cfg.Server.BaseURL),
		slog.Bool("chat_enabled", deps.ChatService.Enabled()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}

// serveMetrics exposes the Prometheus registry on its own port so the
// metrics endpoint stays off the public listener.
func serveMetrics(port int, deps *Dependencies, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics server listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", slog.Any("error", err))
	}
}

// servePprof exposes the profiling handlers on a separate port, guarded
// behind PPROF_ENABLED.
func servePprof(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	addr := fmt.Sprintf(":%d", port)
	logger.Info("pprof server listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("pprof server failed", slog.Any("error", err))
	}
}
