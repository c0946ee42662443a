package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/sitegrade/analyzer"
	"github.com/use-agent/sitegrade/api"
	"github.com/use-agent/sitegrade/api/handler"
	"github.com/use-agent/sitegrade/cache"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/content"
	"github.com/use-agent/sitegrade/fetcher"
	"github.com/use-agent/sitegrade/llm"
	"github.com/use-agent/sitegrade/report"
	"github.com/use-agent/sitegrade/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("sitegrade starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"model", cfg.LLM.Model,
	)

	// ── 3. Initialise fetcher (launches browser) ────────────────────
	f, err := fetcher.New(cfg.Browser, cfg.Fetch)
	if err != nil {
		slog.Error("failed to initialise fetcher", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	// ── 4. Initialise analysis pipeline ─────────────────────────────
	llmClient := llm.NewClient(&http.Client{Timeout: cfg.LLM.CallTimeout}, cfg.LLM)
	an := analyzer.New(llmClient, cfg.LLM)
	cb := content.NewBuilder()

	// ── 5. Initialise report sink ───────────────────────────────────
	writer, err := report.NewWriter(cfg.Report.OutputDir)
	if err != nil {
		slog.Error("failed to initialise report directory", "error", err)
		os.Exit(1)
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open report index", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── 5b. Initialise cache ────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	deps := handler.AssessDeps{
		Fetcher:         f,
		Analyzer:        an,
		Content:         cb,
		Writer:          writer,
		Store:           st,
		Cache:           cc,
		Weights:         cfg.Analyzer.Weights,
		MaxPromptTokens: cfg.LLM.MaxPromptTokens,
		Webhook:         cfg.Webhook,
	}
	router := api.NewRouter(deps, f, st, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// f.Close() runs via defer — drains page pool and kills Chrome.
	slog.Info("sitegrade stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
