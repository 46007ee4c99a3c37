package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/navroute/internal/config"
	"github.com/udisondev/navroute/internal/navhttp"
	"github.com/udisondev/navroute/internal/requirement"
	"github.com/udisondev/navroute/internal/search"
	"github.com/udisondev/navroute/internal/snapshot"
	"github.com/udisondev/navroute/internal/tileindex"
)

const ConfigPath = "config/navserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("NAVROUTE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("navroute server starting", "log_level", cfg.LogLevel)

	snap, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", cfg.SnapshotPath, err)
	}
	defer snap.Close()
	slog.Info("snapshot loaded",
		"path", cfg.SnapshotPath,
		"nodes", snap.Graph.NodeCount,
		"landmarks", snap.Graph.LandmarkCount,
		"predicates", snap.Graph.PredicateCount)

	tiles, err := tileindex.Open(cfg.TilesPath)
	if err != nil {
		return fmt.Errorf("opening tile index %s: %w", cfg.TilesPath, err)
	}
	defer tiles.Close()
	slog.Info("tile index loaded", "path", cfg.TilesPath)

	dict := requirement.NewDictionary(snap.Graph.Predicates)

	workers := cfg.WorkerThreads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := search.NewPool(snap.Graph.NodeCount, workers)
	slog.Info("search pool ready", "workers", workers)

	handler := navhttp.NewHandler(snap.Graph, tiles, pool, dict, navhttp.Config{
		MaxExpansions:    uint32(cfg.MaxExpansions),
		DefaultTimeoutMs: uint32(cfg.DefaultTimeoutMs),
	}, slog.Default())

	addr := net.JoinHostPort(cfg.BindAddress, fmt.Sprintf("%d", cfg.Port))
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting route server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("route server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("draining route server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
