package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/store"
)

func main() {
	fmt.Println("=== NBA Stats Dashboard ===")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resolve the dataset source
	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ Failed to open data source: %v\n", err)
		os.Exit(1)
	}
	defer closeSource()

	// Optional Redis snapshot cache
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			fmt.Printf("⚠️  Redis unavailable, loading without snapshot cache: %v\n", err)
		} else {
			defer redisClient.Close()
			fmt.Println("✓ Connected to Redis")
			src = &dataset.CachedSource{
				Source: src,
				Store:  cache.NewRedisSnapshotStore(redisClient),
				TTL:    cfg.SnapshotTTL(),
				Logger: logger,
			}
		}
	}

	// Load the dataset once; the views never reload it
	ds, report, err := loadDataset(ctx, src, closeSource)
	if err != nil {
		var loadErr *dataset.LoadError
		if errors.As(err, &loadErr) {
			fmt.Printf("❌ Failed to load dataset from %s: %v\n", store.Redact(loadErr.Source), loadErr.Err)
		} else {
			fmt.Printf("❌ Failed to load dataset: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d records (%d players) from %s\n", ds.Len(), ds.PlayerCount(), store.Redact(report.Source))
	if report.SkippedEmptyPlayer > 0 || report.NormalizedSeason > 0 {
		logger.Info("dataset cleaned",
			"skipped_empty_player", report.SkippedEmptyPlayer,
			"normalized_season_type", report.NormalizedSeason)
	}

	dash, err := dashboard.New(ds, dashboard.Options{
		StrictPlayerRoutes: cfg.Views.StrictPlayerRoutes,
		Logger:             logger,
	})
	if err != nil {
		fmt.Printf("❌ Failed to build dashboard: %v\n", err)
		closeSource()
		os.Exit(1)
	}

	// Live session hub
	sessionHub := hub.NewHub(logger)
	go sessionHub.Run(ctx)

	handler := handlers.NewHandler(dash, sessionHub, report, logger)
	live := handlers.NewLiveHandler(ctx, dash, sessionHub, cfg.Server.CORSOrigins, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	router := handlers.NewRouter(handler, live, handlers.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimiter: limiter,
		Logger:      logger,
	})

	// Start server
	srv := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// chart pages and websocket upgrades are long lived
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Stats dashboard listening on %s\n", cfg.Server.Addr)
		fmt.Println("  Endpoints:")
		fmt.Println("    GET  /")
		fmt.Println("    GET  /overall-stats")
		fmt.Println("    GET  /player/{name}")
		fmt.Println("    GET  /charts/player")
		fmt.Println("    GET  /health")
		fmt.Println("    GET  /metrics")
		fmt.Println("    GET  /api/v1/options")
		fmt.Println("    GET  /api/v1/overall")
		fmt.Println("    GET  /api/v1/player")
		fmt.Println("    GET  /api/v1/route")
		fmt.Println("    WS   /ws")

		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("❌ Server error: %v\n", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)

		// Stop live sessions first so their pumps release connections
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	fmt.Println("✓ Shutdown complete")
}

// loadDataset loads src. On failure it calls release first, since the caller
// exits without running deferred calls.
func loadDataset(ctx context.Context, src dataset.Source, release func()) (*dataset.Dataset, dataset.Report, error) {
	ds, report, err := dataset.Load(ctx, src)
	if err != nil {
		release()
		return nil, report, err
	}
	return ds, report, nil
}

// openSource picks the dataset source for cfg.Data.Source: an http(s) URL, a
// database URL, or a CSV path. The returned func releases anything it opened.
func openSource(ctx context.Context, cfg *config.Config) (dataset.Source, func(), error) {
	location := cfg.Data.Source

	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return dataset.NewURLSource(location), func() {}, nil

	case store.IsDatabaseURL(location):
		db, dialect, err := store.Open(ctx, location)
		if err != nil {
			return nil, nil, err
		}
		fmt.Printf("✓ Connected to %s database\n", dialect)

		src := store.Source(db, store.Redact(location))
		if cfg.Data.Table != store.Table {
			// a table not written by stats-seed has no recorded header
			src.Table = cfg.Data.Table
			src.ColumnsTable = ""
		}
		return src, func() { db.Close() }, nil

	default:
		return dataset.FileSource{Path: location}, func() {}, nil
	}
}
