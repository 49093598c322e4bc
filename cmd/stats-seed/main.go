// Command stats-seed migrates a stats database and imports a CSV export into it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/store"
)

var (
	csvPath = flag.String("csv", "csv files/nba_player_stats.csv", "CSV export to import (path or http(s) URL)")
	dbURL   = flag.String("db", os.Getenv("DATABASE_URL"), "postgres:// or sqlite:// URL (or set DATABASE_URL)")
)

func main() {
	flag.Parse()
	fmt.Println("=== NBA Stats Seeder ===")

	if *dbURL == "" {
		fmt.Println("❌ Missing database URL: set -db or DATABASE_URL")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *csvPath, *dbURL); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Seed complete")
}

func run(ctx context.Context, csvLocation, databaseURL string) error {
	var src dataset.Source = dataset.FileSource{Path: csvLocation}
	if strings.HasPrefix(csvLocation, "http://") || strings.HasPrefix(csvLocation, "https://") {
		src = dataset.NewURLSource(csvLocation)
	}

	raw, err := src.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src.Name(), err)
	}

	// Refuse exports the dashboard could not load
	_, report, err := dataset.FromTable(raw)
	if err != nil {
		return fmt.Errorf("validating %s: %w", src.Name(), err)
	}
	fmt.Printf("✓ Read %d rows from %s (%d usable)\n", report.RowsRead, src.Name(), report.RowsKept)

	if err := store.Migrate(databaseURL); err != nil {
		return err
	}
	fmt.Println("✓ Migrations applied")

	db, dialect, err := store.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := store.Import(ctx, db, dialect, raw)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Imported %d rows into %s (%s)\n", n, store.Table, store.Redact(databaseURL))
	return nil
}
