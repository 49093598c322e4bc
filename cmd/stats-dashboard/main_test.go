package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/store"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/testutil"
)

func TestLoadDataset_ReleasesSourceOnFailure(t *testing.T) {
	released := 0
	release := func() { released++ }

	_, _, err := loadDataset(context.Background(), dataset.FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}, release)

	var loadErr *dataset.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 1, released)
}

func TestLoadDataset_KeepsSourceOnSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	require.NoError(t, os.WriteFile(path, []byte(testutil.StatsCSV), 0o600))

	released := 0
	ds, report, err := loadDataset(context.Background(), dataset.FileSource{Path: path}, func() { released++ })

	require.NoError(t, err)
	assert.Equal(t, 8, ds.Len())
	assert.Equal(t, 8, report.RowsKept)
	assert.Zero(t, released)
}

func TestOpenSource(t *testing.T) {
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Data.Source = "https://example.com/stats.csv"
	src, release, err := openSource(ctx, cfg)
	require.NoError(t, err)
	release()
	assert.IsType(t, &dataset.URLSource{}, src)

	cfg.Data.Source = "stats.csv"
	src, release, err = openSource(ctx, cfg)
	require.NoError(t, err)
	release()
	assert.Equal(t, dataset.FileSource{Path: "stats.csv"}, src)

	cfg.Data.Source = "sqlite://" + filepath.ToSlash(filepath.Join(t.TempDir(), "stats.db"))
	cfg.Data.Table = "legacy_stats"
	src, release, err = openSource(ctx, cfg)
	require.NoError(t, err)
	defer release()

	sqlSrc, ok := src.(*dataset.SQLSource)
	require.True(t, ok)
	assert.Equal(t, "legacy_stats", sqlSrc.Table)
	assert.Empty(t, sqlSrc.ColumnsTable)
	assert.Equal(t, store.RowNumberColumn, sqlSrc.OrderBy)
}
