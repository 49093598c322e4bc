package dataset

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrSnapshotMiss is returned by a SnapshotStore that has no entry for a key.
var ErrSnapshotMiss = errors.New("snapshot not found")

// SnapshotStore keeps raw tables keyed by source name.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (*RawTable, error)
	Put(ctx context.Context, key string, table *RawTable, ttl time.Duration) error
}

// CachedSource serves the raw table from a snapshot store when it can and
// falls back to the wrapped source otherwise. Store failures never fail a load.
type CachedSource struct {
	Source Source
	Store  SnapshotStore
	TTL    time.Duration
	Logger *slog.Logger
}

func (s *CachedSource) Name() string { return s.Source.Name() }

// SnapshotKey is the cache key for a source.
func SnapshotKey(src Source) string {
	return "dataset:snapshot:" + src.Name()
}

func (s *CachedSource) Read(ctx context.Context) (*RawTable, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	key := SnapshotKey(s.Source)

	table, err := s.Store.Get(ctx, key)
	switch {
	case err == nil:
		logger.Info("dataset snapshot hit", "key", key, "rows", len(table.Rows))
		return table, nil
	case errors.Is(err, ErrSnapshotMiss):
		logger.Info("dataset snapshot miss", "key", key)
	default:
		logger.Warn("dataset snapshot unavailable", "key", key, "error", err)
	}

	table, err = s.Source.Read(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Put(ctx, key, table, s.TTL); err != nil {
		logger.Warn("dataset snapshot not written", "key", key, "error", err)
	}
	return table, nil
}
