package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/testutil"
)

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := cache.NewClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRedisSnapshotStore_UnreachableIsNotAMiss(t *testing.T) {
	store := cache.NewRedisSnapshotStore(unreachableClient(t))

	_, err := store.Get(context.Background(), "dataset:snapshot:x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, dataset.ErrSnapshotMiss)

	err = store.Put(context.Background(), "dataset:snapshot:x", testutil.MockTable(t), time.Minute)
	assert.Error(t, err)
}

type fixtureSource struct{ t *testing.T }

func (s fixtureSource) Name() string { return "fixture" }

func (s fixtureSource) Read(context.Context) (*dataset.RawTable, error) {
	return testutil.MockTable(s.t), nil
}

func TestRedisSnapshotStore_CachedSourceFallsBack(t *testing.T) {
	src := &dataset.CachedSource{
		Source: fixtureSource{t: t},
		Store:  cache.NewRedisSnapshotStore(unreachableClient(t)),
		TTL:    time.Minute,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ds, _, err := dataset.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 8, ds.Len())
}
