package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/dataset"
)

// DefaultSnapshotTTL is used when Put is given a non-positive TTL.
const DefaultSnapshotTTL = 24 * time.Hour

// SnapshotInfo describes a stored snapshot without loading it.
type SnapshotInfo struct {
	Rows     int
	StoredAt time.Time
}

// RedisSnapshotStore keeps raw dataset tables in Redis so restarts can skip a
// slow or remote source.
type RedisSnapshotStore struct {
	client *redis.Client
}

// NewRedisSnapshotStore creates a new snapshot store
func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		client: client,
	}
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func metaKey(key string) string { return key + ":meta" }

// Put stores the table under key with a row count and timestamp alongside.
func (s *RedisSnapshotStore) Put(ctx context.Context, key string, table *dataset.RawTable, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}

	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.HSet(ctx, metaKey(key),
		"rows", len(table.Rows),
		"stored_at", time.Now().UTC().Format(time.RFC3339),
	)
	pipe.Expire(ctx, metaKey(key), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", key, err)
	}
	return nil
}

// Get returns the table stored under key, or dataset.ErrSnapshotMiss.
func (s *RedisSnapshotStore) Get(ctx context.Context, key string) (*dataset.RawTable, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dataset.ErrSnapshotMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", key, err)
	}

	var table dataset.RawTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot %s: %w", key, err)
	}
	return &table, nil
}

// Info reads the snapshot metadata, or dataset.ErrSnapshotMiss.
func (s *RedisSnapshotStore) Info(ctx context.Context, key string) (SnapshotInfo, error) {
	fields, err := s.client.HGetAll(ctx, metaKey(key)).Result()
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("reading snapshot meta %s: %w", key, err)
	}
	if len(fields) == 0 {
		return SnapshotInfo{}, dataset.ErrSnapshotMiss
	}

	var info SnapshotInfo
	info.Rows, _ = strconv.Atoi(fields["rows"])
	info.StoredAt, _ = time.Parse(time.RFC3339, fields["stored_at"])
	return info, nil
}

// Invalidate removes the snapshot under key.
func (s *RedisSnapshotStore) Invalidate(ctx context.Context, key string) error {
	return s.client.Del(ctx, key, metaKey(key)).Err()
}
