package runstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// indexKey is the sorted set holding run IDs scored by creation time.
const indexKey = "runs:index"

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0").
	URL string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// TTL is how long stored records live before expiring.
	// Zero means records never expire.
	TTL time.Duration

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration
}

// RedisStore implements Store using go-redis/v9. Records are stored as JSON
// under run:<id>:record keys, with a sorted set index for recency-ordered
// listing. When a TTL is configured, expired records are pruned from the
// index lazily during List.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store and verifies the connection.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: opts.TTL}, nil
}

// recordKey returns the storage key for a run ID.
func recordKey(id string) string {
	return fmt.Sprintf("run:%s:record", id)
}

// Save stores a run record, replacing any existing record with the same ID.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return ErrInvalidID
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if err := s.client.Set(ctx, recordKey(rec.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store run %s: %w", rec.ID, err)
	}

	member := redis.Z{Score: float64(rec.CreatedAt.UnixNano()), Member: rec.ID}
	if err := s.client.ZAdd(ctx, indexKey, member).Err(); err != nil {
		return fmt.Errorf("failed to index run %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a run record by ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	data, err := s.client.Get(ctx, recordKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &rec, nil
}

// List returns records ordered by CreatedAt descending. Index entries whose
// records have expired are removed as they are encountered.
func (s *RedisStore) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset+limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, indexKey, int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Record expired; drop the stale index entry.
				s.client.ZRem(ctx, indexKey, id)
				continue
			}
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Delete removes a run record by ID.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	removed, err := s.client.Del(ctx, recordKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if err := s.client.ZRem(ctx, indexKey, id).Err(); err != nil {
		return fmt.Errorf("failed to unindex run %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
