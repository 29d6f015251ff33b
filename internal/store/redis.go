package store

import (
	"context"
	"encoding/json"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/formforge/formforge/pkg/schema"
)

// RedisStore implements Store on Redis. It is meant for deployments that
// share builder state across processes; the embedded libSQL store remains
// the default.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the expiration for snapshots. Zero means no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for snapshots.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis store with options.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, opts...)
}

// NewRedisStoreFromClient creates a Redis store from an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "formforge:snapshot:",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

func (s *RedisStore) SaveSnapshot(ctx context.Context, key string, p *schema.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "marshal snapshot").WithCause(err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(key), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return schema.NewError(schema.ErrCodeStore, "save snapshot to redis").WithCause(err)
	}
	return nil
}

func (s *RedisStore) LoadSnapshot(ctx context.Context, key string) (*schema.Project, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err == backend.Nil {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "get snapshot from redis").WithCause(err)
	}

	p := &schema.Project{}
	if err := json.Unmarshal([]byte(val), p); err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "unmarshal snapshot").WithCause(err)
	}
	return p, nil
}

func (s *RedisStore) DeleteSnapshot(ctx context.Context, key string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(key))
	pipe.SRem(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return schema.NewError(schema.ErrCodeStore, "delete snapshot from redis").WithCause(err)
	}
	return nil
}

// ListKeys returns the indexed keys, dropping index entries whose
// snapshot has expired.
func (s *RedisStore) ListKeys(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "list snapshot keys").WithCause(err)
	}

	var keys []string
	for _, k := range members {
		n, err := s.client.Exists(ctx, s.key(k)).Result()
		if err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "check snapshot key").WithCause(err)
		}
		if n == 0 {
			_ = s.client.SRem(ctx, s.indexKey(), k).Err()
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
