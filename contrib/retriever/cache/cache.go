// Package cache wraps an evidence.Retriever with a read-through Redis cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/pkg/logging"
)

// ErrMiss is returned by a Backend when the key is absent.
var ErrMiss = errors.New("cache miss")

// Backend is the key/value store behind the cache.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisConfig holds Redis configuration for the retrieval cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisBackend implements Backend with go-redis.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend creates a Redis backend.
func NewRedisBackend(config RedisConfig) *RedisBackend {
	return &RedisBackend{client: redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})}
}

// Get returns ErrMiss for absent keys.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return raw, err
}

// Set stores value with a TTL.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Ping checks connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// Retriever serves repeated (query, k) pairs from the backend. Cache faults never
// fail a search; they are logged and the inner retriever is used.
type Retriever struct {
	next    evidence.Retriever
	backend Backend
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
}

var _ evidence.Retriever = (*Retriever)(nil)

// Option customizes the cache.
type Option func(*Retriever)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Retriever) {
		r.prefix = prefix
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New wraps next. A non-positive ttl defaults to ten minutes.
func New(next evidence.Retriever, backend Backend, ttl time.Duration, opts ...Option) *Retriever {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	r := &Retriever{
		next:    next,
		backend: backend,
		ttl:     ttl,
		prefix:  "legalrag:retrieval:",
		logger:  logging.WithComponent("retrieval_cache"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns the cached snippets for (query, k) or delegates and stores the result.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]evidence.Snippet, error) {
	key := r.key(query, k)

	raw, err := r.backend.Get(ctx, key)
	switch {
	case err == nil:
		var cached []evidence.Snippet
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		r.logger.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, ErrMiss):
		r.logger.Warn("retrieval cache read failed", "error", err)
	}

	snippets, err := r.next.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if snippets == nil {
		snippets = []evidence.Snippet{}
	}
	payload, err := json.Marshal(snippets)
	if err != nil {
		return snippets, nil
	}
	if err := r.backend.Set(ctx, key, payload, r.ttl); err != nil {
		r.logger.Warn("retrieval cache write failed", "error", err)
	}
	return snippets, nil
}

func (r *Retriever) key(query string, k int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d\x00%s", k, query)))
	return r.prefix + hex.EncodeToString(sum[:])
}
