package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Memoizer caches the results of read operations in a CacheStore. Failed
// calls are never cached, and a failing store degrades to a miss.
type Memoizer struct {
	store  driven.CacheStore
	logger *slog.Logger
}

// NewMemoizer creates a Memoizer over store.
func NewMemoizer(store driven.CacheStore, logger *slog.Logger) *Memoizer {
	return &Memoizer{store: store, logger: logger}
}

// CacheKey derives a deterministic key for op called with args and kwargs.
// kwargs are sorted by name, so their order never changes the key.
func CacheKey(op string, args []any, kwargs map[string]any) (string, error) {
	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([][2]any, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, [2]any{name, kwargs[name]})
	}
	if args == nil {
		args = []any{}
	}

	payload, err := json.Marshal([]any{args, pairs})
	if err != nil {
		return "", fmt.Errorf("encode cache key for %s: %w", op, err)
	}

	sum := sha256.Sum256(payload)
	return op + ":" + hex.EncodeToString(sum[:]), nil
}

// Memoize0 wraps a no-argument read.
func Memoize0[T any](m *Memoizer, op string, ttl time.Duration, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		key, err := CacheKey(op, nil, nil)
		if err != nil {
			return fn(ctx)
		}
		return lookup(ctx, m, key, ttl, func() (T, error) { return fn(ctx) })
	}
}

// Memoize2 wraps a two-argument read. The arguments are keyed by argNames.
func Memoize2[A, B, T any](m *Memoizer, op string, ttl time.Duration, argNames [2]string, fn func(context.Context, A, B) (T, error)) func(context.Context, A, B) (T, error) {
	return func(ctx context.Context, a A, b B) (T, error) {
		key, err := CacheKey(op, nil, map[string]any{argNames[0]: a, argNames[1]: b})
		if err != nil {
			return fn(ctx, a, b)
		}
		return lookup(ctx, m, key, ttl, func() (T, error) { return fn(ctx, a, b) })
	}
}

// lookup returns the cached value for key, or calls fn and stores its result.
func lookup[T any](ctx context.Context, m *Memoizer, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if m == nil || m.store == nil {
		return fn()
	}

	raw, hit, err := m.store.Get(ctx, key)
	switch {
	case err != nil:
		m.logger.Warn("cache get failed", "key", key, "error", err)
	case hit:
		var cached T
		decodeErr := json.Unmarshal(raw, &cached)
		if decodeErr == nil {
			m.logger.Debug("cache hit", "key", key)
			return cached, nil
		}
		m.logger.Warn("cache entry undecodable", "key", key, "error", decodeErr)
	default:
		m.logger.Debug("cache miss", "key", key)
	}

	result, err := fn()
	if err != nil {
		return result, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		m.logger.Warn("cache encode failed", "key", key, "error", err)
		return result, nil
	}
	if err := m.store.Set(ctx, key, encoded, ttl); err != nil {
		m.logger.Warn("cache set failed", "key", key, "error", err)
	}

	return result, nil
}
