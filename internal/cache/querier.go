// Package cache decorates the analytics queries with a Redis response cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stockintel/internal/analytics"
	"stockintel/internal/domain"
)

var _ analytics.Querier = (*Querier)(nil)

// Querier decorates an analytics.Querier with Redis caching. Successful
// results are cached for ttl; errors are never cached. A nil client
// bypasses the cache entirely.
type Querier struct {
	inner     analytics.Querier
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewQuerier wraps inner. If ttl is 0, it defaults to 5 minutes. If
// namespace is empty, it uses "stockintel".
func NewQuerier(rdb *redis.Client, ttl time.Duration, inner analytics.Querier, namespace string) *Querier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "stockintel"
	}
	return &Querier{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Companies returns the cached roster.
func (q *Querier) Companies(ctx context.Context) ([]domain.Company, error) {
	return cached(ctx, q, q.key("companies"), func() ([]domain.Company, error) {
		return q.inner.Companies(ctx)
	})
}

// Series returns the cached series of symbol for days.
func (q *Querier) Series(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error) {
	return cached(ctx, q, q.key("series", symbol, fmt.Sprint(days)), func() ([]domain.PricePoint, error) {
		return q.inner.Series(ctx, symbol, days)
	})
}

// Summary returns the cached summary of symbol.
func (q *Querier) Summary(ctx context.Context, symbol string) (*domain.Summary, error) {
	return cached(ctx, q, q.key("summary", symbol), func() (*domain.Summary, error) {
		return q.inner.Summary(ctx, symbol)
	})
}

// Gainers returns the cached top gainers.
func (q *Querier) Gainers(ctx context.Context, limit int) ([]domain.InsightEntry, error) {
	return cached(ctx, q, q.key("gainers", fmt.Sprint(limit)), func() ([]domain.InsightEntry, error) {
		return q.inner.Gainers(ctx, limit)
	})
}

// Losers returns the cached top losers.
func (q *Querier) Losers(ctx context.Context, limit int) ([]domain.InsightEntry, error) {
	return cached(ctx, q, q.key("losers", fmt.Sprint(limit)), func() ([]domain.InsightEntry, error) {
		return q.inner.Losers(ctx, limit)
	})
}

// Volatility returns the cached volatility of symbol.
func (q *Querier) Volatility(ctx context.Context, symbol string) (*domain.Volatility, error) {
	return cached(ctx, q, q.key("volatility", symbol), func() (*domain.Volatility, error) {
		return q.inner.Volatility(ctx, symbol)
	})
}

// Compare is not cached; it is cheap once both summaries are.
func (q *Querier) Compare(ctx context.Context, symbol1, symbol2 string) (*domain.Comparison, error) {
	return q.inner.Compare(ctx, symbol1, symbol2)
}

// Invalidate drops every entry in the namespace. The collector calls it
// after writing new bars.
func (q *Querier) Invalidate(ctx context.Context) error {
	if q.rdb == nil {
		return nil
	}
	return q.deleteByPattern(ctx, q.namespace+":*")
}

func cached[T any](ctx context.Context, q *Querier, key string, load func() (T, error)) (T, error) {
	if q.rdb == nil {
		return load()
	}

	if b, err := q.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Corrupted entry.
		_ = q.rdb.Del(ctx, key).Err()
	}

	out, err := load()
	if err != nil {
		return out, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = q.rdb.Set(ctx, key, b, q.ttl).Err()
	}
	return out, nil
}

func (q *Querier) key(parts ...string) string {
	for i, p := range parts {
		parts[i] = safe(p)
	}
	return q.namespace + ":" + strings.Join(parts, ":")
}

// deleteByPattern deletes all keys matching pattern using SCAN.
func (q *Querier) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := q.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := q.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic in Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
