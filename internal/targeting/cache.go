package targeting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
)

// DefaultResolverTTL is how long resolved name→ID mappings stay cached.
// Key and value IDs are effectively immutable on the platform once created,
// so a long TTL is safe; the TTL exists to pick up renames eventually.
const DefaultResolverTTL = 12 * time.Hour

// CachedResolver wraps a KeyResolver with a redis lookaside cache. Every
// tree build resolves the same handful of key names, and the remote
// custom-targeting service is by far the slowest dependency in the create
// path. Cache failures degrade to the underlying resolver, never to errors.
type CachedResolver struct {
	next    KeyResolver
	client  *redis.Client
	ttl     time.Duration
	metrics observability.MetricsRegistry
	logger  *zap.Logger
}

// NewCachedResolver layers a redis cache over next. A nil client disables
// caching entirely.
func NewCachedResolver(next KeyResolver, client *redis.Client, ttl time.Duration, metrics observability.MetricsRegistry, logger *zap.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultResolverTTL
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{next: next, client: client, ttl: ttl, metrics: metrics, logger: logger}
}

// KeyIDs resolves key names, serving individual names from cache and
// batching the misses through the underlying resolver.
func (r *CachedResolver) KeyIDs(ctx context.Context, names []string) ([]int64, error) {
	if r.client == nil {
		return r.next.KeyIDs(ctx, names)
	}

	ids := make([]int64, len(names))
	missNames := make([]string, 0, len(names))
	missIdx := make([]int, 0, len(names))
	for i, name := range names {
		if id, ok := r.get(ctx, keyCacheKey(name)); ok {
			ids[i] = id
			continue
		}
		missNames = append(missNames, name)
		missIdx = append(missIdx, i)
	}
	if len(missNames) == 0 {
		return ids, nil
	}

	resolved, err := r.next.KeyIDs(ctx, missNames)
	if err != nil {
		return nil, err
	}
	for j, id := range resolved {
		ids[missIdx[j]] = id
		r.put(ctx, keyCacheKey(missNames[j]), id)
	}
	return ids, nil
}

// ValueIDs resolves value names scoped to a key, same cache strategy as
// KeyIDs.
func (r *CachedResolver) ValueIDs(ctx context.Context, keyID int64, names []string) ([]int64, error) {
	if r.client == nil {
		return r.next.ValueIDs(ctx, keyID, names)
	}

	ids := make([]int64, len(names))
	missNames := make([]string, 0, len(names))
	missIdx := make([]int, 0, len(names))
	for i, name := range names {
		if id, ok := r.get(ctx, valueCacheKey(keyID, name)); ok {
			ids[i] = id
			continue
		}
		missNames = append(missNames, name)
		missIdx = append(missIdx, i)
	}
	if len(missNames) == 0 {
		return ids, nil
	}

	resolved, err := r.next.ValueIDs(ctx, keyID, missNames)
	if err != nil {
		return nil, err
	}
	for j, id := range resolved {
		ids[missIdx[j]] = id
		r.put(ctx, valueCacheKey(keyID, missNames[j]), id)
	}
	return ids, nil
}

func (r *CachedResolver) get(ctx context.Context, key string) (int64, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("resolver cache read failed", zap.String("key", key), zap.Error(err))
		}
		r.metrics.IncrementResolverCache("miss")
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		r.metrics.IncrementResolverCache("miss")
		return 0, false
	}
	r.metrics.IncrementResolverCache("hit")
	return id, true
}

func (r *CachedResolver) put(ctx context.Context, key string, id int64) {
	if err := r.client.Set(ctx, key, strconv.FormatInt(id, 10), r.ttl).Err(); err != nil {
		r.logger.Warn("resolver cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func keyCacheKey(name string) string {
	return "targeting:key:" + name
}

func valueCacheKey(keyID int64, name string) string {
	return fmt.Sprintf("targeting:value:%d:%s", keyID, name)
}
