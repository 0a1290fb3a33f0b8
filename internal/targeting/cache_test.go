package targeting

import (
	"context"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
)

// countingRegistry records resolver cache outcomes and swallows everything else.
type countingRegistry struct {
	*observability.NoOpRegistry
	hits   int
	misses int
}

func (c *countingRegistry) IncrementResolverCache(result string) {
	switch result {
	case "hit":
		c.hits++
	case "miss":
		c.misses++
	}
}

func newCacheUnderTest(t *testing.T, next KeyResolver) (*CachedResolver, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedResolver(next, client, 0, nil, zap.NewNop()), mr
}

func TestCachedResolver_KeyIDsHitsBackendOnce(t *testing.T) {
	next := &fakeResolver{keys: map[string]int64{"pos": 1, "src": 2}}
	cache, _ := newCacheUnderTest(t, next)
	ctx := context.Background()

	ids, err := cache.KeyIDs(ctx, []string{"pos", "src"})
	if err != nil {
		t.Fatalf("KeyIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Fatalf("ids = %v, want [1 2]", ids)
	}

	ids, err = cache.KeyIDs(ctx, []string{"pos", "src"})
	if err != nil {
		t.Fatalf("KeyIDs (cached): %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Fatalf("cached ids = %v, want [1 2]", ids)
	}
	if next.keyCalls != 1 {
		t.Errorf("backend called %d times, want 1", next.keyCalls)
	}
}

func TestCachedResolver_PartialMissBatchesOnlyMisses(t *testing.T) {
	next := &fakeResolver{keys: map[string]int64{"pos": 1, "src": 2, "env": 3}}
	cache, _ := newCacheUnderTest(t, next)
	ctx := context.Background()

	if _, err := cache.KeyIDs(ctx, []string{"pos"}); err != nil {
		t.Fatalf("warm-up: %v", err)
	}
	ids, err := cache.KeyIDs(ctx, []string{"pos", "src", "env"})
	if err != nil {
		t.Fatalf("KeyIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 3}) {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}
	if next.keyCalls != 2 {
		t.Errorf("backend called %d times, want 2 (warm-up + one miss batch)", next.keyCalls)
	}
}

func TestCachedResolver_ValueIDsScopedByKey(t *testing.T) {
	next := &fakeResolver{values: map[string]int64{"1/top": 10, "2/top": 20}}
	cache, _ := newCacheUnderTest(t, next)
	ctx := context.Background()

	ids1, err := cache.ValueIDs(ctx, 1, []string{"top"})
	if err != nil {
		t.Fatalf("ValueIDs key 1: %v", err)
	}
	ids2, err := cache.ValueIDs(ctx, 2, []string{"top"})
	if err != nil {
		t.Fatalf("ValueIDs key 2: %v", err)
	}
	if ids1[0] == ids2[0] {
		t.Error("same value name under different keys must not share cache entries")
	}
}

func TestCachedResolver_CountsHitsAndMisses(t *testing.T) {
	next := &fakeResolver{keys: map[string]int64{"pos": 1, "src": 2}}
	reg := &countingRegistry{NoOpRegistry: observability.NewNoOpRegistry()}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCachedResolver(next, client, 0, reg, zap.NewNop())
	ctx := context.Background()

	if _, err := cache.KeyIDs(ctx, []string{"pos", "src"}); err != nil {
		t.Fatalf("KeyIDs: %v", err)
	}
	if reg.misses != 2 || reg.hits != 0 {
		t.Errorf("cold lookups: hits=%d misses=%d, want 0/2", reg.hits, reg.misses)
	}

	if _, err := cache.KeyIDs(ctx, []string{"pos", "src"}); err != nil {
		t.Fatalf("KeyIDs (cached): %v", err)
	}
	if reg.hits != 2 {
		t.Errorf("warm lookups: hits=%d, want 2", reg.hits)
	}
}

func TestCachedResolver_RedisDownFallsThrough(t *testing.T) {
	next := &fakeResolver{keys: map[string]int64{"pos": 1}}
	cache, mr := newCacheUnderTest(t, next)
	mr.Close()

	ids, err := cache.KeyIDs(context.Background(), []string{"pos"})
	if err != nil {
		t.Fatalf("KeyIDs with redis down: %v", err)
	}
	if ids[0] != 1 {
		t.Errorf("ids = %v, want [1]", ids)
	}
}
