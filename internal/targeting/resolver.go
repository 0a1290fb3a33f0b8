package targeting

import "context"

// KeyResolver maps human-readable custom-targeting names to the numeric IDs
// the ad platform assigned them. The production implementation lives in the
// admanager package; a redis-backed cache can be layered on top with
// NewCachedResolver.
type KeyResolver interface {
	// KeyIDs resolves key names in one batched call, positionally aligned
	// with the input. An unknown name fails the whole batch.
	KeyIDs(ctx context.Context, names []string) ([]int64, error)
	// ValueIDs resolves value names scoped to a single key.
	ValueIDs(ctx context.Context, keyID int64, names []string) ([]int64, error)
}
