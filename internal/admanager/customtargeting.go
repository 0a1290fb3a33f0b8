package admanager

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
)

type customTargetingKeyDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type customTargetingKeyPage struct {
	Keys []customTargetingKeyDTO `json:"keys"`
}

type customTargetingValueDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type customTargetingValuePage struct {
	Values []customTargetingValueDTO `json:"values"`
}

// KeyIDs resolves custom-targeting key names to platform IDs in a single
// batched query. Results come back positionally aligned with names; a name
// the platform does not know fails the whole call with a ResolutionError.
func (c *Client) KeyIDs(ctx context.Context, names []string) ([]int64, error) {
	query := url.Values{}
	for _, name := range names {
		query.Add("name", name)
	}

	var page customTargetingKeyPage
	if err := c.do(ctx, "CustomTargetingService", "getCustomTargetingKeys", http.MethodGet, "/customTargetingKeys", query, nil, &page); err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(page.Keys))
	for _, key := range page.Keys {
		byName[key.Name] = key.ID
	}
	ids := make([]int64, len(names))
	for i, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, &models.ResolutionError{Kind: "key", Name: name, Err: errors.New("key not defined on the network")}
		}
		ids[i] = id
	}
	return ids, nil
}

// ValueIDs resolves value names scoped to a custom-targeting key.
func (c *Client) ValueIDs(ctx context.Context, keyID int64, names []string) ([]int64, error) {
	query := url.Values{}
	for _, name := range names {
		query.Add("name", name)
	}
	path := "/customTargetingKeys/" + strconv.FormatInt(keyID, 10) + "/values"

	var page customTargetingValuePage
	if err := c.do(ctx, "CustomTargetingService", "getCustomTargetingValues", http.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(page.Values))
	for _, value := range page.Values {
		byName[value.Name] = value.ID
	}
	ids := make([]int64, len(names))
	for i, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, &models.ResolutionError{Kind: "value", Name: name, Err: errors.New("value not defined under key")}
		}
		ids[i] = id
	}
	return ids, nil
}
