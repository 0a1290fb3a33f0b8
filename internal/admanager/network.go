package admanager

import (
	"context"
	"net/http"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
)

type networkDTO struct {
	NetworkCode           string `json:"networkCode"`
	DisplayName           string `json:"displayName"`
	EffectiveRootAdUnitID string `json:"effectiveRootAdUnitId"`
}

// RootAdUnit fetches the network's effective root ad unit and returns it as
// inventory targeting including all descendants. Every line item this tool
// creates is scoped this way; callers fetch it once per process start and
// inject it into the assembler.
func (c *Client) RootAdUnit(ctx context.Context) (models.InventoryTargeting, error) {
	var network networkDTO
	if err := c.do(ctx, "NetworkService", "getCurrentNetwork", http.MethodGet, "", nil, nil, &network); err != nil {
		return models.InventoryTargeting{}, err
	}
	return models.InventoryTargeting{
		AdUnitID:           network.EffectiveRootAdUnitID,
		IncludeDescendants: true,
	}, nil
}
