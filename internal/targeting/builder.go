package targeting

import (
	"context"
	"strings"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
)

// TreeBuilder constructs a fresh targeting tree from the flat parallel
// arrays the line-item form submits: key names, comma-separated value lists
// and operators, aligned by index.
type TreeBuilder struct {
	resolver KeyResolver
}

// NewTreeBuilder returns a TreeBuilder resolving names through the given
// resolver.
func NewTreeBuilder(resolver KeyResolver) *TreeBuilder {
	return &TreeBuilder{resolver: resolver}
}

// Build resolves every key and value name and assembles a tree holding a
// single group with one criterion per key. A nil tree (no custom targeting)
// is returned when no keys were submitted at all.
//
// values[i] and operators[i] describe keys[i]; mismatched lengths fail with
// a ValidationError before any resolution happens.
func (b *TreeBuilder) Build(ctx context.Context, keys, values, operators []string) (*models.TargetingTree, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(values) != len(operators) {
		return nil, &models.ValidationError{Field: "operators", Reason: "values and operators must align"}
	}
	if len(values) > len(keys) {
		return nil, &models.ValidationError{Field: "values", Reason: "more value lists than keys"}
	}

	keyIDs, err := b.resolver.KeyIDs(ctx, keys)
	if err != nil {
		return nil, err
	}

	group := models.Group{Criteria: make([]models.Criterion, 0, len(values))}
	for i := range values {
		names := splitValues(values[i])
		if len(names) == 0 {
			return nil, &models.ValidationError{Field: "values", Reason: "value list for key " + keys[i] + " is empty"}
		}
		valueIDs, err := b.resolver.ValueIDs(ctx, keyIDs[i], names)
		if err != nil {
			return nil, err
		}
		if len(valueIDs) == 0 {
			// A criterion with no values is not representable; the platform
			// rejects it and the editors prune such criteria on sight.
			return nil, &models.ValidationError{Field: "values", Reason: "no values resolved for key " + keys[i]}
		}
		group.Criteria = append(group.Criteria, models.Criterion{
			KeyID:    keyIDs[i],
			ValueIDs: valueIDs,
			Operator: models.Operator(operators[i]),
		})
	}

	return &models.TargetingTree{Groups: []models.Group{group}}, nil
}

// splitValues splits a comma-separated value list, trimming whitespace and
// dropping empty entries.
func splitValues(list string) []string {
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			names = append(names, v)
		}
	}
	return names
}
