package lineitem

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/analytics"
	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
)

// fakeGateway serves line items from a map and records every update pushed.
type fakeGateway struct {
	items      map[int64]*models.LineItem
	nextID     int64
	updates    []*models.LineItem
	createErr  error
	updateErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{items: map[int64]*models.LineItem{}, nextID: 1000}
}

func (g *fakeGateway) CreateLineItem(ctx context.Context, li *models.LineItem) (*models.LineItem, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	created := *li
	created.ID = g.nextID
	g.items[created.ID] = &created
	return &created, nil
}

func (g *fakeGateway) LineItemsByOrder(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	var out []models.LineItem
	for _, li := range g.items {
		if li.OrderID == orderID {
			out = append(out, *li)
		}
	}
	return out, nil
}

func (g *fakeGateway) LineItemByID(ctx context.Context, id int64) (*models.LineItem, error) {
	li, ok := g.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *li
	clone.Targeting = li.Targeting.Clone()
	return &clone, nil
}

func (g *fakeGateway) UpdateLineItem(ctx context.Context, li *models.LineItem) error {
	if g.updateErr != nil {
		return g.updateErr
	}
	g.updates = append(g.updates, li)
	clone := *li
	g.items[li.ID] = &clone
	return nil
}

// memoryJournal captures journal records in memory.
type memoryJournal struct {
	records []JournalRecord
}

func (j *memoryJournal) RecordOperation(ctx context.Context, rec JournalRecord) error {
	j.records = append(j.records, rec)
	return nil
}

func newTestService(g Gateway, j Journal) *Service {
	return NewService(g, newTestAssembler(), j, analytics.NewMockAnalytics(), observability.NewNoOpRegistry(), zap.NewNop())
}

func targetedItem(id int64) *models.LineItem {
	return &models.LineItem{
		ID:      id,
		OrderID: 1,
		Name:    "li",
		Targeting: &models.TargetingTree{Groups: []models.Group{
			{Criteria: []models.Criterion{{KeyID: 1, ValueIDs: []int64{10}, Operator: models.OperatorIs}}},
		}},
	}
}

func TestAddTargeting_PushesUpdateWhenChanged(t *testing.T) {
	gw := newFakeGateway()
	gw.items[5] = targetedItem(5)
	journal := &memoryJournal{}
	svc := newTestService(gw, journal)

	changed, err := svc.AddTargeting(context.Background(), 5, 2, []int64{20})
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, gw.updates, 1)

	pushed := gw.updates[0]
	assert.True(t, pushed.AllowOverbook, "overbook override must be set before the write")
	assert.True(t, pushed.SkipInventoryCheck, "inventory check must be skipped before the write")
	assert.NotNil(t, pushed.Targeting.Groups[0].CriterionFor(2))

	require.Len(t, journal.records, 1)
	assert.Equal(t, OpTargetingAdd, journal.records[0].Kind)
	assert.Equal(t, "ok", journal.records[0].Outcome)
	assert.NotEmpty(t, journal.records[0].OpID)
}

func TestAddTargeting_NoUpdateWhenUnchanged(t *testing.T) {
	gw := newFakeGateway()
	gw.items[5] = targetedItem(5)
	svc := newTestService(gw, nil)

	// key 1 / value 10 is already fully present
	changed, err := svc.AddTargeting(context.Background(), 5, 1, []int64{10})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, gw.updates, "an unchanged tree must not be written back")
}

func TestAddTargeting_UntargetedLineItem(t *testing.T) {
	gw := newFakeGateway()
	gw.items[5] = &models.LineItem{ID: 5, OrderID: 1, Name: "bare"}
	svc := newTestService(gw, nil)

	_, err := svc.AddTargeting(context.Background(), 5, 1, []int64{10})
	assert.True(t, models.IsValidation(err), "adding to a line item with no targeting must fail, got %v", err)
}

func TestAddTargeting_NotFound(t *testing.T) {
	svc := newTestService(newFakeGateway(), nil)

	_, err := svc.AddTargeting(context.Background(), 404, 1, []int64{10})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddTargeting_EmptyValues(t *testing.T) {
	svc := newTestService(newFakeGateway(), nil)

	_, err := svc.AddTargeting(context.Background(), 5, 1, nil)
	assert.True(t, models.IsValidation(err))
}

func TestRemoveTargeting_AlwaysPushesUpdate(t *testing.T) {
	gw := newFakeGateway()
	gw.items[5] = targetedItem(5)
	svc := newTestService(gw, nil)

	// Removing a pair that is not present still writes the (unchanged)
	// document back; the caller asked for an explicit removal.
	err := svc.RemoveTargeting(context.Background(), 5, 99, []int64{1})
	require.NoError(t, err)
	require.Len(t, gw.updates, 1)
	assert.True(t, gw.updates[0].AllowOverbook)
	assert.True(t, gw.updates[0].SkipInventoryCheck)
}

func TestRemoveTargeting_PrunesAndPersists(t *testing.T) {
	gw := newFakeGateway()
	gw.items[5] = targetedItem(5)
	svc := newTestService(gw, nil)

	err := svc.RemoveTargeting(context.Background(), 5, 1, []int64{10})
	require.NoError(t, err)
	require.Len(t, gw.updates, 1)
	assert.NotNil(t, gw.updates[0].Targeting, "pruned-empty tree is still a tree, not nil")
	assert.Empty(t, gw.updates[0].Targeting.Groups)
}

func TestRemoveTargeting_UpdateFailureSurfaces(t *testing.T) {
	gw := newFakeGateway()
	gw.items[5] = targetedItem(5)
	gw.updateErr = &models.RemoteError{Op: "update", Err: errors.New("quota exceeded")}
	journal := &memoryJournal{}
	svc := newTestService(gw, journal)

	err := svc.RemoveTargeting(context.Background(), 5, 1, []int64{10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	require.Len(t, journal.records, 1)
	assert.Equal(t, "error", journal.records[0].Outcome)
}

func TestCreate_JournalsAndReturnsResult(t *testing.T) {
	gw := newFakeGateway()
	journal := &memoryJournal{}
	an := analytics.NewMockAnalytics()
	svc := NewService(gw, newTestAssembler(), journal, an, observability.NewNoOpRegistry(), zap.NewNop())

	form := Form{
		OrderID: "7", LineItemName: "Q3 push", Sizes: "300x250",
		Type: "HOUSE", Priority: "12", Rate: "1.00",
	}
	result, err := svc.Create(context.Background(), form)
	require.NoError(t, err)
	assert.NotZero(t, result.ID)
	assert.Equal(t, int64(7), result.OrderID)
	assert.Equal(t, "Q3 push", result.Name)

	require.Len(t, journal.records, 1)
	assert.Equal(t, OpCreate, journal.records[0].Kind)
	require.Len(t, an.Events, 1)
	assert.Equal(t, OpCreate, an.Events[0].Kind)
}

func TestCreate_ValidationSkipsGateway(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr = errors.New("should never be called")
	svc := newTestService(gw, nil)

	_, err := svc.Create(context.Background(), Form{})
	assert.True(t, models.IsValidation(err))
}
