package targeting

import (
	"reflect"
	"testing"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
)

func singleGroupTree(criteria ...models.Criterion) *models.TargetingTree {
	return &models.TargetingTree{Groups: []models.Group{{Criteria: criteria}}}
}

func TestAddPair_NewCriterion(t *testing.T) {
	tree := singleGroupTree(models.Criterion{KeyID: 1, ValueIDs: []int64{10}, Operator: models.OperatorIs})

	changed := AddPair(tree, 2, []int64{20, 21})
	if !changed {
		t.Fatal("expected changed=true when appending a new criterion")
	}
	if len(tree.Groups) != 1 {
		t.Fatalf("expected the pair to join the existing group, got %d groups", len(tree.Groups))
	}
	group := tree.Groups[0]
	if len(group.Criteria) != 2 {
		t.Fatalf("expected 2 criteria, got %d", len(group.Criteria))
	}
	added := group.CriterionFor(2)
	if added == nil {
		t.Fatal("criterion for key 2 missing")
	}
	if added.Operator != models.OperatorIs {
		t.Errorf("new criterion operator = %q, want IS", added.Operator)
	}
	if !reflect.DeepEqual(added.ValueIDs, []int64{20, 21}) {
		t.Errorf("new criterion values = %v, want [20 21]", added.ValueIDs)
	}
}

func TestAddPair_UnionsExistingValues(t *testing.T) {
	tree := singleGroupTree(models.Criterion{KeyID: 1, ValueIDs: []int64{10, 11}, Operator: models.OperatorIs})

	changed := AddPair(tree, 1, []int64{11, 12})
	if !changed {
		t.Fatal("expected changed=true when a new value was unioned in")
	}
	c := tree.Groups[0].CriterionFor(1)
	if !reflect.DeepEqual(c.ValueIDs, []int64{10, 11, 12}) {
		t.Errorf("values = %v, want [10 11 12]", c.ValueIDs)
	}
}

func TestAddPair_Idempotent(t *testing.T) {
	tree := singleGroupTree(models.Criterion{KeyID: 1, ValueIDs: []int64{10}, Operator: models.OperatorIs})

	if changed := AddPair(tree, 1, []int64{11}); !changed {
		t.Fatal("first add should report a change")
	}
	before := tree.Clone()
	if changed := AddPair(tree, 1, []int64{11}); changed {
		t.Fatal("second identical add should report changed=false")
	}
	if !reflect.DeepEqual(tree, before) {
		t.Error("second identical add mutated the tree")
	}
}

func TestAddPair_NeverDuplicatesValues(t *testing.T) {
	tree := singleGroupTree(models.Criterion{KeyID: 7, ValueIDs: []int64{1}, Operator: models.OperatorIs})

	adds := [][]int64{{1, 2}, {2, 3}, {3, 1}, {2}}
	for _, vs := range adds {
		AddPair(tree, 7, vs)
	}
	seen := map[int64]int{}
	for _, v := range tree.Groups[0].CriterionFor(7).ValueIDs {
		seen[v]++
	}
	for v, n := range seen {
		if n > 1 {
			t.Errorf("value %d appears %d times", v, n)
		}
	}
}

func TestAddPair_AppliesToEveryGroup(t *testing.T) {
	tree := &models.TargetingTree{Groups: []models.Group{
		{Criteria: []models.Criterion{{KeyID: 1, ValueIDs: []int64{10}, Operator: models.OperatorIs}}},
		{Criteria: []models.Criterion{{KeyID: 2, ValueIDs: []int64{20}, Operator: models.OperatorIsNot}}},
	}}

	AddPair(tree, 3, []int64{30})
	for i, g := range tree.Groups {
		if g.CriterionFor(3) == nil {
			t.Errorf("group %d missing criterion for key 3", i)
		}
	}
}

func TestAddPair_NilTree(t *testing.T) {
	if AddPair(nil, 1, []int64{1}) {
		t.Error("adding to a nil tree must be a no-op")
	}
}

func TestRemovePair_RemovesValues(t *testing.T) {
	tree := singleGroupTree(
		models.Criterion{KeyID: 1, ValueIDs: []int64{10, 11, 12}, Operator: models.OperatorIs},
		models.Criterion{KeyID: 2, ValueIDs: []int64{20}, Operator: models.OperatorIs},
	)

	changed := RemovePair(tree, 1, []int64{11})
	if !changed {
		t.Fatal("expected a structural change")
	}
	c := tree.Groups[0].CriterionFor(1)
	if !reflect.DeepEqual(c.ValueIDs, []int64{10, 12}) {
		t.Errorf("values = %v, want [10 12]", c.ValueIDs)
	}
	if other := tree.Groups[0].CriterionFor(2); other == nil || !reflect.DeepEqual(other.ValueIDs, []int64{20}) {
		t.Error("criterion for key 2 should pass through unchanged")
	}
}

func TestRemovePair_PrunesEmptyCriterion(t *testing.T) {
	tree := singleGroupTree(
		models.Criterion{KeyID: 1, ValueIDs: []int64{10}, Operator: models.OperatorIs},
		models.Criterion{KeyID: 2, ValueIDs: []int64{20}, Operator: models.OperatorIs},
	)

	RemovePair(tree, 1, []int64{10})
	if tree.Groups[0].CriterionFor(1) != nil {
		t.Error("criterion with no values left should be dropped")
	}
	if len(tree.Groups[0].Criteria) != 1 {
		t.Errorf("group should keep the other criterion, got %d", len(tree.Groups[0].Criteria))
	}
}

func TestRemovePair_PrunesEmptyGroup(t *testing.T) {
	tree := singleGroupTree(models.Criterion{KeyID: 1, ValueIDs: []int64{10}, Operator: models.OperatorIs})

	RemovePair(tree, 1, []int64{10})
	if len(tree.Groups) != 0 {
		t.Fatalf("expected group to be pruned, got %d groups", len(tree.Groups))
	}
	// The tree survives as an explicitly-empty tree, which is a different
	// state from a line item that never had targeting (nil).
	if tree == nil || !tree.IsEmpty() {
		t.Error("tree should be non-nil and empty after pruning the last group")
	}
}

func TestRemovePair_Idempotent(t *testing.T) {
	tree := singleGroupTree(models.Criterion{KeyID: 1, ValueIDs: []int64{10, 11}, Operator: models.OperatorIs})

	if changed := RemovePair(tree, 1, []int64{11}); !changed {
		t.Fatal("first removal should change the tree")
	}
	before := tree.Clone()
	if changed := RemovePair(tree, 1, []int64{11}); changed {
		t.Error("second identical removal should report changed=false")
	}
	if !reflect.DeepEqual(tree, before) {
		t.Error("second identical removal mutated the tree")
	}
}

func TestRemovePair_UnknownKey(t *testing.T) {
	tree := singleGroupTree(models.Criterion{KeyID: 1, ValueIDs: []int64{10}, Operator: models.OperatorIs})

	if changed := RemovePair(tree, 99, []int64{10}); changed {
		t.Error("removing an untargeted key should not change the tree")
	}
	if len(tree.Groups) != 1 || len(tree.Groups[0].Criteria) != 1 {
		t.Error("tree structure should be untouched")
	}
}
