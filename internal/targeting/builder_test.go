package targeting

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
)

// fakeResolver resolves names from fixed maps and records call counts.
type fakeResolver struct {
	keys      map[string]int64
	values    map[string]int64 // keyed by "keyID/name"
	keyCalls  int
	valueCalls int
}

func (f *fakeResolver) KeyIDs(ctx context.Context, names []string) ([]int64, error) {
	f.keyCalls++
	ids := make([]int64, len(names))
	for i, n := range names {
		id, ok := f.keys[n]
		if !ok {
			return nil, &models.ResolutionError{Kind: "key", Name: n, Err: errors.New("no such key")}
		}
		ids[i] = id
	}
	return ids, nil
}

func (f *fakeResolver) ValueIDs(ctx context.Context, keyID int64, names []string) ([]int64, error) {
	f.valueCalls++
	ids := make([]int64, len(names))
	for i, n := range names {
		id, ok := f.values[fmt.Sprintf("%d/%s", keyID, n)]
		if !ok {
			return nil, &models.ResolutionError{Kind: "value", Name: n, Err: errors.New("no such value")}
		}
		ids[i] = id
	}
	return ids, nil
}

func TestBuild_SingleKeyTwoValues(t *testing.T) {
	resolver := &fakeResolver{
		keys:   map[string]int64{"k1": 100},
		values: map[string]int64{"100/a": 1, "100/b": 2},
	}
	builder := NewTreeBuilder(resolver)

	tree, err := builder.Build(context.Background(), []string{"k1"}, []string{"a,b"}, []string{"IS"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree == nil || len(tree.Groups) != 1 {
		t.Fatalf("expected exactly one group, got %+v", tree)
	}
	group := tree.Groups[0]
	if len(group.Criteria) != 1 {
		t.Fatalf("expected one criterion, got %d", len(group.Criteria))
	}
	c := group.Criteria[0]
	if c.KeyID != 100 || c.Operator != models.OperatorIs {
		t.Errorf("criterion = %+v, want key 100 operator IS", c)
	}
	if !reflect.DeepEqual(c.ValueIDs, []int64{1, 2}) {
		t.Errorf("value IDs = %v, want [1 2]", c.ValueIDs)
	}
	if resolver.keyCalls != 1 {
		t.Errorf("key resolution should be one batched call, got %d", resolver.keyCalls)
	}
}

func TestBuild_NoKeysMeansNoTargeting(t *testing.T) {
	builder := NewTreeBuilder(&fakeResolver{})

	tree, err := builder.Build(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree != nil {
		t.Errorf("no keys should yield a nil tree, got %+v", tree)
	}
}

func TestBuild_MisalignedArrays(t *testing.T) {
	builder := NewTreeBuilder(&fakeResolver{keys: map[string]int64{"k1": 100}})

	_, err := builder.Build(context.Background(), []string{"k1"}, []string{"a"}, []string{"IS", "IS_NOT"})
	if !models.IsValidation(err) {
		t.Fatalf("expected a validation error for misaligned operators, got %v", err)
	}
}

func TestBuild_EmptyValueListRejected(t *testing.T) {
	builder := NewTreeBuilder(&fakeResolver{
		keys:   map[string]int64{"k1": 100},
		values: map[string]int64{"100/a": 1},
	})

	for _, list := range []string{"", " ", ",", " , ,"} {
		tree, err := builder.Build(context.Background(), []string{"k1"}, []string{list}, []string{"IS"})
		if !models.IsValidation(err) {
			t.Errorf("value list %q: expected a validation error, got tree=%+v err=%v", list, tree, err)
		}
	}
}

func TestBuild_UnknownKeyIsResolutionError(t *testing.T) {
	builder := NewTreeBuilder(&fakeResolver{keys: map[string]int64{}})

	_, err := builder.Build(context.Background(), []string{"nope"}, []string{"a"}, []string{"IS"})
	if !models.IsResolution(err) {
		t.Fatalf("expected a resolution error, got %v", err)
	}
	if models.IsValidation(err) {
		t.Error("resolution errors must stay distinct from validation errors")
	}
}

func TestBuild_MultipleKeys(t *testing.T) {
	resolver := &fakeResolver{
		keys:   map[string]int64{"pos": 1, "src": 2},
		values: map[string]int64{"1/top": 10, "2/gpt": 20, "2/mobile": 21},
	}
	builder := NewTreeBuilder(resolver)

	tree, err := builder.Build(context.Background(),
		[]string{"pos", "src"},
		[]string{"top", "gpt, mobile"},
		[]string{"IS", "IS_NOT"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tree.Groups) != 1 || len(tree.Groups[0].Criteria) != 2 {
		t.Fatalf("expected one group with two criteria, got %+v", tree)
	}
	second := tree.Groups[0].Criteria[1]
	if second.Operator != models.OperatorIsNot {
		t.Errorf("second operator = %q, want IS_NOT", second.Operator)
	}
	if !reflect.DeepEqual(second.ValueIDs, []int64{20, 21}) {
		t.Errorf("second values = %v, want [20 21] (whitespace trimmed)", second.ValueIDs)
	}
}

func TestBuildThenAddNewKey_JoinsExistingGroup(t *testing.T) {
	resolver := &fakeResolver{
		keys:   map[string]int64{"k1": 100},
		values: map[string]int64{"100/a": 1},
	}
	builder := NewTreeBuilder(resolver)

	tree, err := builder.Build(context.Background(), []string{"k1"}, []string{"a"}, []string{"IS"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	AddPair(tree, 200, []int64{5})
	if len(tree.Groups) != 1 {
		t.Fatalf("add must extend the single group, not create a second one; got %d groups", len(tree.Groups))
	}
	if len(tree.Groups[0].Criteria) != 2 {
		t.Errorf("expected 2 criteria after add, got %d", len(tree.Groups[0].Criteria))
	}
}
