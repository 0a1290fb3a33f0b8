package models

// Operator is the comparison applied by a targeting criterion.
type Operator string

// Criterion operators supported by the ad platform.
const (
	OperatorIs    Operator = "IS"
	OperatorIsNot Operator = "IS_NOT"
)

// Criterion is a single custom-targeting fact: a platform key matched against
// one or more platform values. ValueIDs must never be empty; a criterion whose
// last value is removed has to be dropped from its group instead.
type Criterion struct {
	KeyID    int64    `json:"key_id"`
	ValueIDs []int64  `json:"value_ids"`
	Operator Operator `json:"operator"`
}

// HasValue reports whether the criterion already targets the given value ID.
func (c *Criterion) HasValue(id int64) bool {
	for _, v := range c.ValueIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Group is an ordered set of criteria combined with a logical AND. The ad
// platform rejects empty groups, so a group whose last criterion is removed
// must be pruned from the tree.
type Group struct {
	Criteria []Criterion `json:"criteria"`
}

// CriterionFor returns the group's criterion for the given key, or nil.
func (g *Group) CriterionFor(keyID int64) *Criterion {
	for i := range g.Criteria {
		if g.Criteria[i].KeyID == keyID {
			return &g.Criteria[i]
		}
	}
	return nil
}

// TargetingTree is the custom-targeting expression attached to a line item:
// a set of groups combined under a single top-level AND. Exactly two levels
// deep, always. A line item with no custom targeting at all carries a nil
// *TargetingTree, which is distinct from a tree whose groups were all pruned
// away by removals.
type TargetingTree struct {
	Groups []Group `json:"groups"`
}

// IsEmpty reports whether every group has been pruned from the tree. A nil
// tree (no targeting configured) is not considered empty; the two states mean
// different things to callers.
func (t *TargetingTree) IsEmpty() bool {
	return t != nil && len(t.Groups) == 0
}

// Clone returns a deep copy of the tree. Editors mutate trees in place, so
// callers that need the pre-edit state for journaling copy first.
func (t *TargetingTree) Clone() *TargetingTree {
	if t == nil {
		return nil
	}
	out := &TargetingTree{Groups: make([]Group, len(t.Groups))}
	for i, g := range t.Groups {
		criteria := make([]Criterion, len(g.Criteria))
		for j, c := range g.Criteria {
			values := make([]int64, len(c.ValueIDs))
			copy(values, c.ValueIDs)
			criteria[j] = Criterion{KeyID: c.KeyID, ValueIDs: values, Operator: c.Operator}
		}
		out.Groups[i] = Group{Criteria: criteria}
	}
	return out
}
