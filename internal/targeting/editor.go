package targeting

import "github.com/fraszczakszymon/dfp-query-tool/internal/models"

// AddPair adds a key/value targeting pair to every group of the tree,
// mutating it in place. A group that already targets the key gets the new
// values unioned into its criterion; a group that does not gets a fresh
// IS criterion appended. The returned flag reports whether any group
// actually changed, so callers can skip the remote update when the pair was
// already fully present.
func AddPair(tree *models.TargetingTree, keyID int64, valueIDs []int64) bool {
	if tree == nil {
		return false
	}
	changed := false
	for i := range tree.Groups {
		group := &tree.Groups[i]
		if c := group.CriterionFor(keyID); c != nil {
			for _, v := range valueIDs {
				if !c.HasValue(v) {
					c.ValueIDs = append(c.ValueIDs, v)
					changed = true
				}
			}
			continue
		}
		values := make([]int64, len(valueIDs))
		copy(values, valueIDs)
		group.Criteria = append(group.Criteria, models.Criterion{
			KeyID:    keyID,
			ValueIDs: values,
			Operator: models.OperatorIs,
		})
		changed = true
	}
	return changed
}

// RemovePair removes the given values from the key's criterion in every
// group, mutating the tree in place. A criterion left with no values is
// dropped from its group, and a group left with no criteria is dropped from
// the tree; the platform rejects empty sets at either level. Criteria for
// other keys pass through untouched.
//
// The returned flag reports whether anything changed structurally; note the
// service layer persists removals unconditionally regardless.
func RemovePair(tree *models.TargetingTree, keyID int64, valueIDs []int64) bool {
	if tree == nil {
		return false
	}
	remove := make(map[int64]struct{}, len(valueIDs))
	for _, v := range valueIDs {
		remove[v] = struct{}{}
	}

	changed := false
	groups := tree.Groups[:0]
	for i := range tree.Groups {
		group := tree.Groups[i]
		criteria := group.Criteria[:0]
		for _, c := range group.Criteria {
			if c.KeyID != keyID {
				criteria = append(criteria, c)
				continue
			}
			kept := c.ValueIDs[:0]
			for _, v := range c.ValueIDs {
				if _, drop := remove[v]; drop {
					changed = true
					continue
				}
				kept = append(kept, v)
			}
			c.ValueIDs = kept
			if len(c.ValueIDs) > 0 {
				criteria = append(criteria, c)
			} else {
				changed = true
			}
		}
		group.Criteria = criteria
		if len(group.Criteria) > 0 {
			groups = append(groups, group)
		} else {
			changed = true
		}
	}
	tree.Groups = groups
	return changed
}
