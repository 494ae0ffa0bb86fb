package btree

// IterAll walks every span in document order, following next_leaf
// pointers rather than recursing through the tree. Leaf 0 is always
// the document's first leaf: splits append the migrated half to the
// end of t.leaves and leave the head-of-list leaf's index untouched.
// fn returning false stops the walk early.
func (t *Tree) IterAll(fn func(*Span) bool) {
	for li := 0; li != -1; {
		leaf := t.leaves[li]
		for _, e := range leaf.entries {
			if !fn(e) {
				return
			}
		}
		li = leaf.nextLeaf
	}
}

// IterMerged is the merge-iteration adapter: it coalesces
// adjacent spans that satisfy CanAppend as it walks, so a caller never
// sees two runs that a single InsertAtCursor would have merged into
// one. Each span handed to fn is a detached clone; mutating it has no
// effect on the tree.
func (t *Tree) IterMerged(fn func(*Span) bool) {
	var pending *Span
	t.IterAll(func(e *Span) bool {
		if pending == nil {
			pending = e.Clone()
			return true
		}
		if pending.CanAppend(e) {
			pending.Append(e)
			return true
		}
		if !fn(pending) {
			return false
		}
		pending = e.Clone()
		return true
	})
	if pending != nil {
		fn(pending)
	}
}

// IterFrom walks every span in document order starting at cursor c
// (inclusive of any partial entry at c.Offset > 0, in which case fn
// receives a clone truncated to the remaining suffix).
func (t *Tree) IterFrom(c Cursor, fn func(*Span) bool) {
	leafIdx, entryIdx := c.LeafIdx, c.EntryIdx
	first := true
	for li := leafIdx; li != -1; {
		leaf := t.leaves[li]
		start := 0
		if first {
			start = entryIdx
		}
		for ei := start; ei < len(leaf.entries); ei++ {
			e := leaf.entries[ei]
			if first && ei == entryIdx && c.Offset > 0 {
				suffix := e.Clone().Truncate(c.Offset)
				if !fn(suffix) {
					return
				}
				continue
			}
			if !fn(e) {
				return
			}
		}
		first = false
		li = leaf.nextLeaf
	}
}
