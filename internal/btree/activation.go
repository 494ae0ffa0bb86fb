package btree

// LVRange is a half-open range of logical versions [Start, End).
type LVRange struct {
	Start LV
	End   LV
}

// Len returns the number of LVs covered by the range.
func (r LVRange) Len() int { return int(r.End - r.Start) }

func (t *Tree) toggleActivation(leafIdx int, e *Span, deleted bool) {
	leaf := t.leaves[leafIdx]
	oldCur, oldRaw := spanMetrics(e)
	e.Deleted = deleted
	newCur, newRaw := spanMetrics(e)
	dCur, dRaw := newCur-oldCur, newRaw-oldRaw
	leaf.cur += dCur
	leaf.raw += dRaw
	t.propagateUp(leaf.parent, nodeRef{leafNodeKind, leafIdx}, dCur, dRaw)
}

// normalizeEntryStart ensures the entry at entryIdx begins exactly at
// `offset`, splitting it in place if necessary, and returns the index
// of the (possibly new) entry that now starts there.
func (t *Tree) normalizeEntryStart(leafIdx, entryIdx, offset int) int {
	if offset == 0 {
		return entryIdx
	}
	t.splitEntryAt(leafIdx, entryIdx, offset)
	return entryIdx + 1
}

// normalizeEntryEnd ensures the entry at entryIdx is exactly `take`
// long, splitting off any remainder so later code can mutate the
// entry as a whole without touching what follows it.
func (t *Tree) normalizeEntryEnd(leafIdx, entryIdx, take int) {
	leaf := t.leaves[leafIdx]
	if take < leaf.entries[entryIdx].Len {
		t.splitEntryAt(leafIdx, entryIdx, take)
	}
}

// splitEntryAt splits entries[entryIdx] in place at offset, inserting
// the tail as a new entry immediately after it.
func (t *Tree) splitEntryAt(leafIdx, entryIdx, offset int) {
	leaf := t.leaves[leafIdx]
	e := leaf.entries[entryIdx]
	if offset <= 0 || offset >= e.Len {
		return
	}
	tail := e.Truncate(offset)
	t.spliceIn(leafIdx, entryIdx+1, tail)
}

// tryMergeAround attempts to merge entries[idx] with its neighbor on
// either side, used after an activation toggle reunites spans that
// were only split to bound the toggled region.
func (t *Tree) tryMergeAround(leafIdx, idx int) {
	leaf := t.leaves[leafIdx]
	if idx >= 0 && idx+1 < len(leaf.entries) && leaf.entries[idx].CanAppend(leaf.entries[idx+1]) {
		leaf.entries[idx].Append(leaf.entries[idx+1])
		leaf.entries = append(leaf.entries[:idx+1], leaf.entries[idx+2:]...)
	}
	if idx-1 >= 0 && idx-1 < len(leaf.entries) && leaf.entries[idx-1].CanAppend(leaf.entries[idx]) {
		leaf.entries[idx-1].Append(leaf.entries[idx])
		leaf.entries = append(leaf.entries[:idx], leaf.entries[idx+1:]...)
	}
}

// advanceToNextLive moves (leafIdx, entryIdx) forward, crossing leaf
// boundaries, until it addresses an entry or the end of the tree.
// Returns ok=false once there is nothing left.
func (t *Tree) advanceToNextLive(leafIdx, entryIdx int) (int, int, bool) {
	for {
		leaf := t.leaves[leafIdx]
		if entryIdx < len(leaf.entries) {
			return leafIdx, entryIdx, true
		}
		next := leaf.nextLeaf
		if next == -1 {
			return leafIdx, entryIdx, false
		}
		leafIdx, entryIdx = next, 0
	}
}

// LocalDeactivate walks forward from cursor deactivating up to n
// active characters, skipping entries that are already tombstoned.
// Returns the LV ranges that were actually toggled this
// call, in document order.
func (t *Tree) LocalDeactivate(c Cursor, n int) []LVRange {
	var out []LVRange
	leafIdx, entryIdx, offset := c.LeafIdx, c.EntryIdx, c.Offset
	remaining := n
	for remaining > 0 {
		var ok bool
		leafIdx, entryIdx, ok = t.advanceToNextLive(leafIdx, entryIdx)
		if !ok {
			break
		}
		leaf := t.leaves[leafIdx]
		if leaf.entries[entryIdx].Deleted {
			entryIdx++
			offset = 0
			continue
		}
		entryIdx = t.normalizeEntryStart(leafIdx, entryIdx, offset)
		offset = 0
		leaf = t.leaves[leafIdx]
		e := leaf.entries[entryIdx]
		take := min(e.Len, remaining)
		t.normalizeEntryEnd(leafIdx, entryIdx, take)
		leaf = t.leaves[leafIdx]
		e = leaf.entries[entryIdx]

		t.toggleActivation(leafIdx, e, true)
		out = append(out, LVRange{Start: e.LVStart, End: e.LVStart + LV(e.Len)})
		remaining -= take
		t.tryMergeAround(leafIdx, entryIdx)
		entryIdx++
	}
	return out
}

// RemoteDeactivate deactivates up to n characters starting at cursor
// regardless of current activation state. It processes one
// maximal same-state run at a time: if the run it lands on is already
// tombstoned, it returns skipped=true and makes no change, so the
// caller can account the run in the double-delete ledger instead.
func (t *Tree) RemoteDeactivate(c Cursor, n int) (consumed int, lvRange LVRange, skipped bool) {
	leafIdx, entryIdx, ok := t.advanceToNextLive(c.LeafIdx, c.EntryIdx)
	if !ok {
		return 0, LVRange{}, false
	}
	already := t.leaves[leafIdx].entries[entryIdx].Deleted

	entryIdx = t.normalizeEntryStart(leafIdx, entryIdx, c.Offset)
	leaf := t.leaves[leafIdx]
	e := leaf.entries[entryIdx]
	take := min(e.Len, n)
	t.normalizeEntryEnd(leafIdx, entryIdx, take)
	leaf = t.leaves[leafIdx]
	e = leaf.entries[entryIdx]
	lvRange = LVRange{Start: e.LVStart, End: e.LVStart + LV(e.Len)}

	if already {
		return take, lvRange, true
	}
	t.toggleActivation(leafIdx, e, true)
	t.tryMergeAround(leafIdx, entryIdx)
	return take, lvRange, false
}

// RemoteReactivate is the inverse of RemoteDeactivate: it reactivates
// up to n tombstoned characters starting at cursor, used when undoing
// a delete whose double-delete excess has returned to zero.
func (t *Tree) RemoteReactivate(c Cursor, n int) (consumed int, lvRange LVRange) {
	leafIdx, entryIdx, ok := t.advanceToNextLive(c.LeafIdx, c.EntryIdx)
	if !ok {
		return 0, LVRange{}
	}
	entryIdx = t.normalizeEntryStart(leafIdx, entryIdx, c.Offset)
	leaf := t.leaves[leafIdx]
	e := leaf.entries[entryIdx]
	take := min(e.Len, n)
	t.normalizeEntryEnd(leafIdx, entryIdx, take)
	leaf = t.leaves[leafIdx]
	e = leaf.entries[entryIdx]
	lvRange = LVRange{Start: e.LVStart, End: e.LVStart + LV(e.Len)}

	t.toggleActivation(leafIdx, e, false)
	t.tryMergeAround(leafIdx, entryIdx)
	return take, lvRange
}

// MutateEntry mutates up to maxLen characters starting at cursor
// in place, without moving entries between leaves or notifying the
// marker index. It decrements metrics for the affected
// region, applies mapFn, increments metrics for the result, and
// attempts to re-merge with the following entry.
func (t *Tree) MutateEntry(c Cursor, maxLen int, mapFn func(*Span)) int {
	leafIdx, entryIdx, ok := t.advanceToNextLive(c.LeafIdx, c.EntryIdx)
	if !ok {
		return 0
	}
	entryIdx = t.normalizeEntryStart(leafIdx, entryIdx, c.Offset)
	leaf := t.leaves[leafIdx]
	e := leaf.entries[entryIdx]
	take := min(e.Len, maxLen)
	t.normalizeEntryEnd(leafIdx, entryIdx, take)
	leaf = t.leaves[leafIdx]
	e = leaf.entries[entryIdx]

	oldCur, oldRaw := spanMetrics(e)
	mapFn(e)
	newCur, newRaw := spanMetrics(e)
	dCur, dRaw := newCur-oldCur, newRaw-oldRaw
	leaf.cur += dCur
	leaf.raw += dRaw
	t.propagateUp(leaf.parent, nodeRef{leafNodeKind, leafIdx}, dCur, dRaw)
	t.tryMergeAround(leafIdx, entryIdx)
	return take
}

// AdvanceRaw moves a cursor forward by n raw (including tombstones)
// units, crossing leaf boundaries as needed.
func (t *Tree) AdvanceRaw(c Cursor, n int) Cursor {
	leafIdx, entryIdx, offset := c.LeafIdx, c.EntryIdx, c.Offset
	remaining := n
	for remaining > 0 {
		leaf := t.leaves[leafIdx]
		if entryIdx >= len(leaf.entries) {
			next := leaf.nextLeaf
			if next == -1 {
				break
			}
			leafIdx, entryIdx, offset = next, 0, 0
			continue
		}
		e := leaf.entries[entryIdx]
		avail := e.Len - offset
		if remaining < avail {
			offset += remaining
			remaining = 0
		} else {
			remaining -= avail
			entryIdx++
			offset = 0
		}
	}
	return Cursor{LeafIdx: leafIdx, EntryIdx: entryIdx, Offset: offset}
}
