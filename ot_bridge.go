package texttree

// PartiallyUnapply undoes every op in r, in reverse LV order: deletes
// are reactivated (respecting the double-delete ledger) and inserts
// are deactivated. This is *unsafe* in the sense that only the B-tree
// and its indices are restored; the frontier and causal graph are left
// untouched, so callers use it to rewind to a historical version for
// OT-shaped diffing, not as a generic undo.
func (e *Engine) PartiallyUnapply(r LVRange) {
	pos := r.End
	for pos > r.Start {
		if idx, off, found := e.deletes.Find(int(pos - 1)); found {
			// Walk backwards to the start of the delete run covering
			// pos-1 (or to r.Start, whichever is closer).
			d := e.deletes.At(idx)
			runStart := max(pos-1-LV(off), r.Start)
			e.reactivateTarget(d.targetStart+(runStart-d.lvStart), int(pos-runStart))
			pos = runStart
			continue
		}

		// Find the insert span covering pos-1 and deactivate back to its
		// start (or to r.Start, whichever is closer).
		lvStart, n := e.insertRunEndingAt(pos, r.Start)
		cursor, ok := e.tree.CursorAtLV(lvStart)
		if !ok {
			panicInvariant(lvStart, "partial unapply: insert lv missing from tree")
		}
		e.tree.LocalDeactivate(cursor, n)
		pos = lvStart
	}
}

// insertRunEndingAt finds the run of insert LVs ending at `upto` (an
// exclusive upper bound) and bounded below by `floor`, returning its
// start LV and length.
func (e *Engine) insertRunEndingAt(upto LV, floor LV) (LV, int) {
	cursor, ok := e.tree.CursorAtLV(upto - 1)
	if !ok {
		panicInvariant(upto-1, "partial unapply: lv not present in tree")
	}
	span := e.tree.EntryAt(cursor)
	start := span.LVStart
	if start < floor {
		start = floor
	}
	return start, int(upto - start)
}

// reactivateTarget reactivates up to n characters of a deleted target
// range, consulting the double-delete ledger first: only the prefix
// whose excess count is already zero is safe to reactivate on the
// B-tree; the rest just has its ledger count decremented.
func (e *Engine) reactivateTarget(targetStart LV, n int) {
	pos := targetStart
	remaining := n
	for remaining > 0 {
		zeroLen := e.doubleDel.FindZeroRange(pos, remaining)
		if zeroLen > 0 {
			cursor, ok := e.tree.CursorAtLV(pos)
			if !ok {
				panicInvariant(pos, "partial unapply: delete target missing from tree")
			}
			e.tree.RemoteReactivate(cursor, zeroLen)
			pos += LV(zeroLen)
			remaining -= zeroLen
			continue
		}
		decremented := e.doubleDel.DecrementRange(pos, remaining)
		if decremented == 0 {
			break
		}
		pos += LV(decremented)
		remaining -= decremented
	}
}

// PartiallyReapply redoes every op in r, in forward order: the inverse
// of PartiallyUnapply, used to restore state after producing an
// OT-shaped diff at a historical version.
func (e *Engine) PartiallyReapply(r LVRange) {
	pos := r.Start
	for pos < r.End {
		remaining := int(r.End - pos)

		if targetStart, runLen, ok := e.deleteRunAt(pos, remaining); ok {
			e.deactivateTarget(targetStart, runLen)
			pos += LV(runLen)
			continue
		}

		runLen := e.text.RunLength(pos, remaining)
		if runLen == 0 {
			panicInvariant(pos, "partial reapply: lv covered by neither insert nor delete")
		}
		cursor, ok := e.tree.CursorAtLV(pos)
		if !ok {
			panicInvariant(pos, "partial reapply: insert lv missing from tree")
		}
		e.tree.RemoteReactivate(cursor, runLen)
		pos += LV(runLen)
	}
}

// deactivateTarget is PartiallyReapply's delete-side step: redo a
// delete by deactivating its target range and re-incrementing the
// double-delete ledger for any sub-range that was already tombstoned
// by someone else.
func (e *Engine) deactivateTarget(targetStart LV, n int) {
	cursor, ok := e.tree.CursorAtLV(targetStart)
	if !ok {
		panicInvariant(targetStart, "partial reapply: delete target missing from tree")
	}
	remaining := n
	for remaining > 0 {
		consumed, lvRange, skipped := e.tree.RemoteDeactivate(cursor, remaining)
		if consumed == 0 {
			break
		}
		if skipped {
			e.doubleDel.IncrementRange(lvRange.Start, lvRange.Len())
		}
		cursor = e.tree.AdvanceRaw(cursor, consumed)
		remaining -= consumed
	}
}
