// Package doubledelete implements the double-delete ledger: a sparse
// run-length map from target LV to an excess-delete counter,
// needed so a character deleted by more than one concurrent peer can
// be reactivated exactly when the last of those deletes is undone.
package doubledelete

import (
	"github.com/gocrdt/texttree/internal/btree"
	"github.com/gocrdt/texttree/internal/rle"
)

// LV re-exports btree's logical-version type.
type LV = btree.LV

// entry is one run of the ledger: a contiguous LV range all sharing
// the same excess-delete count.
type entry struct {
	lvStart LV
	length  int
	excess  uint32
}

func (e *entry) Len() int    { return e.length }
func (e *entry) RleKey() int { return int(e.lvStart) }
func (e *entry) CanAppend(next *entry) bool {
	return e.excess == next.excess && e.lvStart+LV(e.length) == next.lvStart
}
func (e *entry) Append(next *entry) { e.length += next.length }
func (e *entry) Truncate(at int) *entry {
	tail := &entry{lvStart: e.lvStart + LV(at), length: e.length - at, excess: e.excess}
	e.length = at
	return tail
}
func (e *entry) Clone() *entry {
	c := *e
	return &c
}

var _ rle.Record[*entry] = (*entry)(nil)

// Ledger is the double-delete ledger. The zero value is not usable;
// call New.
type Ledger struct {
	list *rle.List[*entry]
}

// New returns an empty ledger (every LV implicitly has excess 0).
func New() *Ledger {
	return &Ledger{list: rle.New[*entry]()}
}

// IncrementRange adds 1 to the excess-delete counter across
// [base, base+len), creating entries in gaps (as count 1) and merging
// adjacent runs that end up sharing an excess count.
func (l *Ledger) IncrementRange(base LV, length int) {
	l.mutateRange(base, length, func(excess uint32) uint32 { return excess + 1 })
}

// DecrementRange decrements the excess counter across [base, ...), up
// to maxLen, stopping at the first LV whose counter is already zero
// (reactivation only ever proceeds through genuinely double-deleted
// characters). Returns the number of LVs actually decremented.
func (l *Ledger) DecrementRange(base LV, maxLen int) (consumed int) {
	pos := base
	remaining := maxLen
	for remaining > 0 {
		excess := l.excessAt(pos)
		if excess == 0 {
			break
		}
		run := l.runLengthAt(pos, remaining)
		l.mutateRange(pos, run, func(e uint32) uint32 { return e - 1 })
		pos += LV(run)
		remaining -= run
		consumed += run
	}
	return consumed
}

// FindZeroRange returns the length of the largest prefix of
// [base, base+maxLen) whose excess count is zero, i.e. safe to
// reactivate directly on the content tree without touching the ledger.
func (l *Ledger) FindZeroRange(base LV, maxLen int) int {
	if l.excessAt(base) != 0 {
		return 0
	}
	return l.runLengthAt(base, maxLen)
}

// excessAt returns the excess-delete count currently recorded for lv.
func (l *Ledger) excessAt(lv LV) uint32 {
	idx, _, ok := l.list.Find(int(lv))
	if !ok {
		return 0
	}
	return l.list.At(idx).excess
}

// runLengthAt returns how far, starting at lv and bounded by maxLen,
// the excess count stays at its value at lv (used both to bound a
// same-excess increment/decrement batch and to size a zero-run).
func (l *Ledger) runLengthAt(lv LV, maxLen int) int {
	want := l.excessAt(lv)
	n := 0
	for n < maxLen && l.excessAt(lv+LV(n)) == want {
		n++
	}
	return n
}

// mutateRange applies fn to the excess count of every LV in
// [base, base+length), splitting/merging ledger entries as needed. Gaps
// (implicit excess 0) are filled with fresh entries before fn runs.
func (l *Ledger) mutateRange(base LV, length int, fn func(uint32) uint32) {
	pos := base
	remaining := length
	for remaining > 0 {
		idx, _, found, _, voidEnd, _ := l.list.FindSparse(int(pos))
		if !found {
			// No entry covers pos: treat as an implicit-zero gap up to
			// the next real entry (or the end of this mutation).
			gapLen := remaining
			if voidEnd >= 0 {
				if avail := voidEnd - int(pos); avail < gapLen {
					gapLen = avail
				}
			}
			newExcess := fn(0)
			if newExcess != 0 {
				l.list.Insert(&entry{lvStart: pos, length: gapLen, excess: newExcess})
			}
			pos += LV(gapLen)
			remaining -= gapLen
			continue
		}

		e := l.list.At(idx)
		offsetInEntry := int(pos - e.lvStart)
		avail := e.length - offsetInEntry
		take := avail
		if take > remaining {
			take = remaining
		}

		l.list.Remove(int(pos), int(pos)+take)
		newExcess := fn(e.excess)
		if newExcess != 0 {
			l.list.Insert(&entry{lvStart: pos, length: take, excess: newExcess})
		}
		pos += LV(take)
		remaining -= take
	}
}
