// Package rle implements the run-length container used throughout the
// engine: an ordered, auto-merging array of record-valued entries that
// supports binary search by an integer key.
//
// This is the single most-used primitive in the core. Every other
// component (the content B-tree's marker index, the causal graph, the
// double-delete ledger) is built on top of a List.
package rle

import (
	"fmt"
	"sort"
)

// Record is the contract a value must satisfy to live in a List. T is
// the record type itself (self-referential / F-bounded) and is expected
// to be instantiated as a pointer type (e.g. *Span) so that Append and
// Truncate can mutate the record in place, matching the "auto-merging,
// splittable run" semantics described by the engine's components.
type Record[T any] interface {
	// Len returns the number of logical units (characters, LVs, ...)
	// this record spans. Must be > 0 for any record stored in a List.
	Len() int

	// RleKey returns the key of the first unit in this record. key+Len()
	// is the exclusive end of the record's key range.
	RleKey() int

	// CanAppend reports whether `next` could be merged onto the end of
	// this record in place, i.e. whether the two represent logically
	// adjacent, mergeable data.
	CanAppend(next T) bool

	// Append merges `next` onto the end of this record. Only ever
	// called when CanAppend(next) is true.
	Append(next T)

	// Truncate splits this record at offset `at` (0 < at < Len()):
	// the receiver keeps [0, at) and the returned value is [at, Len()).
	Truncate(at int) T

	// Clone returns an independent copy of the record, so callers can
	// trim a view for iteration without mutating the stored entry.
	Clone() T
}

// List is an ordered run-length container over records of type T.
//
// Invariant: adjacent records have non-overlapping key ranges and
// satisfy !a.CanAppend(b) (otherwise they would have been merged when
// inserted).
type List[T Record[T]] struct {
	items []T
}

// New returns an empty List.
func New[T Record[T]]() *List[T] {
	return &List[T]{}
}

// Len returns the number of records (not units) in the list.
func (l *List[T]) Len() int { return len(l.items) }

// At returns the record at the given slice index.
func (l *List[T]) At(idx int) T { return l.items[idx] }

// Items exposes the backing slice for read-only iteration by callers
// that need raw index access (e.g. the causal graph's sibling indices).
func (l *List[T]) Items() []T { return l.items }

// Last returns the final record and true, or the zero value and false
// if the list is empty.
func (l *List[T]) Last() (T, bool) {
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	return l.items[len(l.items)-1], true
}

// End returns the exclusive key bound of the list: the RleKey + Len of
// the last record, or 0 if empty.
func (l *List[T]) End() int {
	if len(l.items) == 0 {
		return 0
	}
	last := l.items[len(l.items)-1]
	return last.RleKey() + last.Len()
}

// Push appends a new record to the end of the list, amortized O(1).
// If the current last record CanAppend(v), it is merged in place;
// otherwise v is appended as a new record. Push never reorders and
// never checks keys against anything but the tail, so callers must
// guarantee v's key follows the current End().
func (l *List[T]) Push(v T) {
	if n := len(l.items); n > 0 && l.items[n-1].CanAppend(v) {
		l.items[n-1].Append(v)
		return
	}
	l.items = append(l.items, v)
}

// searchIndex performs the binary search shared by Find and FindSparse: the
// index of the last record whose RleKey() <= key, or -1 if key is
// before the first record.
func (l *List[T]) searchIndex(key int) int {
	n := len(l.items)
	idx := sort.Search(n, func(i int) bool {
		return l.items[i].RleKey() > key
	})
	return idx - 1
}

// Find performs a binary search by key, O(log n). It returns the
// index of the record containing key and the offset of key within
// that record. If key does not fall inside any record, found is false.
func (l *List[T]) Find(key int) (idx int, offset int, found bool) {
	i := l.searchIndex(key)
	if i < 0 {
		return -1, 0, false
	}
	rec := l.items[i]
	off := key - rec.RleKey()
	if off >= rec.Len() {
		return -1, 0, false
	}
	return i, off, true
}

// FindSparse behaves like Find, but when key falls in a gap between
// records (or before the first / after the last), it returns the void
// range [prevEnd, nextStart) and the offset of key within that void
// instead of failing. nextIdx is the index of the first record at or
// after key (len(items) if none).
func (l *List[T]) FindSparse(key int) (idx int, offset int, found bool, voidStart, voidEnd int, nextIdx int) {
	if i, off, ok := l.Find(key); ok {
		return i, off, true, 0, 0, i
	}
	i := l.searchIndex(key)
	voidStart = 0
	if i >= 0 {
		rec := l.items[i]
		voidStart = rec.RleKey() + rec.Len()
	}
	voidEnd = -1 // unbounded
	next := i + 1
	if next < len(l.items) {
		voidEnd = l.items[next].RleKey()
	}
	return -1, key - voidStart, false, voidStart, voidEnd, next
}

// Insert places v into the list at its key position, O(n). v's key
// range must not overlap any existing record's key range: doing so is
// a programming error and panics, since the RLE container is only ever
// used where the caller has already guaranteed disjointness.
func (l *List[T]) Insert(v T) {
	key := v.RleKey()
	n := len(l.items)

	// Locate insertion point: first record whose key is >= v's key.
	pos := sort.Search(n, func(i int) bool {
		return l.items[i].RleKey() >= key
	})

	if pos < n {
		existing := l.items[pos]
		if key+v.Len() > existing.RleKey() {
			panic(fmt.Sprintf("rle: overlapping insert at key %d (existing record starts at %d)", key, existing.RleKey()))
		}
	}
	if pos > 0 {
		prev := l.items[pos-1]
		if prev.RleKey()+prev.Len() > key {
			panic(fmt.Sprintf("rle: overlapping insert at key %d (previous record ends at %d)", key, prev.RleKey()+prev.Len()))
		}
		if prev.CanAppend(v) {
			l.items[pos-1].Append(v)
			// The merged record may now also merge with what follows.
			l.tryMergeAt(pos - 1)
			return
		}
	}
	if pos < n && v.CanAppend(l.items[pos]) {
		v.Append(l.items[pos])
		l.items[pos] = v
		return
	}

	l.items = append(l.items, v) // grow capacity
	copy(l.items[pos+1:], l.items[pos:n])
	l.items[pos] = v
}

// tryMergeAt merges items[idx] with items[idx+1] if possible.
func (l *List[T]) tryMergeAt(idx int) {
	if idx < 0 || idx+1 >= len(l.items) {
		return
	}
	if l.items[idx].CanAppend(l.items[idx+1]) {
		l.items[idx].Append(l.items[idx+1])
		l.items = append(l.items[:idx+1], l.items[idx+2:]...)
	}
}

// Remove deletes the key range [start, end) from the list, O(n).
// Records (or portions of records) outside the range are preserved;
// records fully inside the range are dropped; records straddling a
// boundary are truncated.
func (l *List[T]) Remove(start, end int) {
	if start >= end || len(l.items) == 0 {
		return
	}

	// Fast path: range touches the tail.
	if last, ok := l.Last(); ok {
		lastEnd := last.RleKey() + last.Len()
		if end >= lastEnd {
			// Trim or pop from the back until start is reached.
			for len(l.items) > 0 {
				li := len(l.items) - 1
				rec := l.items[li]
				recStart := rec.RleKey()
				recEnd := recStart + rec.Len()
				if recEnd <= start {
					break
				}
				if recStart >= start {
					l.items = l.items[:li]
					continue
				}
				// recStart < start < recEnd: truncate in place,
				// discarding the (now-removed) remainder.
				rec.Truncate(start - recStart)
				break
			}
			return
		}
	}

	startIdx, startOff, startFound, _, _, startNext := l.FindSparse(start)
	lo := startNext
	if startFound {
		lo = startIdx
		if startOff > 0 {
			// Truncate the straddling head record in place; it
			// keeps [0, startOff). The cut-off tail goes back in as
			// its own record at startIdx+1, so the end lookup below
			// still finds (and keeps) any part past end.
			tail := l.items[startIdx].Truncate(startOff)
			l.items = append(l.items, tail)
			copy(l.items[startIdx+2:], l.items[startIdx+1:])
			l.items[startIdx+1] = tail
			lo = startIdx + 1
		}
	}

	endIdx, _, endFound, _, _, endNext := l.FindSparse(end)
	hi := endNext
	var tailRemainder *T
	if endFound {
		hi = endIdx + 1
		rec := l.items[endIdx]
		endOff := end - rec.RleKey()
		if endOff > 0 && endOff < rec.Len() {
			tail := rec.Truncate(endOff)
			tailRemainder = &tail
		}
	}

	// Rebuild: [0, lo) untouched-head-truncated-already, splice out
	// [lo, hi), optionally re-insert tailRemainder at lo.
	newItems := make([]T, 0, len(l.items)-(hi-lo)+1)
	newItems = append(newItems, l.items[:lo]...)
	if tailRemainder != nil {
		newItems = append(newItems, *tailRemainder)
	}
	newItems = append(newItems, l.items[hi:]...)
	l.items = newItems
}

// IterRange yields records trimmed to fall within [start, end), in
// order, via the callback fn. Returning false from fn stops iteration.
func (l *List[T]) IterRange(start, end int, fn func(rec T) bool) {
	if start >= end {
		return
	}
	idx := l.searchIndex(start)
	if idx < 0 {
		idx = 0
	}
	for ; idx < len(l.items); idx++ {
		rec := l.items[idx]
		recStart := rec.RleKey()
		recEnd := recStart + rec.Len()
		if recStart >= end {
			break
		}
		if recEnd <= start {
			continue
		}
		trimmed := rec.Clone()
		if recStart < start {
			trimmed = trimmed.Truncate(start - recStart)
		}
		if trimmed.RleKey()+trimmed.Len() > end {
			trimmed.Truncate(end - trimmed.RleKey())
		}
		if !fn(trimmed) {
			return
		}
	}
}
