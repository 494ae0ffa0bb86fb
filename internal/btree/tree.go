package btree

import "fmt"

// DefaultLeafCap is L, the maximum number of entries held by a leaf
// before it splits.
const DefaultLeafCap = 32

// Cursor addresses a position inside the tree: a leaf, an entry within
// that leaf, and an offset within the entry. Any cursor is invalidated
// by any tree mutation other than the one that produced it.
type Cursor struct {
	LeafIdx  int
	EntryIdx int
	Offset   int
}

// AtDocStart reports whether the cursor addresses the very first
// character of the tree.
func (c Cursor) AtDocStart() bool {
	return c.LeafIdx == 0 && c.EntryIdx == 0 && c.Offset == 0
}

// LenUpdate accumulates an unflushed metric delta: the change in
// active (cur) and total (raw) character counts produced by edits to
// one leaf. See DeltaCursor.
type LenUpdate struct {
	DCur, DRaw int
}

// Add folds the metrics of span s into the update with sign `mult`
// (+1 when a span is added, -1 when removed), applied to both the cur
// and the raw component.
func (u *LenUpdate) Add(s *Span, mult int) {
	c, r := spanMetrics(s)
	u.DCur += mult * c
	u.DRaw += mult * r
}

// DeltaCursor pairs a Cursor with a LenUpdate that has not yet been
// pushed into the owning leaf's cached metrics. The
// struct's zero value does not auto-flush on drop (Go has no
// destructors); every code path that constructs one must call Flush or
// Emplace before the delta cursor goes out of scope. debugUnflushed
// exists purely so tests can assert that discipline in builds that
// care to check it.
type DeltaCursor struct {
	Cur            Cursor
	Delta          LenUpdate
	debugUnflushed bool
}

// NewDeltaCursor starts tracking deltas for edits at cur.
func NewDeltaCursor(cur Cursor) *DeltaCursor {
	return &DeltaCursor{Cur: cur, debugUnflushed: true}
}

// Flush pushes the accumulated delta into the leaf's cached metrics
// and resets it to zero. Safe to call with a zero delta (no-op).
func (dc *DeltaCursor) Flush(t *Tree) {
	leaf := t.leaves[dc.Cur.LeafIdx]
	leaf.cur += dc.Delta.DCur
	leaf.raw += dc.Delta.DRaw
	dc.Delta = LenUpdate{}
	dc.debugUnflushed = false
}

// Emplace flushes the current delta and repositions the delta cursor
// at a new cursor (e.g. after an insert, pointing past the inserted
// content). Used when a caller wants to keep accumulating at a new
// position without a separate Flush/New pair.
func (dc *DeltaCursor) Emplace(t *Tree, cur Cursor) {
	dc.Flush(t)
	dc.Cur = cur
	dc.debugUnflushed = true
}

// Tree is the content B-tree: a genuine multi-level tree, not just a
// leaf directory. Leaves and internal nodes each live in their own
// arena (t.leaves, t.internal) and are addressed by stable integer
// index via nodeRef, never by pointer, so the marker index and
// cursors remain valid across splits that merely append new nodes.
// t.root names whichever arena currently holds the top of the tree;
// a freshly created tree has height 1 (a single leaf is its own
// root), and root becomes an internal node the first time that leaf
// overflows.
type Tree struct {
	leaves   []*leafNode
	internal []*internalNode
	root     nodeRef
	marker   *markerIndex
	leafCap  int
	branch   int
}

// New returns an empty content tree with a single empty leaf as its
// root.
func New() *Tree {
	return &Tree{
		leaves:  []*leafNode{{nextLeaf: -1, parent: -1}},
		root:    nodeRef{kind: leafNodeKind, idx: 0},
		marker:  newMarkerIndex(),
		leafCap: DefaultLeafCap,
		branch:  DefaultBranchFactor,
	}
}

// CurLen returns the total number of active (live) characters, read
// off the root's cached aggregate in O(1).
func (t *Tree) CurLen() int {
	if t.root.kind == leafNodeKind {
		return t.leaves[t.root.idx].cur
	}
	return t.internal[t.root.idx].cur
}

// RawLen returns the total number of characters including tombstones,
// read off the root's cached aggregate in O(1).
func (t *Tree) RawLen() int {
	if t.root.kind == leafNodeKind {
		return t.leaves[t.root.idx].raw
	}
	return t.internal[t.root.idx].raw
}

// IsRootInternal reports whether the tree has grown past a single
// leaf, i.e. the root is now an internal node with its own children
// rather than a leaf.
func (t *Tree) IsRootInternal() bool { return t.root.kind == internalNodeKind }

// Height returns the number of node levels between the root and the
// leaves inclusive: 1 for a tree that is still a single leaf.
func (t *Tree) Height() int {
	h := 1
	ref := t.root
	for ref.kind == internalNodeKind {
		h++
		ref = t.internal[ref.idx].children[0].ref
	}
	return h
}

// CursorAtCurPos resolves a cursor for content position p (among live
// characters only). p == CurLen() is valid and yields the end cursor.
func (t *Tree) CursorAtCurPos(p int) Cursor {
	return t.cursorAtPos(p, false)
}

// CursorAtRawPos resolves a cursor for raw position p (including
// tombstones).
func (t *Tree) CursorAtRawPos(p int) Cursor {
	return t.cursorAtPos(p, true)
}

// cursorAtPos descends the tree from the root: at each internal node
// it picks the first child whose prefix sum of cur (or raw) width
// strictly exceeds the remaining offset (or the last child when the
// offset is exactly at the node's end), stepping down one
// level at a time until it lands on a leaf. This is O(log n) in the
// number of leaves rather than a scan of every leaf.
func (t *Tree) cursorAtPos(p int, raw bool) Cursor {
	leafIdx, remaining := t.descendToLeaf(t.root, p, raw)
	leaf := t.leaves[leafIdx]
	return Cursor{LeafIdx: leafIdx, EntryIdx: 0, Offset: 0}.walkWithinLeaf(leaf, remaining, raw)
}

func (t *Tree) descendToLeaf(ref nodeRef, p int, raw bool) (leafIdx int, remaining int) {
	if ref.kind == leafNodeKind {
		return ref.idx, p
	}
	node := t.internal[ref.idx]
	remaining = p
	for i, ch := range node.children {
		width := ch.cur
		if raw {
			width = ch.raw
		}
		last := i == len(node.children)-1
		if remaining > width || (remaining == width && !last) {
			remaining -= width
			continue
		}
		return t.descendToLeaf(ch.ref, remaining, raw)
	}
	// Every remaining amount was consumed exactly by the prefix sum;
	// land at the end of the last child (mirrors the single-child
	// fallthrough above for an empty children slice, which never
	// happens past the root).
	last := node.children[len(node.children)-1]
	return t.descendToLeaf(last.ref, remaining, raw)
}

// walkWithinLeaf advances the cursor through entries of `leaf` to land
// on offset `remaining` (by cur or raw width depending on `raw`).
func (c Cursor) walkWithinLeaf(leaf *leafNode, remaining int, raw bool) Cursor {
	for ei, e := range leaf.entries {
		width := e.Len
		if !raw && e.Deleted {
			width = 0
		}
		if remaining > width {
			remaining -= width
			continue
		}
		return Cursor{LeafIdx: c.LeafIdx, EntryIdx: ei, Offset: boundedOffset(remaining, e, raw)}
	}
	return Cursor{LeafIdx: c.LeafIdx, EntryIdx: len(leaf.entries), Offset: 0}
}

// boundedOffset converts a "remaining width" count into an offset
// within the entry. For tombstoned entries under cur-addressing the
// entry contributes 0 width, so any remaining amount at that entry
// means "skip past it entirely"; offset 0 there is fine since the
// walk loop above will have consumed it (remaining == 0).
func boundedOffset(remaining int, e *Span, raw bool) int {
	if !raw && e.Deleted {
		return 0
	}
	if remaining > e.Len {
		return e.Len
	}
	return remaining
}

// CursorAtLV resolves a cursor pointing at the character with the
// given LV, via the marker index (O(log n) binary search for the leaf) followed by a
// linear scan of that leaf's entries.
func (t *Tree) CursorAtLV(lv LV) (Cursor, bool) {
	leafIdx, ok := t.marker.leafFor(lv)
	if !ok {
		return Cursor{}, false
	}
	leaf := t.leaves[leafIdx]
	for ei, e := range leaf.entries {
		if lv >= e.LVStart && lv < e.lvEnd() {
			return Cursor{LeafIdx: leafIdx, EntryIdx: ei, Offset: int(lv - e.LVStart)}, true
		}
	}
	return Cursor{}, false
}

// EntryAt returns the span a cursor currently points into, or nil if
// the cursor addresses the end of a leaf.
func (t *Tree) EntryAt(c Cursor) *Span {
	leaf := t.leaves[c.LeafIdx]
	if c.EntryIdx >= len(leaf.entries) {
		return nil
	}
	return leaf.entries[c.EntryIdx]
}

// LVBefore returns the LV of the character immediately before the
// cursor (RootLV if the cursor is at the very start of the document).
func (t *Tree) LVBefore(c Cursor) LV {
	if c.Offset > 0 {
		e := t.leaves[c.LeafIdx].entries[c.EntryIdx]
		return e.LVStart + LV(c.Offset-1)
	}
	if c.EntryIdx > 0 {
		e := t.leaves[c.LeafIdx].entries[c.EntryIdx-1]
		return e.lvEnd() - 1
	}
	// At the start of a leaf: the character before is the last one of
	// the preceding leaf in document order, if any.
	for _, l := range t.leaves {
		if l.nextLeaf == c.LeafIdx && len(l.entries) > 0 {
			return l.entries[len(l.entries)-1].lvEnd() - 1
		}
	}
	return RootLV
}

// LVAt returns the LV of the character the cursor currently points at
// (RootLV if the cursor is at the end of the document).
func (t *Tree) LVAt(c Cursor) LV {
	e := t.EntryAt(c)
	if e != nil && c.Offset >= e.Len {
		// A cursor at the end of an entry points at the next character.
		c = t.NextCharCursor(Cursor{LeafIdx: c.LeafIdx, EntryIdx: c.EntryIdx, Offset: e.Len - 1})
		e = t.EntryAt(c)
	}
	if e == nil {
		return RootLV
	}
	return e.LVStart + LV(c.Offset)
}

// spliceIn inserts spans at index `at` within leaf `leafIdx`, shifting
// later entries right.
func (t *Tree) spliceIn(leafIdx, at int, spans ...*Span) {
	leaf := t.leaves[leafIdx]
	entries := make([]*Span, 0, len(leaf.entries)+len(spans))
	entries = append(entries, leaf.entries[:at]...)
	entries = append(entries, spans...)
	entries = append(entries, leaf.entries[at:]...)
	leaf.entries = entries
}

// InsertAtCursor inserts span s at the given cursor, splitting entries
// and the leaf
// itself as necessary, and updating the marker index for s and any
// entries that move leaves. Returns a cursor positioned just past the
// newly inserted content.
func (t *Tree) InsertAtCursor(c Cursor, s *Span) Cursor {
	leafIdx := c.LeafIdx
	leaf := t.leaves[leafIdx]
	entryIdx := c.EntryIdx
	offset := c.Offset

	// Normalize to a clean boundary: after this, `boundary` indexes
	// the gap such that entries[boundary-1] is "prev" (possibly
	// absent) and entries[boundary] is "next" (possibly absent).
	var boundary int
	switch {
	case entryIdx >= len(leaf.entries):
		boundary = len(leaf.entries)
	case offset == 0:
		boundary = entryIdx
	case offset == leaf.entries[entryIdx].Len:
		boundary = entryIdx + 1
	default:
		// Split entry[entryIdx] at offset; the tail is spliced in
		// immediately so the rest of the algorithm only ever deals
		// with clean boundaries.
		tail := leaf.entries[entryIdx].Truncate(offset)
		t.spliceIn(leafIdx, entryIdx+1, tail)
		boundary = entryIdx + 1
	}

	var insertedIdx, insertedOffset int
	insertedLen := s.Len
	switch {
	case boundary > 0 && leaf.entries[boundary-1].CanAppend(s):
		prev := leaf.entries[boundary-1]
		insertedOffset = prev.Len
		prev.Append(s)
		insertedIdx = boundary - 1
	case boundary < len(leaf.entries) && s.CanAppend(leaf.entries[boundary]):
		next := leaf.entries[boundary]
		s.Append(next)
		leaf.entries[boundary] = s
		insertedIdx = boundary
		insertedOffset = 0
	default:
		t.spliceIn(leafIdx, boundary, s)
		insertedIdx = boundary
		insertedOffset = 0
	}
	oldCur, oldRaw := leaf.cur, leaf.raw
	leaf.recomputeMetrics()
	t.propagateUp(leaf.parent, nodeRef{leafNodeKind, leafIdx}, leaf.cur-oldCur, leaf.raw-oldRaw)
	t.marker.set(s.LVStart, s.Len, leafIdx)

	resultLeaf, resultEntry := t.ensureCapacity(leafIdx, insertedIdx)
	var resultOffset int
	if resultLeaf == leafIdx {
		resultOffset = insertedOffset + insertedLen
	} else {
		// landed in the migrated (second) half; the inserted content
		// itself never straddles a split since it's a single span.
		resultOffset = insertedOffset + insertedLen
	}
	return Cursor{LeafIdx: resultLeaf, EntryIdx: resultEntry, Offset: resultOffset}
}

// NextLeaf returns the index of the leaf following `idx` in document
// order, or -1 if idx is the last leaf.
func (t *Tree) NextLeaf(idx int) int { return t.leaves[idx].nextLeaf }

// LeafCount returns the number of leaves (for diagnostics / tests that
// assert the tree has grown internal structure).
func (t *Tree) LeafCount() int { return len(t.leaves) }

// IsLeafRootOnly reports whether the tree still fits in a single leaf,
// i.e. has not yet needed to grow an internal node layer. Equivalent
// to !IsRootInternal().
func (t *Tree) IsLeafRootOnly() bool { return t.root.kind == leafNodeKind }

func (t *Tree) String() string {
	return fmt.Sprintf("Tree{leaves=%d, height=%d, cur=%d, raw=%d}", len(t.leaves), t.Height(), t.CurLen(), t.RawLen())
}
