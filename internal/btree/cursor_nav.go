package btree

// RawPosition computes the raw (tombstone-inclusive) document offset of
// cursor c, by summing the raw width of every leaf before c.LeafIdx in
// document order plus the width of entries before c.EntryIdx plus
// c.Offset. O(leaf count); used only by the remote-insert placement
// scan, which is not a hot path.
func (t *Tree) RawPosition(c Cursor) int {
	pos := 0
	for li := 0; li != c.LeafIdx; li = t.leaves[li].nextLeaf {
		pos += t.leaves[li].raw
	}
	leaf := t.leaves[c.LeafIdx]
	for i := 0; i < c.EntryIdx && i < len(leaf.entries); i++ {
		pos += leaf.entries[i].Len
	}
	pos += c.Offset
	return pos
}

// CursorAfterLV returns the cursor immediately following the character
// with logical version lv, or the document-start cursor if lv is
// RootLV.
func (t *Tree) CursorAfterLV(lv LV) Cursor {
	if lv == RootLV {
		return Cursor{LeafIdx: 0, EntryIdx: 0, Offset: 0}
	}
	c, ok := t.CursorAtLV(lv)
	if !ok {
		panic("btree: CursorAfterLV given an LV not present in the tree")
	}
	return t.NextCharCursor(c)
}

// NextCharCursor advances a cursor by exactly one raw character,
// crossing entry and leaf boundaries as needed. A cursor already at
// the end of the document is returned unchanged.
func (t *Tree) NextCharCursor(c Cursor) Cursor {
	leaf := t.leaves[c.LeafIdx]
	if c.EntryIdx >= len(leaf.entries) {
		return c
	}
	if c.Offset+1 < leaf.entries[c.EntryIdx].Len {
		return Cursor{LeafIdx: c.LeafIdx, EntryIdx: c.EntryIdx, Offset: c.Offset + 1}
	}
	if c.EntryIdx+1 < len(leaf.entries) {
		return Cursor{LeafIdx: c.LeafIdx, EntryIdx: c.EntryIdx + 1, Offset: 0}
	}
	if leaf.nextLeaf != -1 {
		return Cursor{LeafIdx: leaf.nextLeaf, EntryIdx: 0, Offset: 0}
	}
	return Cursor{LeafIdx: c.LeafIdx, EntryIdx: len(leaf.entries), Offset: 0}
}

// CharLVAt returns the LV of the raw character a cursor addresses, or
// ok=false if the cursor is at the end of the document.
func (t *Tree) CharLVAt(c Cursor) (LV, bool) {
	leaf := t.leaves[c.LeafIdx]
	if c.EntryIdx >= len(leaf.entries) {
		return 0, false
	}
	e := leaf.entries[c.EntryIdx]
	return e.LVStart + LV(c.Offset), true
}

// CharOriginLeftAt returns the (possibly implicit) origin_left of the
// character a cursor addresses.
func (t *Tree) CharOriginLeftAt(c Cursor) LV {
	e := t.leaves[c.LeafIdx].entries[c.EntryIdx]
	return e.originLeftAt(c.Offset)
}

// CharOriginRightAt returns the origin_right of the character a cursor
// addresses (shared by the whole containing span).
func (t *Tree) CharOriginRightAt(c Cursor) LV {
	return t.leaves[c.LeafIdx].entries[c.EntryIdx].OriginRight
}

// OriginsAt returns the (origin_left, origin_right) of the character
// at lv, looked up via the marker index. ok is false if lv is not
// present in the tree.
func (t *Tree) OriginsAt(lv LV) (originLeft, originRight LV, ok bool) {
	c, found := t.CursorAtLV(lv)
	if !found {
		return 0, 0, false
	}
	e := t.EntryAt(c)
	return e.originLeftAt(c.Offset), e.OriginRight, true
}
