package btree

import "github.com/gocrdt/texttree/internal/rle"

// markerEntry is an entry of the marker index: a contiguous LV
// range mapped to the index of the leaf currently holding it. Entries
// are replaced in place whenever a range of characters is inserted or
// moves to a different leaf on a leaf split; the tree calls set
// directly.
type markerEntry struct {
	lvStart LV
	length  int
	leafIdx int
}

func (m *markerEntry) Len() int      { return m.length }
func (m *markerEntry) RleKey() int   { return int(m.lvStart) }
func (m *markerEntry) CanAppend(next *markerEntry) bool {
	return m.leafIdx == next.leafIdx && m.lvStart+LV(m.length) == next.lvStart
}
func (m *markerEntry) Append(next *markerEntry) { m.length += next.length }
func (m *markerEntry) Truncate(at int) *markerEntry {
	tail := &markerEntry{lvStart: m.lvStart + LV(at), length: m.length - at, leafIdx: m.leafIdx}
	m.length = at
	return tail
}
func (m *markerEntry) Clone() *markerEntry {
	c := *m
	return &c
}

var _ rle.Record[*markerEntry] = (*markerEntry)(nil)

// markerIndex maps LV -> leaf index via a run-length list.
type markerIndex struct {
	list *rle.List[*markerEntry]
}

func newMarkerIndex() *markerIndex {
	return &markerIndex{list: rle.New[*markerEntry]()}
}

// set records that [lvStart, lvStart+length) now lives in leaf leafIdx.
// Any previous mapping for that range is first removed so set can be
// used both for fresh ranges and for re-pointing moved ranges.
func (mi *markerIndex) set(lvStart LV, length int, leafIdx int) {
	if length <= 0 {
		return
	}
	mi.list.Remove(int(lvStart), int(lvStart)+length)
	mi.list.Insert(&markerEntry{lvStart: lvStart, length: length, leafIdx: leafIdx})
}

// leafFor returns the leaf index currently holding lv.
func (mi *markerIndex) leafFor(lv LV) (int, bool) {
	idx, _, found := mi.list.Find(int(lv))
	if !found {
		return 0, false
	}
	return mi.list.At(idx).leafIdx, true
}
