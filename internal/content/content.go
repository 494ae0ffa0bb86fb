// Package content stores the actual character data the engine has seen,
// indexed by the LV of each character's insert. The content B-tree
// (internal/btree) tracks only structure (spans, activation, origins),
// never the rune itself, so something has to hold the bytes behind
// every insert LV. This is that something: a flat, append-friendly
// run-length store, distinct from an optional cached-rope performance
// mirror that stays out of scope for the core; this package exists so
// the engine can answer "what text is at this LV range" at all, not to
// make that answer fast.
package content

import (
	"github.com/gocrdt/texttree/internal/btree"
	"github.com/gocrdt/texttree/internal/rle"
)

// LV re-exports btree's logical-version type.
type LV = btree.LV

type chunk struct {
	lvStart LV
	runes   []rune
}

func (c *chunk) Len() int    { return len(c.runes) }
func (c *chunk) RleKey() int { return int(c.lvStart) }
func (c *chunk) CanAppend(next *chunk) bool {
	return c.lvStart+LV(len(c.runes)) == next.lvStart
}
func (c *chunk) Append(next *chunk) { c.runes = append(c.runes, next.runes...) }
func (c *chunk) Truncate(at int) *chunk {
	tail := &chunk{lvStart: c.lvStart + LV(at), runes: append([]rune(nil), c.runes[at:]...)}
	c.runes = append([]rune(nil), c.runes[:at]...)
	return tail
}
func (c *chunk) Clone() *chunk {
	return &chunk{lvStart: c.lvStart, runes: append([]rune(nil), c.runes...)}
}

var _ rle.Record[*chunk] = (*chunk)(nil)

// Store is the engine's content buffer: LV -> rune, for every LV that was
// ever assigned to an insert (delete LVs are never registered here).
type Store struct {
	list *rle.List[*chunk]
}

// New returns an empty content store.
func New() *Store {
	return &Store{list: rle.New[*chunk]()}
}

// Record registers the characters of a freshly inserted span: runes[i]
// is the character at LV lvStart+i.
func (s *Store) Record(lvStart LV, runes []rune) {
	if len(runes) == 0 {
		return
	}
	s.list.Insert(&chunk{lvStart: lvStart, runes: append([]rune(nil), runes...)})
}

// RunLength returns how many consecutive LVs starting at lv (bounded
// by maxLen) were recorded as insert content, or 0 if lv itself was
// never recorded (e.g. it belongs to a delete op instead).
func (s *Store) RunLength(lv LV, maxLen int) int {
	idx, off, found := s.list.Find(int(lv))
	if !found {
		return 0
	}
	avail := s.list.At(idx).Len() - off
	if avail > maxLen {
		return maxLen
	}
	return avail
}

// Slice returns the `length` characters starting at lv. Panics if any
// part of the range was never recorded, a caller bug, since every LV
// addressed by a live or tombstoned span must have been recorded at
// insert time.
func (s *Store) Slice(lv LV, length int) []rune {
	out := make([]rune, 0, length)
	s.list.IterRange(int(lv), int(lv)+length, func(c *chunk) bool {
		out = append(out, c.runes...)
		return true
	})
	if len(out) != length {
		panic("content: requested range not fully recorded")
	}
	return out
}
