// Package btree implements the content-addressable B-tree: a tree
// over character spans, doubly indexed by
// "cur" position (live characters only) and "raw" position (including
// tombstones), with leaf back-pointers and a marker index mapping
// logical versions to the leaf that currently holds them.
//
// The tree is built on contiguous slices of leaves addressed by integer
// index rather than the self-referential pointer graph the original
// implementation uses: no lifetimes to juggle, stable addresses, better cache locality.
package btree

// LV is a dense logical version: a monotonically assigned id, one per
// inserted or deleted character. RootLV is the reserved sentinel
// meaning "before any operation". We use -1 rather than a tagged union
// (see DESIGN.md) and are consistent about it at every comparison site.
type LV int

// RootLV denotes "before any operation" / "the start of the document".
const RootLV LV = -1

// Span is a character span: a leaf entry in the content tree. Each
// span carries the LV of its first character, a length, an activation
// flag (tombstoned spans are retained, never removed, to preserve
// origin addressing for future concurrent inserts), and the two origin
// pointers used for YJS-style interleaving.
//
// Only the span's first character has an explicit OriginLeft; for any
// offset k in [0, Len), the implicit origin_left of that character is
// LVStart+k-1. OriginRight applies to the whole span.
type Span struct {
	LVStart     LV
	Len         int
	OriginLeft  LV
	OriginRight LV
	Deleted     bool
}

// originLeftAt returns the (implicit) origin_left of the character at
// the given offset within the span.
func (s *Span) originLeftAt(offset int) LV {
	if offset == 0 {
		return s.OriginLeft
	}
	return s.LVStart + LV(offset-1)
}

// RleKey returns the LV of the span's first character. Span follows
// the rle.Record method shapes but is not an rle.Record: its length is
// the Len field, not a Len method.
func (s *Span) RleKey() int { return int(s.LVStart) }

// CanAppend reports whether next can be appended: two spans merge when they are
// LV-contiguous, share activation state, share OriginRight, and the
// second span's (implicit) origin_left chains onto the first's last
// character -- i.e. they were never split by an intervening insert.
func (s *Span) CanAppend(next *Span) bool {
	if s.Deleted != next.Deleted {
		return false
	}
	if s.OriginRight != next.OriginRight {
		return false
	}
	if s.LVStart+LV(s.Len) != next.LVStart {
		return false
	}
	return next.OriginLeft == s.LVStart+LV(s.Len-1)
}

// Append extends the span by next's length.
func (s *Span) Append(next *Span) { s.Len += next.Len }

// Truncate splits at offset `at`, keeping
// [0,at) on the receiver and returning [at,Len) as a new span. The
// returned tail's OriginLeft becomes the LV of the character
// immediately before it (the last character of the retained head);
// OriginRight is shared by both halves.
func (s *Span) Truncate(at int) *Span {
	tail := &Span{
		LVStart:     s.LVStart + LV(at),
		Len:         s.Len - at,
		OriginLeft:  s.LVStart + LV(at-1),
		OriginRight: s.OriginRight,
		Deleted:     s.Deleted,
	}
	s.Len = at
	return tail
}

// Clone returns a detached copy of the span.
func (s *Span) Clone() *Span {
	c := *s
	return &c
}

// lvEnd returns the exclusive LV bound of the span.
func (s *Span) lvEnd() LV { return s.LVStart + LV(s.Len) }
