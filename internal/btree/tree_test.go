package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertRunes(t *testing.T, tree *Tree, pos int, text string, originLeft, originRight LV) (LV, Cursor) {
	t.Helper()
	cursor := tree.CursorAtCurPos(pos)
	if originLeft == 0 && originRight == 0 {
		originLeft = tree.LVBefore(cursor)
		originRight = tree.LVAt(cursor)
	}
	lvStart := LV(tree.RawLen())
	span := &Span{LVStart: lvStart, Len: len(text), OriginLeft: originLeft, OriginRight: originRight}
	result := tree.InsertAtCursor(cursor, span)
	_ = result
	return lvStart, cursor
}

func TestInsertAndCurLen(t *testing.T) {
	tree := New()
	lvStart, _ := insertRunes(t, tree, 0, "hello", 0, 0)
	assert.Equal(t, RootLV, tree.EntryAt(Cursor{LeafIdx: 0, EntryIdx: 0}).OriginLeft)
	assert.Equal(t, 5, tree.CurLen())
	assert.Equal(t, LV(0), lvStart)
}

func TestLocalDeactivateAndReactivate(t *testing.T) {
	tree := New()
	insertRunes(t, tree, 0, "hello", 0, 0)

	c := tree.CursorAtCurPos(1)
	ranges := tree.LocalDeactivate(c, 3) // deactivate "ell"
	require.Len(t, ranges, 1)
	assert.Equal(t, 2, tree.CurLen())
	assert.Equal(t, 5, tree.RawLen())

	c2, ok := tree.CursorAtLV(ranges[0].Start)
	require.True(t, ok)
	consumed, lvRange := tree.RemoteReactivate(c2, ranges[0].Len())
	assert.Equal(t, ranges[0].Len(), consumed)
	assert.Equal(t, ranges[0], lvRange)
	assert.Equal(t, 5, tree.CurLen())
}

func TestRemoteDeactivateSkipsAlreadyDeleted(t *testing.T) {
	tree := New()
	insertRunes(t, tree, 0, "hello", 0, 0)
	c := tree.CursorAtCurPos(0)
	tree.LocalDeactivate(c, 2) // "he" gone

	c2, ok := tree.CursorAtLV(0)
	require.True(t, ok)
	consumed, _, skipped := tree.RemoteDeactivate(c2, 2)
	assert.True(t, skipped)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, 3, tree.CurLen(), "already-tombstoned region is unaffected")
}

func TestIterAllVisitsEveryLiveAndDeadSpan(t *testing.T) {
	tree := New()
	insertRunes(t, tree, 0, "hello", 0, 0)
	c := tree.CursorAtCurPos(1)
	tree.LocalDeactivate(c, 2)

	var total int
	tree.IterAll(func(s *Span) bool {
		total += s.Len
		return true
	})
	assert.Equal(t, tree.RawLen(), total)
}

func TestCursorNavOriginsAt(t *testing.T) {
	tree := New()
	insertRunes(t, tree, 0, "ab", 0, 0)
	originLeft, originRight, ok := tree.OriginsAt(1)
	require.True(t, ok)
	assert.Equal(t, LV(0), originLeft)
	assert.Equal(t, RootLV, originRight)
}

func TestLeafSplitsBeyondCapacity(t *testing.T) {
	tree := New()
	tree.leafCap = 4
	for i := 0; i < 20; i++ {
		// Prepend each time so spans never auto-merge into one entry.
		insertRunes(t, tree, 0, "x", 0, 0)
	}
	assert.True(t, tree.IsRootInternal(), "repeated splits should grow the B-tree root into an internal node")
	assert.Equal(t, 20, tree.CurLen())
	assert.NoError(t, tree.CheckMetrics())
}

func TestInternalNodeSplitsAndIncreasesHeight(t *testing.T) {
	tree := New()
	tree.leafCap = 4
	tree.branch = 4
	const n = 200
	for i := 0; i < n; i++ {
		insertRunes(t, tree, 0, "x", 0, 0)
	}
	assert.True(t, tree.IsRootInternal())
	assert.Greater(t, tree.Height(), 2, "enough splits should push an internal node to split in turn")
	assert.Equal(t, n, tree.CurLen())
	assert.Equal(t, n, tree.RawLen())
	assert.NoError(t, tree.CheckMetrics())
}
