package texttree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalInsertAndDelete(t *testing.T) {
	e := New()
	require.NoError(t, e.LocalInsert("seph", 0, "hello"))
	assert.Equal(t, "hello", e.Text())
	require.NoError(t, e.LocalDelete("seph", 1, 3))
	assert.Equal(t, "ho", e.Text())
	e.DebugCheck(context.Background())
}

func TestLocalInsertOutOfRange(t *testing.T) {
	e := New()
	err := e.LocalInsert("seph", 5, "x")
	assert.Error(t, err)
}

// Concurrent inserts after ROOT from two agents, replicated both ways,
// must converge via the agent-name tiebreak.
func TestConcurrentInsertsConverge(t *testing.T) {
	a := New()
	require.NoError(t, a.LocalInsert("seph", 0, "yooo from seph"))

	b := New()
	require.NoError(t, b.LocalInsert("mike", 0, "hi from mike"))

	txnsFromA := a.TxnsInRange(LVRange{Start: 0, End: LV(a.graph.NextLV())})
	txnsFromB := b.TxnsInRange(LVRange{Start: 0, End: LV(b.graph.NextLV())})

	for _, txn := range txnsFromB {
		require.NoError(t, a.ApplyRemoteTxn(txn))
	}
	for _, txn := range txnsFromA {
		require.NoError(t, b.ApplyRemoteTxn(txn))
	}

	require.Equal(t, 26, a.LenChars())
	assert.Equal(t, a.Text(), b.Text(), "both replicas must converge to the same interleaving")
	a.DebugCheck(context.Background())
	b.DebugCheck(context.Background())
}

// Overlapping concurrent deletes record excess=1 on the doubly-deleted
// characters, and both replicas converge on "hie".
func TestOverlappingDeletesConverge(t *testing.T) {
	base := New()
	require.NoError(t, base.LocalInsert("seph", 0, "hi there"))
	baseTxns := base.TxnsInRange(LVRange{Start: 0, End: LV(base.graph.NextLV())})

	a := New()
	b := New()
	for _, txn := range baseTxns {
		require.NoError(t, a.ApplyRemoteTxn(txn))
		require.NoError(t, b.ApplyRemoteTxn(txn))
	}

	require.NoError(t, a.LocalDelete("seph", 2, 3)) // removes [2,5): " th"
	require.NoError(t, b.LocalDelete("mike", 4, 3)) // removes [4,7): "her", overlapping at index 4

	aDelTxns := a.TxnsInRange(LVRange{Start: LV(base.graph.NextLV()), End: LV(a.graph.NextLV())})
	bDelTxns := b.TxnsInRange(LVRange{Start: LV(base.graph.NextLV()), End: LV(b.graph.NextLV())})

	for _, txn := range bDelTxns {
		require.NoError(t, a.ApplyRemoteTxn(txn))
	}
	for _, txn := range aDelTxns {
		require.NoError(t, b.ApplyRemoteTxn(txn))
	}

	assert.Equal(t, "hie", a.Text())
	assert.Equal(t, "hie", b.Text())
	a.DebugCheck(context.Background())
	b.DebugCheck(context.Background())
}

// Inserting at position 15 twice produces the expected live interleave
// of the two inserted ranges.
func TestInsertAtSamePositionTwice(t *testing.T) {
	e := New()
	pad := make([]rune, 15)
	for i := range pad {
		pad[i] = 'a'
	}
	require.NoError(t, e.LocalInsert("seph", 0, string(pad)))

	second := make([]rune, 100)
	for i := range second {
		second[i] = 'x'
	}
	require.NoError(t, e.LocalInsert("seph", 15, string(second)))

	third := make([]rune, 20)
	for i := range third {
		third[i] = 'y'
	}
	require.NoError(t, e.LocalInsert("seph", 15, string(third)))

	assert.Equal(t, 135, e.LenChars())
	text := e.Text()
	assert.Equal(t, "y", string(text[15]))
	assert.Equal(t, "x", string(text[35]))
	e.DebugCheck(context.Background())
}

// Enough distinct inserts force leaf splits to propagate into a real
// internal root, and deleting everything afterward returns the tree
// to empty.
func TestDeleteAllThenRebuild(t *testing.T) {
	e := New()
	const n = 40
	for i := 0; i < n; i++ {
		// Each insert lands at position 0: distinct origin_right per
		// span (the previous head), so spans never auto-merge and the
		// tree is forced to grow past a single leaf.
		require.NoError(t, e.LocalInsert("seph", 0, "0123456789"))
	}
	require.True(t, e.tree.IsRootInternal(), "enough inserts should grow the B-tree root into an internal node")

	require.NoError(t, e.LocalDelete("seph", 0, e.LenChars()))
	assert.Equal(t, 0, e.LenChars())
	assert.Equal(t, "", e.Text())
	e.DebugCheck(context.Background())
}

// PartiallyUnapply followed by PartiallyReapply round-trips the
// B-tree/marker-index state.
func TestUnapplyReapplyRoundTrip(t *testing.T) {
	e := New()
	require.NoError(t, e.LocalInsert("seph", 0, "aaaa"))
	require.NoError(t, e.LocalDelete("seph", 1, 2)) // removes chars 1..3

	assert.Equal(t, "aa", e.Text())

	full := LVRange{Start: 0, End: LV(e.graph.NextLV())}
	e.PartiallyUnapply(full)
	assert.Equal(t, "", e.Text(), "unapplying the full range must undo the delete and the inserts")

	e.PartiallyReapply(full)
	assert.Equal(t, "aa", e.Text(), "reapplying must restore the post-delete state")
}

func TestApplyRemoteTxnIsIdempotent(t *testing.T) {
	a := New()
	require.NoError(t, a.LocalInsert("seph", 0, "hello"))
	txns := a.TxnsInRange(LVRange{Start: 0, End: LV(a.graph.NextLV())})

	b := New()
	for _, txn := range txns {
		require.NoError(t, b.ApplyRemoteTxn(txn))
	}
	lenBefore := b.LenChars()
	for _, txn := range txns {
		require.NoError(t, b.ApplyRemoteTxn(txn))
	}
	assert.Equal(t, lenBefore, b.LenChars(), "re-applying already-known transactions must be a no-op")
	assert.Equal(t, "hello", b.Text())
}

func TestRemoteDeletePastEndIsIgnored(t *testing.T) {
	a := New()
	require.NoError(t, a.LocalInsert("seph", 0, "hi"))
	atEnd, err := a.AtCurPos(1)
	require.NoError(t, err)

	txn := RemoteTxn{
		ID:      ExternalID{Agent: "mike", Seq: 0},
		Length:  5,
		Parents: a.Frontier(),
		Ops:     []RemoteOp{{IsDelete: true, Target: atEnd, Length: 5}},
	}
	require.NoError(t, a.ApplyRemoteTxn(txn))
	assert.Equal(t, "h", a.Text(), "the part of a delete past the end of the document is silently dropped")
}
