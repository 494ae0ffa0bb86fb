package causalgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsDenseLVsAndFrontier(t *testing.T) {
	g := New()
	lv0 := g.Append("seph", 0, 5, nil)
	assert.Equal(t, LV(0), lv0)
	assert.Equal(t, Frontier{4}, g.Frontier())

	lv1 := g.Append("seph", 5, 3, nil)
	assert.Equal(t, LV(5), lv1)
	assert.Equal(t, Frontier{7}, g.Frontier(), "linear continuation replaces the old tip")
}

func TestAppendPanicsOnSeqCollision(t *testing.T) {
	g := New()
	g.Append("seph", 0, 5, nil)
	assert.Panics(t, func() {
		g.Append("seph", 0, 1, nil)
	})
}

func TestLVForRawAndRawForLV(t *testing.T) {
	g := New()
	g.Append("seph", 0, 5, nil)
	lv, ok := g.LVForRaw("seph", 2)
	require.True(t, ok)
	assert.Equal(t, LV(2), lv)

	raw, ok := g.RawForLV(2)
	require.True(t, ok)
	assert.Equal(t, AgentID("seph"), raw.Agent)
	assert.Equal(t, 2, raw.Seq)

	_, ok = g.LVForRaw("seph", 5)
	assert.False(t, ok, "seq just past the recorded range is unknown")
}

func TestConcurrentAppendsProduceTwoFrontierElements(t *testing.T) {
	g := New()
	g.Append("seph", 0, 3, nil) // parents = frontier() = [] -> [2]
	g.Append("mike", 0, 2, []LV{RootLV})
	assert.ElementsMatch(t, []LV{2, 4}, g.Frontier(), "two concurrent root-children form an antichain")
}

func TestContainsFollowsShadowFastPath(t *testing.T) {
	g := New()
	g.Append("seph", 0, 5, nil)
	g.Append("seph", 5, 5, nil)
	assert.True(t, g.Contains([]LV{9}, 0))
	assert.True(t, g.Contains([]LV{9}, 9))
	assert.False(t, g.Contains([]LV{3}, 9))
}

func TestDiffPartitionsOnlyInAAndOnlyInB(t *testing.T) {
	g := New()
	g.Append("seph", 0, 3, nil)      // lv 0..3, shared ancestor
	g.Append("seph", 3, 2, nil)      // lv 3..5, only in A's branch
	g.Append("mike", 0, 2, []LV{2})  // lv 5..7, only in B's branch

	onlyA, onlyB := g.Diff([]LV{4}, []LV{6})
	var aTotal, bTotal int
	for _, r := range onlyA {
		aTotal += r.Len()
	}
	for _, r := range onlyB {
		bTotal += r.Len()
	}
	assert.Equal(t, 2, aTotal)
	assert.Equal(t, 2, bTotal)
}

func TestSpanningTreeIterCoversEverySpan(t *testing.T) {
	g := New()
	g.Append("seph", 0, 3, nil)
	g.Append("mike", 0, 2, []LV{2})

	steps := g.SpanningTreeIter()
	require.Len(t, steps, 1)
	var total int
	for _, s := range steps {
		total += s.Span.Length
	}
	assert.Equal(t, 5, total)
}
