// Package causalgraph implements the time-DAG index: a run-length
// list of transaction spans carrying parent pointers, the agent/seq
// <-> LV identifier mapping, and the frontier
// reachability queries (contains, diff, spanning-tree order) used to
// reconcile and diff concurrent histories.
package causalgraph

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/gocrdt/texttree/internal/btree"
	"github.com/gocrdt/texttree/internal/rle"
)

// LV is re-exported from btree so every package addresses the same
// dense logical-version space without a cyclic import.
type LV = btree.LV

// RootLV is the sentinel meaning "before any operation".
const RootLV = btree.RootLV

// LVRange is a half-open range of logical versions.
type LVRange = btree.LVRange

// AgentID identifies a peer by its interned name.
type AgentID string

// RootAgent is the reserved agent name for the ROOT external id.
const RootAgent AgentID = "ROOT"

// RawVersion is an external id: an (agent, per-agent-seq) pair.
type RawVersion struct {
	Agent AgentID
	Seq   int
}

// RootRaw is ROOT's reserved external id.
var RootRaw = RawVersion{Agent: RootAgent, Seq: math.MaxInt}

// Frontier is the minimal antichain of LVs dominating known history.
type Frontier []LV

// Clone returns a detached copy of the frontier.
func (f Frontier) Clone() Frontier { return append(Frontier(nil), f...) }

// TxnSpan is one entry of the causal graph: a contiguous LV range
// produced by a single append, its parent set, and its shadow.
type TxnSpan struct {
	Start   LV
	Length  int
	Parents []LV
	Shadow  LV
}

// End returns the exclusive LV bound of the span.
func (s *TxnSpan) End() LV { return s.Start + LV(s.Length) }

// Len implements rle.Record.
func (s *TxnSpan) Len() int { return s.Length }

// RleKey implements rle.Record.
func (s *TxnSpan) RleKey() int { return int(s.Start) }

// CanAppend implements rle.Record: a span only extends the previous
// one when it is a linear continuation (sole parent is the previous
// tip) sharing the same shadow.
func (s *TxnSpan) CanAppend(next *TxnSpan) bool {
	if s.End() != next.Start {
		return false
	}
	if len(next.Parents) != 1 || next.Parents[0] != s.End()-1 {
		return false
	}
	return s.Shadow == next.Shadow
}

// Append implements rle.Record.
func (s *TxnSpan) Append(next *TxnSpan) { s.Length += next.Length }

// Truncate implements rle.Record. The tail's shadow is conservatively
// reset to its own start: shadow is purely an optimization, and the
// cheaper, always-safe bound is preferable to threading the original
// chain's shadow through the cut.
func (s *TxnSpan) Truncate(at int) *TxnSpan {
	mid := s.Start + LV(at)
	tail := &TxnSpan{
		Start:   mid,
		Length:  s.Length - at,
		Parents: []LV{mid - 1},
		Shadow:  mid,
	}
	s.Length = at
	return tail
}

// Clone implements rle.Record.
func (s *TxnSpan) Clone() *TxnSpan {
	c := *s
	c.Parents = append([]LV(nil), s.Parents...)
	return &c
}

var _ rle.Record[*TxnSpan] = (*TxnSpan)(nil)

type seqEntry struct {
	seqStart, seqEnd int
	lvStart          LV
}

// Graph is the causal-graph index. The zero value is not usable; call
// New.
type Graph struct {
	spans     *rle.List[*TxnSpan]
	nextLV    LV
	frontier  Frontier
	agentSeqs map[AgentID][]seqEntry
}

// New returns an empty causal graph.
func New() *Graph {
	return &Graph{
		spans:     rle.New[*TxnSpan](),
		agentSeqs: make(map[AgentID][]seqEntry),
	}
}

// NextLV returns the next LV that would be assigned by Append.
func (g *Graph) NextLV() LV { return g.nextLV }

// Frontier returns a detached copy of the current frontier.
func (g *Graph) Frontier() Frontier { return g.frontier.Clone() }

// LVForRaw returns the LV assigned to an external id, if known. Used
// by the engine to implement idempotent apply: a remote
// transaction whose id is already mapped must be treated as a no-op.
func (g *Graph) LVForRaw(agent AgentID, seq int) (LV, bool) {
	if agent == RootAgent {
		return RootLV, true
	}
	entries := g.agentSeqs[agent]
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].seqEnd > seq })
	if idx < len(entries) && entries[idx].seqStart <= seq {
		return entries[idx].lvStart + LV(seq-entries[idx].seqStart), true
	}
	return 0, false
}

// RawForLV converts an LV back to its external id.
func (g *Graph) RawForLV(lv LV) (RawVersion, bool) {
	if lv == RootLV {
		return RootRaw, true
	}
	agent, seq, ok := g.agentOwning(lv)
	if !ok {
		return RawVersion{}, false
	}
	return RawVersion{Agent: agent, Seq: seq}, true
}

// agentOwning finds the agent run covering lv and returns its agent and
// the seq of lv. Spans merge regardless of agent, so one span can hold
// runs of several agents; the lookup is a linear scan of every agent's
// runs.
func (g *Graph) agentOwning(lv LV) (AgentID, int, bool) {
	for agent, entries := range g.agentSeqs {
		for _, e := range entries {
			if lv >= e.lvStart && lv < e.lvStart+LV(e.seqEnd-e.seqStart) {
				return agent, e.seqStart + int(lv-e.lvStart), true
			}
		}
	}
	return "", 0, false
}

// NextSeqForAgent returns the next gap-free sequence number for agent.
func (g *Graph) NextSeqForAgent(agent AgentID) int {
	entries := g.agentSeqs[agent]
	if len(entries) == 0 {
		return 0
	}
	return entries[len(entries)-1].seqEnd
}

// Append records a new transaction span of the given length, owned by
// (agent, seq), with the given parents (nil means "current frontier").
// It panics if seq collides with an already-recorded, different LV for
// this agent: a programmer error, never a recoverable one. Returns
// the LV assigned to the span's first character.
func (g *Graph) Append(agent AgentID, seq int, length int, parents []LV) LV {
	if length <= 0 {
		panic("causalgraph: append with non-positive length")
	}
	if existing, ok := g.LVForRaw(agent, seq); ok {
		panic(fmt.Sprintf("causalgraph: seq %s:%d already assigned to lv %d", agent, seq, existing))
	}
	if parents == nil {
		parents = g.frontier.Clone()
	} else {
		parents = sortDedup(append([]LV(nil), parents...))
	}

	start := g.nextLV
	shadow := g.computeShadow(start, parents)
	span := &TxnSpan{Start: start, Length: length, Parents: parents, Shadow: shadow}
	g.spans.Insert(span)
	g.nextLV = start + LV(length)

	g.agentSeqs[agent] = append(g.agentSeqs[agent], seqEntry{seqStart: seq, seqEnd: seq + length, lvStart: start})
	sort.Slice(g.agentSeqs[agent], func(i, j int) bool { return g.agentSeqs[agent][i].seqStart < g.agentSeqs[agent][j].seqStart })

	g.updateFrontier(parents, start, length)
	return start
}

// computeShadow computes a span's shadow: a linear extension of the tip
// inherits the preceding span's shadow (reaching arbitrarily far back
// through the chain); anything else starts a fresh shadow at its own
// start.
func (g *Graph) computeShadow(start LV, parents []LV) LV {
	if len(parents) == 1 && parents[0] == start-1 {
		if prev, ok := g.spanFor(start - 1); ok {
			return prev.Shadow
		}
	}
	return start
}

func (g *Graph) updateFrontier(parents []LV, start LV, length int) {
	next := make(Frontier, 0, len(g.frontier)+1)
	for _, f := range g.frontier {
		isParent := false
		for _, p := range parents {
			if p == f {
				isParent = true
				break
			}
		}
		if !isParent {
			next = append(next, f)
		}
	}
	next = append(next, start+LV(length)-1)
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	g.frontier = next
}

func (g *Graph) spanFor(lv LV) (*TxnSpan, bool) {
	if lv < 0 {
		return nil, false
	}
	idx, _, ok := g.spans.Find(int(lv))
	if !ok {
		return nil, false
	}
	return g.spans.At(idx), true
}

// SpanAt exposes spanFor for callers outside the package (the engine
// needs span.Parents / span.Start when walking history).
func (g *Graph) SpanAt(lv LV) (*TxnSpan, bool) { return g.spanFor(lv) }

// Spans returns every transaction span in ascending LV order.
func (g *Graph) Spans() []*TxnSpan { return g.spans.Items() }

func sortDedup(lvs []LV) []LV {
	if len(lvs) <= 1 {
		return lvs
	}
	sort.Slice(lvs, func(i, j int) bool { return lvs[i] < lvs[j] })
	j := 1
	for i := 1; i < len(lvs); i++ {
		if lvs[i] != lvs[i-1] {
			lvs[j] = lvs[i]
			j++
		}
	}
	return lvs[:j]
}

// lvHeap is a max-heap of LVs (container/heap is min-heap by default;
// Less is inverted to pop the largest LV first, as every descent in
// this package walks history backwards from high LV to low).
type lvHeap []LV

func (h lvHeap) Len() int            { return len(h) }
func (h lvHeap) Less(i, j int) bool  { return h[i] > h[j] }
func (h lvHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *lvHeap) Push(x interface{}) { *h = append(*h, x.(LV)) }
func (h *lvHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

var _ heap.Interface = (*lvHeap)(nil)
