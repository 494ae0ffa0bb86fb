package causalgraph

import "container/heap"

// Contains reports whether target is a transitive ancestor of (or
// equal to) any element of branch: every path from a tip in
// branch eventually reaches target or ROOT.
func (g *Graph) Contains(branch []LV, target LV) bool {
	if target == RootLV {
		return true
	}
	for _, b := range branch {
		if b == target {
			return true
		}
		if b <= target {
			continue
		}
		if span, ok := g.spanFor(b); ok && span.Shadow <= target && target < span.End() {
			return true
		}
	}
	return g.containsSlow(branch, target)
}

// containsSlow is the priority-queue descent fallback: push branch
// tips into a max-heap, repeatedly pop, check the popped span's
// shadow, else push its parents that are still above target.
func (g *Graph) containsSlow(branch []LV, target LV) bool {
	h := &lvHeap{}
	heap.Init(h)
	seen := make(map[LV]bool)
	push := func(lv LV) {
		if lv > target && !seen[lv] {
			seen[lv] = true
			heap.Push(h, lv)
		}
	}
	for _, b := range branch {
		if b == target {
			return true
		}
		push(b)
	}
	for h.Len() > 0 {
		v := heap.Pop(h).(LV)
		span, ok := g.spanFor(v)
		if !ok {
			continue
		}
		if span.Shadow <= target && target < span.End() {
			return true
		}
		for _, p := range span.Parents {
			if p == target {
				return true
			}
			push(p)
		}
	}
	return false
}

// flag marks which side(s) of a diff a pending LV was reached from.
type flag uint8

const (
	flagA flag = 1 << iota
	flagB
)

// Diff returns the LV ranges reachable only from a and only from b,
// each in descending LV order. It walks a single max-heap of unique
// pending LVs (a map coalesces duplicate pushes at the same LV) rather
// than also applying the shadow-based short-circuit, which is a pure
// performance optimization that correctness must never depend on.
func (g *Graph) Diff(a, b []LV) (onlyInA, onlyInB []LVRange) {
	pending := make(map[LV]flag)
	h := &lvHeap{}

	push := func(lv LV, f flag) {
		if lv == RootLV {
			return
		}
		pending[lv] |= f
		if pending[lv] == f {
			heap.Push(h, lv)
		}
	}
	for _, v := range a {
		push(v, flagA)
	}
	for _, v := range b {
		push(v, flagB)
	}

	shared := 0
	for _, f := range pending {
		if f == flagA|flagB {
			shared++
		}
	}
	for h.Len() > 0 {
		v := heap.Pop(h).(LV)
		f, ok := pending[v]
		if !ok {
			continue
		}
		delete(pending, v)
		if f == flagA|flagB {
			shared--
		}

		span, ok := g.spanFor(v)
		if ok {
			rng := LVRange{Start: span.Start, End: v + 1}
			parents := span.Parents
			if h.Len() > 0 && (*h)[0] >= span.Start {
				// The next pending LV lies inside this span: stop just
				// above it and hand f down to it instead of the parents.
				top := (*h)[0]
				rng.Start, parents = top+1, nil
				before := pending[top]
				pending[top] |= f
				if before != flagA|flagB && pending[top] == flagA|flagB {
					shared++
				}
			}
			switch f {
			case flagA:
				onlyInA = append(onlyInA, rng)
			case flagB:
				onlyInB = append(onlyInB, rng)
			}
			for _, p := range parents {
				if p == RootLV {
					continue
				}
				before := pending[p]
				pending[p] |= f
				if before == 0 {
					heap.Push(h, p)
				} else if before != flagA|flagB && pending[p] == flagA|flagB {
					shared++
				}
			}
		}

		if shared == h.Len() && allShared(pending, h) {
			break
		}
	}
	return onlyInA, onlyInB
}

func allShared(pending map[LV]flag, h *lvHeap) bool {
	for _, lv := range *h {
		if pending[lv] != flagA|flagB {
			return false
		}
	}
	return true
}

// SpanStep is one step of SpanningTreeIter's emitted order: the LV
// ranges to retreat from the walking frontier, the ranges to advance
// into it, and the span itself.
type SpanStep struct {
	Retreat []LVRange
	Advance []LVRange
	Span    *TxnSpan
}

// SpanningTreeIter yields every span in an order where each span's
// parents are emitted first. Ascending-LV order already satisfies that
// property, since every parent LV is strictly less than its child's
// start; what this adds on top is the
// retreat/advance bookkeeping a merge walk needs to move a frontier
// cursor from the previous step's tip to this span's parent set.
func (g *Graph) SpanningTreeIter() []SpanStep {
	items := g.spans.Items()
	steps := make([]SpanStep, 0, len(items))
	var cur Frontier
	for _, span := range items {
		retreat, advance := g.Diff(cur, span.Parents)
		steps = append(steps, SpanStep{Retreat: retreat, Advance: advance, Span: span})
		cur = Frontier{span.End() - 1}
	}
	return steps
}
