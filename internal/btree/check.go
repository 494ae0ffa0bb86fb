package btree

import "fmt"

// CheckMetrics recursively walks the tree from the root down to the
// leaves and verifies that every internal node's cached per-child
// (cur, raw) metrics equal the metrics actually held by that child's
// own subtree, and that every leaf's cached metrics equal the sum of
// its own entries. It returns a descriptive error at the first
// mismatch found; a nil result means the parent-chain metric totals
// are consistent with the leaf-entry contributions at every level.
func (t *Tree) CheckMetrics() error {
	cur, raw, err := t.checkSubtree(t.root)
	if err != nil {
		return err
	}
	if cur != t.CurLen() || raw != t.RawLen() {
		return fmt.Errorf("btree: root metrics mismatch: derived cur=%d raw=%d cached cur=%d raw=%d",
			cur, raw, t.CurLen(), t.RawLen())
	}
	return nil
}

func (t *Tree) checkSubtree(ref nodeRef) (cur, raw int, err error) {
	if ref.kind == leafNodeKind {
		leaf := t.leaves[ref.idx]
		dCur, dRaw := 0, 0
		for _, e := range leaf.entries {
			c, r := spanMetrics(e)
			dCur += c
			dRaw += r
		}
		if dCur != leaf.cur || dRaw != leaf.raw {
			return 0, 0, fmt.Errorf("btree: leaf %d metrics mismatch: derived cur=%d raw=%d cached cur=%d raw=%d",
				ref.idx, dCur, dRaw, leaf.cur, leaf.raw)
		}
		return leaf.cur, leaf.raw, nil
	}

	node := t.internal[ref.idx]
	sumCur, sumRaw := 0, 0
	for _, c := range node.children {
		childCur, childRaw, err := t.checkSubtree(c.ref)
		if err != nil {
			return 0, 0, err
		}
		if childCur != c.cur || childRaw != c.raw {
			return 0, 0, fmt.Errorf("btree: internal node %d child %v metrics mismatch: derived cur=%d raw=%d cached cur=%d raw=%d",
				ref.idx, c.ref, childCur, childRaw, c.cur, c.raw)
		}
		sumCur += childCur
		sumRaw += childRaw
	}
	if sumCur != node.cur || sumRaw != node.raw {
		return 0, 0, fmt.Errorf("btree: internal node %d aggregate mismatch: derived cur=%d raw=%d cached cur=%d raw=%d",
			ref.idx, sumCur, sumRaw, node.cur, node.raw)
	}
	return node.cur, node.raw, nil
}
