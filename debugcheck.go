package texttree

import (
	"context"

	"github.com/gocrdt/texttree/internal/btree"
	"github.com/sirupsen/logrus"
)

// DebugCheck walks every span for basic well-formedness, then
// recursively re-derives and checks the B-tree's metrics: every
// internal node's cached per-child totals against what that child's
// own subtree actually holds, all the way from the leaves up through
// every level to the root, plus every other structural invariant the
// engine relies on. A caller runs this after a batch of applies to
// catch corruption early. Call sites that find a violated invariant
// log it at error level before panicking with InvariantError, so a
// crash report shows the last few structural checks performed.
func (e *Engine) DebugCheck(ctx context.Context) {
	log := e.logger()

	e.tree.IterAll(func(s *btree.Span) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if s.Len <= 0 {
			log.WithField("lv_start", s.LVStart).Error("dbg_check: span has non-positive length")
			panicInvariant(s.LVStart, "span has non-positive length")
		}
		return true
	})

	if err := e.tree.CheckMetrics(); err != nil {
		log.WithError(err).Error("dbg_check: btree metric consistency check failed")
		panicInvariant(RootLV, "%s", err.Error())
	}

	// Every LV in [0, len) must resolve to a leaf that actually holds it.
	for lv := LV(0); lv < e.graph.NextLV(); lv++ {
		if _, runLen, ok := e.deleteRunAt(lv, 1); ok && runLen > 0 {
			continue // delete LVs aren't addressed by the content tree.
		}
		if _, ok := e.tree.CursorAtLV(lv); !ok {
			if e.text.RunLength(lv, 1) > 0 {
				log.WithField("lv", lv).Error("dbg_check: insert lv missing from marker index")
				panicInvariant(lv, "marker index does not resolve insert lv %d", lv)
			}
		}
	}

	// Every transaction span's parents must precede its own start.
	for _, span := range e.graph.Spans() {
		for _, p := range span.Parents {
			if p != RootLV && p >= span.Start {
				log.WithField("lv_start", span.Start).Error("dbg_check: parent not strictly before span start")
				panicInvariant(span.Start, "parent lv %d not strictly before span start %d", p, span.Start)
			}
		}
	}

	// The frontier must be an antichain.
	frontier := e.graph.Frontier()
	for i, a := range frontier {
		for j, b := range frontier {
			if i == j {
				continue
			}
			if e.graph.Contains([]LV{a}, b) {
				log.WithFields(logrus.Fields{"a": a, "b": b}).Error("dbg_check: frontier is not an antichain")
				panicInvariant(a, "frontier element %d is an ancestor of %d", b, a)
			}
		}
	}
}
