// Package texttree implements the local operation engine of a
// collaborative plain-text CRDT: the in-memory structures and
// algorithms that maintain document text under local edits, apply
// remote operations out of order, resolve concurrent insertions with a
// total interleaving order, and track the causal graph so two
// replicas' histories can be diffed efficiently.
//
// The package is built from five internal layers (a run-length
// container, a content-addressable B-tree, a causal-graph index, a
// double-delete ledger, and a content store), glued together here by Engine, the only type
// this package exports as a unit of state.
package texttree

import (
	"fmt"
	"io"

	"github.com/gocrdt/texttree/internal/btree"
	"github.com/gocrdt/texttree/internal/causalgraph"
	"github.com/gocrdt/texttree/internal/content"
	"github.com/gocrdt/texttree/internal/doubledelete"
	"github.com/gocrdt/texttree/internal/rle"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// deleteEntry records, keyed by the LV of the delete operation itself,
// the LV range of the characters it targeted.
type deleteEntry struct {
	lvStart     LV
	length      int
	targetStart LV
}

func (d *deleteEntry) Len() int    { return d.length }
func (d *deleteEntry) RleKey() int { return int(d.lvStart) }
func (d *deleteEntry) CanAppend(next *deleteEntry) bool {
	return d.lvStart+LV(d.length) == next.lvStart && d.targetStart+LV(d.length) == next.targetStart
}
func (d *deleteEntry) Append(next *deleteEntry) { d.length += next.length }
func (d *deleteEntry) Truncate(at int) *deleteEntry {
	tail := &deleteEntry{lvStart: d.lvStart + LV(at), length: d.length - at, targetStart: d.targetStart + LV(at)}
	d.length = at
	return tail
}
func (d *deleteEntry) Clone() *deleteEntry {
	c := *d
	return &c
}

var _ rle.Record[*deleteEntry] = (*deleteEntry)(nil)

// Engine is the local operation engine: the single stateful type this
// package exposes. The zero value is not usable; construct one with
// New.
type Engine struct {
	tree        *btree.Tree
	graph       *causalgraph.Graph
	deletes     *rle.List[*deleteEntry]
	doubleDel   *doubledelete.Ledger
	text        *content.Store
	knownAgents map[AgentID]struct{}
	log         *logrus.Entry
}

// New returns an empty engine with no logging configured. Use
// WithLogger to attach structured tracing.
func New() *Engine {
	return &Engine{
		tree:        btree.New(),
		graph:       causalgraph.New(),
		deletes:     rle.New[*deleteEntry](),
		doubleDel:   doubledelete.New(),
		text:        content.New(),
		knownAgents: make(map[AgentID]struct{}),
		log:         nil,
	}
}

// WithLogger attaches a structured logger; a nil entry is
// treated as "no logging" and restores the discard behavior.
func (e *Engine) WithLogger(l *logrus.Entry) *Engine {
	e.log = l
	return e
}

func (e *Engine) logger() *logrus.Entry {
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return logrus.NewEntry(l)
	}
	return e.log
}

// LenChars returns the number of currently active (live) characters.
func (e *Engine) LenChars() int { return e.tree.CurLen() }

// Frontier returns the current frontier as external ids.
func (e *Engine) Frontier() []ExternalID {
	lvs := e.graph.Frontier()
	out := make([]ExternalID, 0, len(lvs))
	for _, lv := range lvs {
		raw, ok := e.graph.RawForLV(lv)
		if !ok {
			panicInvariant(lv, "frontier lv has no external id mapping")
		}
		out = append(out, raw)
	}
	return out
}

// AtCurPos returns the external id of the live character at content
// position pos. Returns a wrapped error rather than panicking: this is
// a public-edge bounds check, not a programmer error.
func (e *Engine) AtCurPos(pos int) (ExternalID, error) {
	if pos < 0 || pos >= e.tree.CurLen() {
		return ExternalID{}, errors.Errorf("texttree: position %d out of range [0, %d)", pos, e.tree.CurLen())
	}
	c := e.tree.CursorAtCurPos(pos)
	// The cursor can sit at the end of an entry or on a tombstone; step
	// forward one raw character at a time to the live character itself.
	for s := e.tree.EntryAt(c); s != nil && (s.Deleted || c.Offset >= s.Len); s = e.tree.EntryAt(c) {
		c = e.tree.NextCharCursor(btree.Cursor{LeafIdx: c.LeafIdx, EntryIdx: c.EntryIdx, Offset: min(c.Offset, s.Len-1)})
	}
	lv := e.tree.LVAt(c)
	raw, ok := e.graph.RawForLV(lv)
	if !ok {
		panicInvariant(lv, "cur position resolved to an lv with no external id")
	}
	return raw, nil
}

// Text reconstructs the full live document by walking the content tree
// in document order and fetching each active span's characters from
// the content store.
func (e *Engine) Text() string {
	var buf []rune
	e.tree.IterAll(func(s *btree.Span) bool {
		if !s.Deleted {
			buf = append(buf, e.text.Slice(s.LVStart, s.Len)...)
		}
		return true
	})
	return string(buf)
}

func (e *Engine) allocateAgentSeq(agent AgentID, length int) int {
	return e.graph.NextSeqForAgent(agent)
}

// localOriginsAt resolves origin_left/origin_right for a fresh local
// insert at cursor c.
func (e *Engine) localOriginsAt(c btree.Cursor) (originLeft, originRight LV) {
	originLeft = e.tree.LVBefore(c)
	originRight = e.tree.LVAt(c)
	return
}

// LocalInsert applies a local insert of text at content position pos
// authored by agent. Returns a wrapped error on an out-of-bounds
// position; anything discovered inconsistent past that point is a
// programmer error and panics.
func (e *Engine) LocalInsert(agent AgentID, pos int, text string) error {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if pos < 0 || pos > e.tree.CurLen() {
		return errors.Errorf("texttree: local insert at position %d out of range [0, %d]", pos, e.tree.CurLen())
	}

	cursor := e.tree.CursorAtCurPos(pos)
	originLeft, originRight := e.localOriginsAt(cursor)

	lvBase := e.graph.NextLV()
	span := &btree.Span{LVStart: lvBase, Len: len(runes), OriginLeft: originLeft, OriginRight: originRight}
	e.tree.InsertAtCursor(cursor, span)
	e.text.Record(lvBase, runes)

	seq := e.allocateAgentSeq(agent, len(runes))
	e.graph.Append(agent, seq, len(runes), nil)

	e.logger().WithFields(logrus.Fields{
		"agent": agent, "seq": seq, "lv_start": lvBase, "len": len(runes),
	}).Debug("local insert applied")
	return nil
}

// LocalDelete applies a local delete of n characters starting at
// content position pos authored by agent.
func (e *Engine) LocalDelete(agent AgentID, pos int, n int) error {
	if n <= 0 {
		return nil
	}
	if pos < 0 || pos+n > e.tree.CurLen() {
		return errors.Errorf("texttree: local delete [%d,%d) out of range [0, %d)", pos, pos+n, e.tree.CurLen())
	}

	cursor := e.tree.CursorAtCurPos(pos)
	deactivated := e.tree.LocalDeactivate(cursor, n)
	if len(deactivated) == 0 {
		return nil
	}

	total := 0
	for _, r := range deactivated {
		total += r.Len()
	}
	lvBase := e.graph.NextLV()
	deleteLV := lvBase
	for _, r := range deactivated {
		e.deletes.Insert(&deleteEntry{lvStart: deleteLV, length: r.Len(), targetStart: r.Start})
		deleteLV += LV(r.Len())
	}

	seq := e.allocateAgentSeq(agent, total)
	e.graph.Append(agent, seq, total, nil)

	e.logger().WithFields(logrus.Fields{
		"agent": agent, "seq": seq, "lv_start": lvBase, "len": total,
	}).Debug("local delete applied")
	return nil
}

// LocalTxn applies a batch of local ops as a convenience wrapper; each
// op still allocates its own LV range and causal-graph append,
// matching what a sequence of individual calls would do.
func (e *Engine) LocalTxn(agent AgentID, ops []LocalOp) error {
	for i, op := range ops {
		var err error
		if op.IsDelete {
			err = e.LocalDelete(agent, op.Pos, op.Len)
		} else {
			err = e.LocalInsert(agent, op.Pos, op.Text)
		}
		if err != nil {
			return errors.Wrapf(err, "local txn op %d", i)
		}
	}
	return nil
}

// LocalOp is one operation within a LocalTxn batch.
type LocalOp struct {
	IsDelete bool
	Pos      int
	Len      int    // used when IsDelete
	Text     string // used when !IsDelete
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine{len=%d, frontier=%v}", e.LenChars(), e.Frontier())
}
