package texttree

import (
	"github.com/gocrdt/texttree/internal/btree"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LVRange is a half-open range of logical versions, re-exported from
// btree so callers of DiffSince/TxnsInRange never need to import it.
type LVRange = btree.LVRange

// RemoteOp is one operation within a remote transaction: either
// an Insert (OriginLeft/OriginRight/Length/ContentKnown, Content holds
// the characters when ContentKnown) or a Delete (Target/Length).
type RemoteOp struct {
	IsDelete bool

	// Insert fields.
	OriginLeft   ExternalID
	OriginRight  ExternalID
	Length       int
	ContentKnown bool
	Content      string

	// Delete fields.
	Target ExternalID
}

// RemoteTxn is the wire shape of a replicated transaction: an external id, its total
// length, its parent set, and the ordered op list it replays.
type RemoteTxn struct {
	ID      ExternalID
	Length  int
	Parents []ExternalID
	Ops     []RemoteOp
}

// ApplyRemoteTxn applies a remote transaction. It is idempotent: if
// txn.ID is already known, this is a silent no-op.
func (e *Engine) ApplyRemoteTxn(txn RemoteTxn) error {
	if _, known := e.graph.LVForRaw(txn.ID.Agent, txn.ID.Seq); known {
		e.logger().WithField("id", txn.ID).Debug("remote txn already known, skipping")
		return nil
	}

	parents := make([]LV, 0, len(txn.Parents))
	for _, p := range txn.Parents {
		lv, ok := e.lvForExternal(p)
		if !ok {
			panicInvariant(RootLV, "remote txn %v references unknown parent %v", txn.ID, p)
		}
		parents = append(parents, lv)
	}

	lvBase := e.graph.NextLV()
	pos := 0
	for _, op := range txn.Ops {
		if op.IsDelete {
			pos += e.applyRemoteDeleteOp(lvBase+LV(pos), op)
		} else {
			pos += e.applyRemoteInsertOp(lvBase+LV(pos), txn.ID.Agent, op)
		}
	}
	if pos != txn.Length {
		panicInvariant(lvBase, "remote txn %v declared length %d but ops covered %d", txn.ID, txn.Length, pos)
	}

	e.graph.Append(txn.ID.Agent, txn.ID.Seq, txn.Length, parents)
	e.logger().WithFields(logrus.Fields{"id": txn.ID, "lv_start": lvBase, "len": txn.Length}).Debug("remote txn applied")
	return nil
}

// lvForExternal resolves an external id to an LV, treating ROOT
// specially since it never goes through the causal graph's own
// mapping table.
func (e *Engine) lvForExternal(id ExternalID) (LV, bool) {
	if id == RootExternalID {
		return RootLV, true
	}
	return e.graph.LVForRaw(id.Agent, id.Seq)
}

// applyRemoteInsertOp places one remote insert op at its YJS-resolved
// position and returns the number of LVs it consumed.
func (e *Engine) applyRemoteInsertOp(lvStart LV, agent AgentID, op RemoteOp) int {
	originLeft, ok := e.lvForExternal(op.OriginLeft)
	if !ok {
		panicInvariant(lvStart, "remote insert origin_left %v unknown", op.OriginLeft)
	}
	originRight, ok := e.lvForExternal(op.OriginRight)
	if !ok {
		panicInvariant(lvStart, "remote insert origin_right %v unknown", op.OriginRight)
	}

	cursor := e.resolveRemoteInsertCursor(originLeft, originRight, agent)
	span := &btree.Span{LVStart: lvStart, Len: op.Length, OriginLeft: originLeft, OriginRight: originRight}
	e.tree.InsertAtCursor(cursor, span)

	if op.ContentKnown {
		e.text.Record(lvStart, []rune(op.Content))
	}
	return op.Length
}

// resolveRemoteInsertCursor implements the YJS-style concurrent-insert
// placement scan.
func (e *Engine) resolveRemoteInsertCursor(originLeft, originRight LV, newAgent AgentID) btree.Cursor {
	originLeftCursor := e.tree.CursorAfterLV(originLeft)
	newOLPos := e.tree.RawPosition(originLeftCursor)

	scan := originLeftCursor
	scanStart := originLeftCursor

	for {
		lv, ok := e.tree.CharLVAt(scan)
		if !ok || lv == originRight {
			return scan
		}

		xOriginLeft := e.tree.CharOriginLeftAt(scan)
		xOLPos := e.tree.RawPosition(e.tree.CursorAfterLV(xOriginLeft))

		switch {
		case xOLPos < newOLPos:
			// x sorts above new; insert before it.
			return scan
		case xOLPos > newOLPos:
			scan = e.tree.NextCharCursor(scan)
		default:
			xRaw, ok := e.graph.RawForLV(lv)
			if !ok {
				panicInvariant(lv, "scanned character has no external id")
			}
			if string(newAgent) > string(xRaw.Agent) {
				return scanStart
			}
			xOriginRight := e.tree.CharOriginRightAt(scan)
			if xOriginRight == originRight {
				return scan
			}
			scanStart = scan
			scan = e.tree.NextCharCursor(scan)
		}
	}
}

// applyRemoteDeleteOp deactivates (or ledger-accounts) the target
// range of one remote delete op and returns the number of LVs it
// consumed on the delete side (always op.Length).
func (e *Engine) applyRemoteDeleteOp(deleteLVStart LV, op RemoteOp) int {
	targetLV, ok := e.lvForExternal(op.Target)
	if !ok {
		panicInvariant(deleteLVStart, "remote delete target %v unknown", op.Target)
	}

	cursor, ok := e.tree.CursorAtLV(targetLV)
	if !ok {
		// Silently ignored: the target is not in the content tree, so
		// the whole op is dropped. (A target that exists but whose
		// length runs past the end of the document has the excess
		// dropped by the loop below.)
		e.logger().WithField("target", op.Target).Warn("remote delete target not found, ignoring")
		return op.Length
	}

	remaining := op.Length
	deleteLV := deleteLVStart
	for remaining > 0 {
		consumed, lvRange, skipped := e.tree.RemoteDeactivate(cursor, remaining)
		if consumed == 0 {
			break
		}
		if skipped {
			e.doubleDel.IncrementRange(lvRange.Start, lvRange.Len())
		}
		e.deletes.Insert(&deleteEntry{lvStart: deleteLV, length: lvRange.Len(), targetStart: lvRange.Start})
		deleteLV += LV(lvRange.Len())
		cursor = e.tree.AdvanceRaw(cursor, consumed)
		remaining -= consumed
	}
	return op.Length
}

// DiffSince returns the LV ranges known locally but not known to a
// peer whose frontier is remoteFrontier: the caller can ship
// txns covering these ranges to bring that peer up to date.
func (e *Engine) DiffSince(remoteFrontier []ExternalID) ([]LVRange, error) {
	remoteLVs := make([]LV, 0, len(remoteFrontier))
	for _, id := range remoteFrontier {
		lv, ok := e.lvForExternal(id)
		if !ok {
			return nil, errors.Errorf("texttree: diff_since given unknown remote frontier id %v", id)
		}
		remoteLVs = append(remoteLVs, lv)
	}
	onlyLocal, _ := e.graph.Diff(e.graph.Frontier(), remoteLVs)
	return onlyLocal, nil
}
