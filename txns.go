package texttree

// deleteRunAt returns the target range and run length of the delete
// op covering lv (bounded by maxLen), starting at lv's offset within
// that run, or ok=false if no recorded delete run covers lv.
func (e *Engine) deleteRunAt(lv LV, maxLen int) (targetStart LV, runLen int, ok bool) {
	idx, off, found := e.deletes.Find(int(lv))
	if !found {
		return 0, 0, false
	}
	d := e.deletes.At(idx)
	avail := d.length - off
	if avail > maxLen {
		avail = maxLen
	}
	return d.targetStart + LV(off), avail, true
}

func (e *Engine) externalForLVOrRoot(lv LV) ExternalID {
	if lv == RootLV {
		return RootExternalID
	}
	raw, ok := e.graph.RawForLV(lv)
	if !ok {
		panicInvariant(lv, "lv has no external id mapping")
	}
	return raw
}

func (e *Engine) externalsForLVs(lvs []LV) []ExternalID {
	out := make([]ExternalID, len(lvs))
	for i, lv := range lvs {
		out[i] = e.externalForLVOrRoot(lv)
	}
	return out
}

// opsForRange reconstructs the ordered op list covering [lo, hi),
// alternating between delete runs (found in the deletes ledger) and
// insert runs (found in the content store) as it walks forward.
func (e *Engine) opsForRange(lo, hi LV) []RemoteOp {
	var ops []RemoteOp
	pos := lo
	for pos < hi {
		remaining := int(hi - pos)

		if targetStart, runLen, ok := e.deleteRunAt(pos, remaining); ok {
			ops = append(ops, RemoteOp{
				IsDelete: true,
				Target:   e.externalForLVOrRoot(targetStart),
				Length:   runLen,
			})
			pos += LV(runLen)
			continue
		}

		runLen := e.text.RunLength(pos, remaining)
		if runLen == 0 {
			panicInvariant(pos, "lv covered by neither a delete op nor insert content")
		}
		originLeft, originRight, ok := e.tree.OriginsAt(pos)
		if !ok {
			panicInvariant(pos, "insert lv missing from content tree")
		}
		ops = append(ops, RemoteOp{
			IsDelete:     false,
			OriginLeft:   e.externalForLVOrRoot(originLeft),
			OriginRight:  e.externalForLVOrRoot(originRight),
			Length:       runLen,
			ContentKnown: true,
			Content:      string(e.text.Slice(pos, runLen)),
		})
		pos += LV(runLen)
	}
	return ops
}

// TxnsInRange reconstructs every RemoteTxn whose LVs fall (at least
// partially) within r, in ascending LV order. A causal-graph
// span that only partially overlaps r yields a txn covering just the
// overlapping sub-range, with its external id/parents adjusted
// accordingly (parent is the LV immediately before the sub-range when
// that isn't the span's own first parent set). Spans merge regardless
// of agent, so a span holding runs of several agents yields one txn
// per agent run.
func (e *Engine) TxnsInRange(r LVRange) []RemoteTxn {
	var out []RemoteTxn
	for _, span := range e.graph.Spans() {
		lo := max(span.Start, r.Start)
		end := min(span.End(), r.End)
		for lo < end {
			raw0, ok := e.graph.RawForLV(lo)
			if !ok {
				panicInvariant(lo, "causal graph span has no external id")
			}
			hi := lo + 1
			for hi < end {
				if next, ok := e.graph.LVForRaw(raw0.Agent, raw0.Seq+int(hi-lo)); !ok || next != hi {
					break
				}
				hi++
			}
			id := ExternalID{Agent: raw0.Agent, Seq: raw0.Seq}

			var parents []LV
			if lo == span.Start {
				parents = span.Parents
			} else {
				parents = []LV{lo - 1}
			}

			out = append(out, RemoteTxn{
				ID:      id,
				Length:  int(hi - lo),
				Parents: e.externalsForLVs(parents),
				Ops:     e.opsForRange(lo, hi),
			})
			lo = hi
		}
	}
	return out
}
