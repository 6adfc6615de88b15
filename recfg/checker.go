package recfg

// Check walks t from offset 0 verifying that every command is well-formed
// and that the tape ends on a Meta=End command exactly at t.Len(). On
// success it returns t.Len(), nil. On failure it returns the offset of the
// command at which parsing halted, wrapped in a *FailureError.
//
// Check never mutates the tape and does not invoke any Handlers — it only
// verifies structure, per §4.2 of the wire format. Running it before Walk
// is how a caller gets Walk's "assumes but does not re-verify" contract
// satisfied for untrusted input.
func Check(t *Tape) (uint64, error) {
	var pos, last uint64
	for pos != t.Len() {
		size, err := commandSize(t, pos)
		if err != nil {
			return pos, err
		}
		last = pos
		pos += size
	}
	kind, w0, err := cmdKind(t, last)
	if err != nil {
		return last, err
	}
	if kind != KindMeta || MetaSubOf(w0) != MetaEnd {
		return pos, failf(pos, "tape does not end with an End command")
	}
	return pos, nil
}

// commandSize validates the command at pos and returns its total size in
// bytes (header + offsets + payload + any alignment filler), or a
// *FailureError at pos describing why it's malformed.
func commandSize(t *Tape, pos uint64) (uint64, error) {
	if err := t.Require(pos, 4); err != nil {
		return 0, err
	}
	kind, w0, err := cmdKind(t, pos)
	if err != nil {
		return 0, err
	}
	switch kind {
	case KindMeta:
		switch MetaSubOf(w0) {
		case MetaEnd:
			if MetaDataOf(w0) != 0 {
				return 0, failf(pos, "End command has nonzero data")
			}
			if pos+4 != t.Len() {
				return 0, failf(pos, "End command is not the tape's last command")
			}
			return 4, nil
		case MetaDelay:
			return 4, nil
		default:
			return 0, failf(pos, "unknown meta sub-op %d", MetaSubOf(w0))
		}

	case KindRead:
		if err := t.Require(pos, 8); err != nil {
			return 0, err
		}
		w1, err := t.ReadU32(pos + 4)
		if err != nil {
			return 0, err
		}
		rh := DecodeReadHeader(w0, w1)
		if rh.Count != 0 {
			return 0, failf(pos, "read command has nonzero COUNT")
		}
		if !rh.Large {
			if err := t.Require(pos, 16); err != nil {
				return 0, err
			}
			return 16, nil
		}
		if err := t.Require(pos, 24); err != nil {
			return 0, err
		}
		fillerPos := pos + 8
		skip, err := t.FillerSkip(fillerPos)
		if err != nil {
			return 0, err
		}
		dataPos := fillerPos
		if skip {
			if err := t.Require(pos, 28); err != nil {
				return 0, err
			}
			dataPos += 4
		}
		return (dataPos - pos) + 16, nil

	case KindWrite32:
		return checkWrite(t, pos, 4)

	case KindWrite64:
		return checkWrite(t, pos, 8)

	default:
		return 0, failf(pos, "unknown command tag %d", kind)
	}
}

// checkWrite validates a batched Write32 (width=4) or Write64 (width=8)
// command and returns its total size.
func checkWrite(t *Tape, pos uint64, width uint64) (uint64, error) {
	if err := t.Require(pos, 4); err != nil {
		return 0, err
	}
	w0, err := t.ReadU32(pos)
	if err != nil {
		return 0, err
	}
	wh := DecodeWriteHeader(w0)
	cnt := uint64(wh.Count) + 1
	alcnt := uint64(AlignedCount(wh.Count + 1))
	if cnt > 16 || alcnt > 16 || alcnt%4 != 0 {
		return 0, failf(pos, "write command count %d exceeds 16", cnt)
	}

	offsetsEnd := pos + 4 + alcnt
	if width == 4 {
		total := 4 + alcnt + cnt*width
		if err := t.Require(pos, total); err != nil {
			return 0, err
		}
		return total, nil
	}

	// Write64: same alignment-filler rule as Read64, peeked at the word
	// immediately following the offset array.
	if err := t.Require(pos, 4+alcnt+cnt*width); err != nil {
		return 0, err
	}
	skip, err := t.FillerSkip(offsetsEnd)
	if err != nil {
		return 0, err
	}
	dataPos := offsetsEnd
	if skip {
		if err := t.Require(pos, 4+alcnt+4+cnt*width); err != nil {
			return 0, err
		}
		dataPos += 4
	}
	return (dataPos - pos) + cnt*width, nil
}
