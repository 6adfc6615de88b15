package recfg

// Disposition is a callback's verdict on how the walk should proceed.
type Disposition int

const (
	// Success continues the walk without committing anything.
	Success Disposition = iota
	// Update asks the walker to write the (possibly mutated) fields the
	// callback was handed back into the tape, then continue the walk.
	Update
	// Stop terminates the walk immediately; the walker's own return
	// value becomes Stop.
	Stop
)

// ReadEntry32 is the mutable view of a 32-bit Read command handed to a
// Read32 handler.
type ReadEntry32 struct {
	Addr  uint64
	Mask  uint32
	Data  uint32
	Retry bool
	Recnt uint8
}

// ReadEntry64 is the mutable view of a 64-bit Read command handed to a
// Read64 handler.
type ReadEntry64 struct {
	Addr  uint64
	Mask  uint64
	Data  uint64
	Retry bool
	Recnt uint8
}

// WriteEntry32 is the mutable view of one entry of a batched Write32
// command handed to a Write32 handler.
type WriteEntry32 struct {
	Addr uint64
	Data uint32
}

// WriteEntry64 is the mutable view of one entry of a batched Write64
// command handed to a Write64 handler.
type WriteEntry64 struct {
	Addr uint64
	Data uint64
}

// Handlers is the capability set a caller supplies to Walk. Every field is
// optional; a nil handler means "skip this command kind". Generic, when
// set, is invoked for every command before its kind-specific handler and
// must never return Update.
type Handlers struct {
	Generic func(ctx any, hdr Header) (Disposition, error)
	End     func(ctx any) (Disposition, error)
	Delay   func(ctx any, ticks *uint32) (Disposition, error)
	Read32  func(ctx any, e *ReadEntry32) (Disposition, error)
	Read64  func(ctx any, e *ReadEntry64) (Disposition, error)
	Write32 func(ctx any, index int, e *WriteEntry32) (Disposition, error)
	Write64 func(ctx any, index int, e *WriteEntry64) (Disposition, error)
}

// Walk traverses t linearly, invoking h per command. It assumes but does
// not re-verify structural validity — run Check first against untrusted
// input. Walk borrows t mutably: any handler returning Update causes an
// immediate in-place write of that command's fields.
//
// The return Disposition is Success if every command completed with no
// update, Update if at least one command's fields were committed, or Stop
// if a handler asked to stop. A non-nil error is either a structural
// failure (a *FailureError, e.g. an invariant violation on an attempted
// update) or a user error returned verbatim by a handler.
func Walk(t *Tape, h Handlers, ctx any) (Disposition, error) {
	ret := Success
	var pos uint64
	for pos != t.Len() {
		if err := t.Require(pos, 4); err != nil {
			return ret, err
		}
		kind, w0, err := cmdKind(t, pos)
		if err != nil {
			return ret, err
		}

		if h.Generic != nil {
			disp, err := h.Generic(ctx, Header{Word: w0, Offset: pos})
			if disp == Update {
				return ret, ErrGenericUpdate
			}
			if err != nil {
				return ret, err
			}
			if disp == Stop {
				return Stop, nil
			}
		}

		switch kind {
		case KindMeta:
			switch MetaSubOf(w0) {
			case MetaEnd:
				if h.End != nil {
					disp, err := h.End(ctx)
					if err != nil {
						return ret, err
					}
					if disp == Stop {
						return Stop, nil
					}
				}
				return ret, nil
			case MetaDelay:
				if h.Delay != nil {
					ticks := MetaDataOf(w0)
					disp, err := h.Delay(ctx, &ticks)
					if err != nil {
						return ret, err
					}
					switch disp {
					case Update:
						if ticks >= 1<<26 {
							return ret, failf(pos, "delay ticks %d overflow 26 bits", ticks)
						}
						if err := t.WriteU32(pos, MetaDataSet(w0, ticks)); err != nil {
							return ret, err
						}
						ret = Update
					case Stop:
						return Stop, nil
					}
				}
				pos += 4
			default:
				return ret, failf(pos, "unknown meta sub-op %d", MetaSubOf(w0))
			}

		case KindRead:
			w1, err := t.ReadU32(pos + 4)
			if err != nil {
				return ret, err
			}
			rh := DecodeReadHeader(w0, w1)
			if !rh.Large {
				size := uint64(16)
				if h.Read32 != nil {
					e := ReadEntry32{
						Addr:  RegisterAddr(rh.Base, rh.Off),
						Retry: rh.Retry,
						Recnt: rh.Recnt,
					}
					if e.Mask, err = t.ReadU32(pos + 8); err != nil {
						return ret, err
					}
					if e.Data, err = t.ReadU32(pos + 12); err != nil {
						return ret, err
					}
					disp, err := h.Read32(ctx, &e)
					if err != nil {
						return ret, err
					}
					switch disp {
					case Update:
						if !AddrInvariant(e.Addr) {
							return ret, failf(pos, "read32 address 0x%x fails the address invariant", e.Addr)
						}
						rh.Base, rh.Off = AddrToBaseOff(e.Addr)
						rh.Retry, rh.Recnt = e.Retry, e.Recnt
						nw0, nw1 := EncodeReadHeaderWords(w0, w1, rh)
						if err := t.WriteU32(pos, nw0); err != nil {
							return ret, err
						}
						if err := t.WriteU32(pos+4, nw1); err != nil {
							return ret, err
						}
						if err := t.WriteU32(pos+8, e.Mask); err != nil {
							return ret, err
						}
						if err := t.WriteU32(pos+12, e.Data); err != nil {
							return ret, err
						}
						ret = Update
					case Stop:
						return Stop, nil
					}
				}
				pos += size
				continue
			}

			fillerPos := pos + 8
			skip, err := t.FillerSkip(fillerPos)
			if err != nil {
				return ret, err
			}
			dataPos := fillerPos
			if skip {
				dataPos += 4
			}
			if h.Read64 != nil {
				e := ReadEntry64{
					Addr:  RegisterAddr(rh.Base, rh.Off),
					Retry: rh.Retry,
					Recnt: rh.Recnt,
				}
				if e.Mask, err = t.ReadU64(dataPos); err != nil {
					return ret, err
				}
				if e.Data, err = t.ReadU64(dataPos + 8); err != nil {
					return ret, err
				}
				disp, err := h.Read64(ctx, &e)
				if err != nil {
					return ret, err
				}
				switch disp {
				case Update:
					if !AddrInvariant(e.Addr) {
						return ret, failf(pos, "read64 address 0x%x fails the address invariant", e.Addr)
					}
					rh.Base, rh.Off = AddrToBaseOff(e.Addr)
					rh.Retry, rh.Recnt = e.Retry, e.Recnt
					nw0, nw1 := EncodeReadHeaderWords(w0, w1, rh)
					if err := t.WriteU32(pos, nw0); err != nil {
						return ret, err
					}
					if err := t.WriteU32(pos+4, nw1); err != nil {
						return ret, err
					}
					if err := t.WriteU64(dataPos, e.Mask); err != nil {
						return ret, err
					}
					if err := t.WriteU64(dataPos+8, e.Data); err != nil {
						return ret, err
					}
					ret = Update
				case Stop:
					return Stop, nil
				}
			}
			pos = dataPos + 16

		case KindWrite32:
			next, r, err := walkWrite32(t, pos, w0, h.Write32, ctx, ret)
			if err != nil {
				return ret, err
			}
			if r == Stop {
				return Stop, nil
			}
			ret = r
			pos = next

		case KindWrite64:
			next, r, err := walkWrite64(t, pos, w0, h.Write64, ctx, ret)
			if err != nil {
				return ret, err
			}
			if r == Stop {
				return Stop, nil
			}
			ret = r
			pos = next

		default:
			return ret, failf(pos, "unknown command tag %d", kind)
		}
	}
	return ret, nil
}

// Visit is the read-only entry point: it runs Walk against a private copy
// of buf, so a misbehaving handler that returns Update cannot
// mutate the caller's tape. It exists for callers that only ever want to
// observe a tape (printing callbacks, the inspector's step mode).
func Visit(buf []byte, opts Options, h Handlers, ctx any) (Disposition, error) {
	cp := append([]byte(nil), buf...)
	return Walk(NewTape(cp, opts), h, ctx)
}

func walkWrite32(t *Tape, pos uint64, w0 uint32, handler func(any, int, *WriteEntry32) (Disposition, error), ctx any, ret Disposition) (uint64, Disposition, error) {
	wh := DecodeWriteHeader(w0)
	cnt := uint64(wh.Count) + 1
	alcnt := uint64(AlignedCount(wh.Count + 1))
	payload := pos + 4 + alcnt

	for i := uint64(0); i < cnt; i++ {
		offPos := pos + 4 + i
		off, err := t.ReadU8(offPos)
		if err != nil {
			return 0, ret, err
		}
		dataPos := payload + i*4
		data, err := t.ReadU32(dataPos)
		if err != nil {
			return 0, ret, err
		}
		if handler == nil {
			continue
		}
		e := WriteEntry32{Addr: RegisterAddr(wh.Base, off), Data: data}
		disp, err := handler(ctx, int(i), &e)
		if err != nil {
			return 0, ret, err
		}
		switch disp {
		case Update:
			if !AddrInvariant(e.Addr) {
				return 0, ret, failf(pos, "write32 entry %d address 0x%x fails the address invariant", i, e.Addr)
			}
			if cnt == 1 {
				wh.Base, _ = AddrToBaseOff(e.Addr)
				if err := t.WriteU32(pos, EncodeWriteHeaderWord(w0, wh)); err != nil {
					return 0, ret, err
				}
			} else if SharedBasePage(e.Addr) != uint64(wh.Base)<<10 {
				return 0, ret, failf(pos, "write32 entry %d changes the shared BASE", i)
			}
			_, newOff := AddrToBaseOff(e.Addr)
			if err := t.WriteU8(offPos, newOff); err != nil {
				return 0, ret, err
			}
			if err := t.WriteU32(dataPos, e.Data); err != nil {
				return 0, ret, err
			}
			ret = Update
		case Stop:
			return 0, Stop, nil
		}
	}
	return payload + cnt*4, ret, nil
}

func walkWrite64(t *Tape, pos uint64, w0 uint32, handler func(any, int, *WriteEntry64) (Disposition, error), ctx any, ret Disposition) (uint64, Disposition, error) {
	wh := DecodeWriteHeader(w0)
	cnt := uint64(wh.Count) + 1
	alcnt := uint64(AlignedCount(wh.Count + 1))
	fillerPos := pos + 4 + alcnt

	skip, err := t.FillerSkip(fillerPos)
	if err != nil {
		return 0, ret, err
	}
	payload := fillerPos
	if skip {
		payload += 4
	}

	for i := uint64(0); i < cnt; i++ {
		offPos := pos + 4 + i
		off, err := t.ReadU8(offPos)
		if err != nil {
			return 0, ret, err
		}
		dataPos := payload + i*8
		data, err := t.ReadU64(dataPos)
		if err != nil {
			return 0, ret, err
		}
		if handler == nil {
			continue
		}
		e := WriteEntry64{Addr: RegisterAddr(wh.Base, off), Data: data}
		disp, err := handler(ctx, int(i), &e)
		if err != nil {
			return 0, ret, err
		}
		switch disp {
		case Update:
			if !AddrInvariant(e.Addr) {
				return 0, ret, failf(pos, "write64 entry %d address 0x%x fails the address invariant", i, e.Addr)
			}
			if cnt == 1 {
				wh.Base, _ = AddrToBaseOff(e.Addr)
				if err := t.WriteU32(pos, EncodeWriteHeaderWord(w0, wh)); err != nil {
					return 0, ret, err
				}
			} else if SharedBasePage(e.Addr) != uint64(wh.Base)<<10 {
				return 0, ret, failf(pos, "write64 entry %d changes the shared BASE", i)
			}
			_, newOff := AddrToBaseOff(e.Addr)
			if err := t.WriteU8(offPos, newOff); err != nil {
				return 0, ret, err
			}
			if err := t.WriteU64(dataPos, e.Data); err != nil {
				return 0, ret, err
			}
			ret = Update
		case Stop:
			return 0, Stop, nil
		}
	}
	return payload + cnt*8, ret, nil
}
