package recfg

import "testing"

func TestWalkInvokesEndHandler(t *testing.T) {
	var saw bool
	h := Handlers{End: func(ctx any) (Disposition, error) {
		saw = true
		return Success, nil
	}}
	tape := NewTape(endOnly(), DefaultOptions())
	disp, err := Walk(tape, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disp != Success {
		t.Errorf("expected Success, got %v", disp)
	}
	if !saw {
		t.Error("End handler was not invoked")
	}
}

func TestWalkDelayUpdateCommits(t *testing.T) {
	buf := append(delayCmd(10), endOnly()...)
	tape := NewTape(buf, DefaultOptions())
	h := Handlers{Delay: func(ctx any, ticks *uint32) (Disposition, error) {
		*ticks = 200
		return Update, nil
	}}
	disp, err := Walk(tape, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disp != Update {
		t.Errorf("expected Update, got %v", disp)
	}
	w0, err := tape.ReadU32(0)
	if err != nil {
		t.Fatal(err)
	}
	if got := MetaDataOf(w0); got != 200 {
		t.Errorf("expected committed ticks 200, got %d", got)
	}
}

func TestWalkDelayUpdateRejectsOverflow(t *testing.T) {
	buf := append(delayCmd(10), endOnly()...)
	tape := NewTape(buf, DefaultOptions())
	h := Handlers{Delay: func(ctx any, ticks *uint32) (Disposition, error) {
		*ticks = 1 << 26
		return Update, nil
	}}
	if _, err := Walk(tape, h, nil); err == nil {
		t.Fatal("expected error for a 26-bit overflowing tick count")
	}
}

func TestWalkGenericMustNotReturnUpdate(t *testing.T) {
	tape := NewTape(endOnly(), DefaultOptions())
	h := Handlers{Generic: func(ctx any, hdr Header) (Disposition, error) {
		return Update, nil
	}}
	if _, err := Walk(tape, h, nil); err != ErrGenericUpdate {
		t.Fatalf("expected ErrGenericUpdate, got %v", err)
	}
}

func TestWalkStopHaltsImmediately(t *testing.T) {
	buf := append(delayCmd(1), delayCmd(2)...)
	buf = append(buf, endOnly()...)
	tape := NewTape(buf, DefaultOptions())
	calls := 0
	h := Handlers{Delay: func(ctx any, ticks *uint32) (Disposition, error) {
		calls++
		return Stop, nil
	}}
	disp, err := Walk(tape, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disp != Stop {
		t.Errorf("expected Stop, got %v", disp)
	}
	if calls != 1 {
		t.Errorf("expected exactly one Delay invocation before stopping, got %d", calls)
	}
}

func TestWalkRead32UpdateRejectsBadAddress(t *testing.T) {
	buf := append(read32Cmd(0x1000_0000, 0xF, 0x1), endOnly()...)
	tape := NewTape(buf, DefaultOptions())
	h := Handlers{Read32: func(ctx any, e *ReadEntry32) (Disposition, error) {
		e.Addr = 0x1000_0001 // misaligned
		return Update, nil
	}}
	if _, err := Walk(tape, h, nil); err == nil {
		t.Fatal("expected error for a misaligned read32 address")
	}
}

func TestWalkRead32UpdateCommitsNewAddress(t *testing.T) {
	buf := append(read32Cmd(0x1000_0000, 0xF, 0x1), endOnly()...)
	tape := NewTape(buf, DefaultOptions())
	const newAddr = 0x2000_0004
	h := Handlers{Read32: func(ctx any, e *ReadEntry32) (Disposition, error) {
		e.Addr = newAddr
		e.Data = 0x42
		return Update, nil
	}}
	disp, err := Walk(tape, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disp != Update {
		t.Errorf("expected Update, got %v", disp)
	}

	var gotAddr uint64
	var gotData uint32
	_, err = Walk(tape, Handlers{Read32: func(ctx any, e *ReadEntry32) (Disposition, error) {
		gotAddr, gotData = e.Addr, e.Data
		return Success, nil
	}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotAddr != newAddr {
		t.Errorf("expected committed address 0x%x, got 0x%x", newAddr, gotAddr)
	}
	if gotData != 0x42 {
		t.Errorf("expected committed data 0x42, got 0x%x", gotData)
	}
}

func TestWalkBatchedWriteSharedBaseRejected(t *testing.T) {
	buf := append(write32Cmd(0x4000, []uint8{0, 1}, []uint32{1, 2}), endOnly()...)
	tape := NewTape(buf, DefaultOptions())
	h := Handlers{Write32: func(ctx any, i int, e *WriteEntry32) (Disposition, error) {
		if i == 0 {
			e.Addr = 0x5000_0000 // different page entirely
			return Update, nil
		}
		return Success, nil
	}}
	if _, err := Walk(tape, h, nil); err == nil {
		t.Fatal("expected error when a batched write entry's update breaks the shared BASE")
	}
}

func TestWalkBatchedWriteSingleEntryCanRebase(t *testing.T) {
	buf := append(write32Cmd(0x4000, []uint8{0}, []uint32{1}), endOnly()...)
	tape := NewTape(buf, DefaultOptions())
	const newAddr = 0x3000_0008
	h := Handlers{Write32: func(ctx any, i int, e *WriteEntry32) (Disposition, error) {
		e.Addr = newAddr
		return Update, nil
	}}
	disp, err := Walk(tape, h, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disp != Update {
		t.Errorf("expected Update, got %v", disp)
	}

	var gotAddr uint64
	_, err = Walk(tape, Handlers{Write32: func(ctx any, i int, e *WriteEntry32) (Disposition, error) {
		gotAddr = e.Addr
		return Success, nil
	}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotAddr != newAddr {
		t.Errorf("expected rebased address 0x%x, got 0x%x", newAddr, gotAddr)
	}
}

// TestWalkVolatileAlignmentHonorsFillerOnlyWhenUnaligned exercises the
// AlignmentVolatile distinction from FillerSkip through an actual Walk:
// a 0xDEADBEEF word right after a Read64 header is filler only when it
// sits on a 4-byte-but-not-8-byte boundary. When the header lands at an
// 8-byte-aligned tape offset, that same word is real payload data and
// must not be skipped.
func TestWalkVolatileAlignmentHonorsFillerOnlyWhenUnaligned(t *testing.T) {
	const addr = 0x2000_0000
	const mask uint64 = 0xAAAAAAAAAAAAAAAA
	const data uint64 = 0xBBBBBBBBBBBBBBBB

	readMaskData := func(buf []byte) (uint64, uint64) {
		tape := NewTape(buf, Options{Access: AccessNormal, Alignment: AlignmentVolatile})
		if _, err := Check(tape); err != nil {
			t.Fatalf("unexpected check error: %v", err)
		}
		var gotMask, gotData uint64
		_, err := Walk(tape, Handlers{Read64: func(ctx any, e *ReadEntry64) (Disposition, error) {
			gotMask, gotData = e.Mask, e.Data
			return Success, nil
		}}, nil)
		if err != nil {
			t.Fatalf("unexpected walk error: %v", err)
		}
		return gotMask, gotData
	}

	// Command starts at tape offset 0: the word after the header lands at
	// offset 8, an 8-byte boundary, so AlignmentVolatile must NOT treat it
	// as filler even though it equals the sentinel. The tape carries the
	// sentinel as the low half of the mask and no extra word, so it is
	// well-formed only when that word is read as payload.
	alignedMask := mask&^0xFFFFFFFF | sentinelDeadbeef
	aligned := append(read64Cmd(AlignmentVolatile, addr, alignedMask, data, false), endOnly()...)
	gotMask, _ := readMaskData(aligned)
	if uint32(gotMask) != sentinelDeadbeef {
		t.Errorf("expected the unskipped sentinel in the low 32 bits of mask (0x%x), got 0x%x", sentinelDeadbeef, gotMask)
	}
	if gotMask == mask {
		t.Error("expected the 8-byte-aligned sentinel word to be decoded as mask payload, got the untouched value")
	}

	// A leading Delay command shifts the Read64 header to offset 4, so
	// the filler word now lands at offset 12 — 4-byte aligned but not
	// 8-byte aligned — and AlignmentVolatile must honor it as filler.
	unaligned := append(delayCmd(1), append(read64Cmd(AlignmentVolatile, addr, mask, data, true), endOnly()...)...)
	gotMask, gotData := readMaskData(unaligned)
	if gotMask != mask {
		t.Errorf("expected filler to be skipped and mask 0x%x decoded, got 0x%x", mask, gotMask)
	}
	if gotData != data {
		t.Errorf("expected filler to be skipped and data 0x%x decoded, got 0x%x", data, gotData)
	}
}

func TestVisitDoesNotMutateCallerBuffer(t *testing.T) {
	buf := append(delayCmd(5), endOnly()...)
	orig := append([]byte(nil), buf...)
	h := Handlers{Delay: func(ctx any, ticks *uint32) (Disposition, error) {
		*ticks = 999
		return Update, nil
	}}
	if _, err := Visit(buf, DefaultOptions(), h, nil); err != nil {
		t.Fatal(err)
	}
	for i := range buf {
		if buf[i] != orig[i] {
			t.Fatalf("Visit mutated caller buffer at byte %d", i)
		}
	}
}
