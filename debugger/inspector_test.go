package debugger

import (
	"testing"

	"github.com/ibootdbg/recfg/recfg"
)

func endCmd() []byte {
	return []byte{0, 0, 0, 0}
}

func delayCmd(ticks uint32) []byte {
	w := recfg.MetaDataSet(0x4, ticks)
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}

func read32Cmd(addr uint64, mask, data uint32) []byte {
	base, off := recfg.AddrToBaseOff(addr)
	hdr := recfg.ReadHeader{Large: false, Base: base, Off: off}
	w0, w1 := recfg.EncodeReadHeaderWords(0x1, 0, hdr)
	buf := make([]byte, 0, 16)
	buf = append(buf, byte(w0), byte(w0>>8), byte(w0>>16), byte(w0>>24))
	buf = append(buf, byte(w1), byte(w1>>8), byte(w1>>16), byte(w1>>24))
	buf = append(buf, byte(mask), byte(mask>>8), byte(mask>>16), byte(mask>>24))
	buf = append(buf, byte(data), byte(data>>8), byte(data>>16), byte(data>>24))
	return buf
}

func write32Cmd(base uint32, offs []uint8, data []uint32) []byte {
	hdr := recfg.WriteHeader{Count: uint8(len(offs) - 1), Base: base}
	w0 := recfg.EncodeWriteHeaderWord(0x2, hdr)
	buf := []byte{byte(w0), byte(w0 >> 8), byte(w0 >> 16), byte(w0 >> 24)}
	buf = append(buf, offs...)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	for _, d := range data {
		buf = append(buf, byte(d), byte(d>>8), byte(d>>16), byte(d>>24))
	}
	return buf
}

func sampleTape() []byte {
	var buf []byte
	buf = append(buf, delayCmd(5)...)
	buf = append(buf, read32Cmd(0x1000_0000, 0xFFFFFFFF, 0x1)...)
	buf = append(buf, write32Cmd(0x4000, []uint8{0, 1}, []uint32{0xAA, 0xBB})...)
	buf = append(buf, endCmd()...)
	return buf
}

func newTestInspector(t *testing.T) *Inspector {
	t.Helper()
	insp, err := New(sampleTape(), recfg.DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return insp
}

func TestNewDecodesFullTape(t *testing.T) {
	insp := newTestInspector(t)
	commands := insp.Commands()

	// delay, read32, write32 entry 0, write32 entry 1, end = 5 records
	if len(commands) != 5 {
		t.Fatalf("expected 5 decoded commands, got %d", len(commands))
	}
	if commands[0].Kind != recfg.KindMeta {
		t.Errorf("expected first command to be meta delay, got %v", commands[0].Kind)
	}
	if commands[1].Kind != recfg.KindRead {
		t.Errorf("expected second command to be a read, got %v", commands[1].Kind)
	}
	if commands[2].Kind != recfg.KindWrite32 || commands[2].Entry != 0 {
		t.Errorf("expected third command to be write32 entry 0, got %v entry %d", commands[2].Kind, commands[2].Entry)
	}
	if commands[3].Kind != recfg.KindWrite32 || commands[3].Entry != 1 {
		t.Errorf("expected fourth command to be write32 entry 1, got %v entry %d", commands[3].Kind, commands[3].Entry)
	}
	if commands[4].Kind != recfg.KindMeta {
		t.Errorf("expected last command to be meta end, got %v", commands[4].Kind)
	}
}

func TestNewRejectsInvalidTape(t *testing.T) {
	buf := []byte{0x08, 0, 0, 0} // End command with nonzero data is invalid
	if _, err := New(buf, recfg.DefaultOptions()); err == nil {
		t.Fatal("expected error for a structurally invalid tape")
	}
}

func TestStepAdvancesCursor(t *testing.T) {
	insp := newTestInspector(t)
	if insp.Cursor() != 0 {
		t.Fatalf("expected initial cursor 0, got %d", insp.Cursor())
	}
	rec, ok := insp.Step()
	if !ok {
		t.Fatal("expected Step to succeed")
	}
	if rec.Index != 0 {
		t.Errorf("expected first record's index 0, got %d", rec.Index)
	}
	if insp.Cursor() != 1 {
		t.Errorf("expected cursor 1 after one step, got %d", insp.Cursor())
	}
}

func TestStepReturnsFalseAtEnd(t *testing.T) {
	insp := newTestInspector(t)
	for i := 0; i < len(insp.Commands()); i++ {
		if _, ok := insp.Step(); !ok {
			t.Fatalf("unexpected exhaustion at step %d", i)
		}
	}
	if _, ok := insp.Step(); ok {
		t.Error("expected Step to return false once the tape is exhausted")
	}
	if !insp.Done() {
		t.Error("expected Done to report true")
	}
}

func TestResetRewindsCursor(t *testing.T) {
	insp := newTestInspector(t)
	insp.Step()
	insp.Step()
	insp.Reset()
	if insp.Cursor() != 0 {
		t.Errorf("expected cursor 0 after reset, got %d", insp.Cursor())
	}
}

func TestContinueStopsAtBreakpoint(t *testing.T) {
	insp := newTestInspector(t)
	target := insp.Commands()[2].Offset
	insp.Breakpoints.AddBreakpoint(target, false, "")

	stepped, reason := insp.Continue()
	if reason == "" {
		t.Fatal("expected Continue to stop at the breakpoint")
	}
	if len(stepped) != 2 {
		t.Errorf("expected 2 commands stepped before the breakpoint, got %d", len(stepped))
	}
	rec, ok := insp.Current()
	if !ok || rec.Offset != target {
		t.Errorf("expected cursor to rest on the breakpoint command, got %+v ok=%v", rec, ok)
	}
}

func TestContinueRunsToCompletionWithoutBreakpoints(t *testing.T) {
	insp := newTestInspector(t)
	stepped, reason := insp.Continue()
	if reason != "" {
		t.Errorf("expected no stop reason, got %q", reason)
	}
	if len(stepped) != len(insp.Commands()) {
		t.Errorf("expected every command stepped, got %d of %d", len(stepped), len(insp.Commands()))
	}
	if !insp.Done() {
		t.Error("expected tape to be exhausted")
	}
}

func TestContinueFiresWatchpointOnValueChange(t *testing.T) {
	// Both entries of this batched write target 0x1000000 (BASE 0x4000,
	// OFF 0) with different data, so the second entry changes the value.
	buf := append(write32Cmd(0x4000, []uint8{0, 0}, []uint32{0xAA, 0xBB}), endCmd()...)
	insp, err := New(buf, recfg.DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	insp.Watchpoints.AddWatchpoint(0x1000000)

	stepped, reason := insp.Continue()
	if reason == "" {
		t.Fatal("expected Continue to stop on the watchpoint firing")
	}
	if len(stepped) == 0 {
		t.Error("expected at least one command to execute before the watchpoint fired")
	}
}

func TestStopReasonHonorsCondition(t *testing.T) {
	insp := newTestInspector(t)
	target := insp.Commands()[1].Offset
	insp.Breakpoints.AddBreakpoint(target, false, "data == 0x1")

	rec, ok := insp.Current()
	for ok && rec.Offset != target {
		rec, ok = insp.Step()
	}
	if !ok {
		t.Fatal("never reached the target command")
	}
	if reason := insp.StopReason(rec); reason == "" {
		t.Error("expected condition to be true and report a stop reason")
	}
}

func TestRewriteCommitsNewReadData(t *testing.T) {
	insp := newTestInspector(t)
	readOffset := insp.Commands()[1].Offset

	if err := insp.Rewrite(readOffset, 0x42); err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}

	var found bool
	for _, rec := range insp.Commands() {
		if rec.Offset == readOffset {
			found = true
			if rec.Data != 0x42 {
				t.Errorf("expected rewritten data 0x42, got 0x%x", rec.Data)
			}
		}
	}
	if !found {
		t.Fatal("rewritten command not found after re-decode")
	}
}

func TestRewriteRejectsUnknownOffset(t *testing.T) {
	insp := newTestInspector(t)
	if err := insp.Rewrite(0xFFFFFFFF, 1); err == nil {
		t.Error("expected an error rewriting a nonexistent offset")
	}
}
