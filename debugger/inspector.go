package debugger

import (
	"fmt"
	"strings"

	"github.com/ibootdbg/recfg/recfg"
)

// CommandRecord is one decoded command (or, for a batched write, one entry
// of one command) captured by a full pass over a tape. The inspector steps
// through a slice of these rather than re-walking the tape on every step.
type CommandRecord struct {
	Index  int
	Offset uint64
	Kind   recfg.Kind
	Addr   uint64
	Mask   uint64
	Data   uint64
	Retry  bool
	Recnt  uint8
	Ticks  uint32
	Entry  int // batch entry index for Write32/Write64, else 0
	Text   string
}

// Frame projects a CommandRecord into the field set a condition expression
// can reference.
func (r CommandRecord) Frame() Frame {
	var retry uint64
	if r.Retry {
		retry = 1
	}
	return Frame{
		Offset: r.Offset,
		Kind:   uint64(r.Kind),
		Addr:   r.Addr,
		Mask:   r.Mask,
		Data:   r.Data,
		Retry:  retry,
		Recnt:  uint64(r.Recnt),
		Ticks:  uint64(r.Ticks),
		Index:  uint64(r.Index),
	}
}

// Inspector is a stepped session over a ReConfig tape: a decoded command
// list plus the breakpoint, watchpoint and history state an interactive
// front end (CLI, TUI, GUI) drives it through.
type Inspector struct {
	opts     recfg.Options
	buf      []byte
	commands []CommandRecord
	cursor   int // index of the next command Step will execute

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory

	Running     bool
	LastCommand string
	Output      strings.Builder
}

// New validates buf as a ReConfig tape and decodes it fully, returning an
// Inspector ready to step through it command by command.
func New(buf []byte, opts recfg.Options) (*Inspector, error) {
	cp := append([]byte(nil), buf...)
	tape := recfg.NewTape(cp, opts)
	if _, err := recfg.Check(tape); err != nil {
		return nil, fmt.Errorf("tape failed structural check: %w", err)
	}

	insp := &Inspector{
		opts:        opts,
		buf:         cp,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
	}
	if err := insp.decode(); err != nil {
		return nil, err
	}
	return insp, nil
}

// decode runs a single read-only Walk over the tape, building the full
// command-record list up front, the same way a disassembler builds an
// instruction listing before a debugger steps through it.
func (insp *Inspector) decode() error {
	insp.commands = nil
	var offset uint64
	add := func(rec CommandRecord) {
		rec.Index = len(insp.commands)
		rec.Offset = offset
		insp.commands = append(insp.commands, rec)
	}

	h := recfg.Handlers{
		Generic: func(ctx any, hdr recfg.Header) (recfg.Disposition, error) {
			offset = hdr.Offset
			return recfg.Success, nil
		},
		End: func(ctx any) (recfg.Disposition, error) {
			add(CommandRecord{Kind: recfg.KindMeta, Text: "end"})
			return recfg.Success, nil
		},
		Delay: func(ctx any, ticks *uint32) (recfg.Disposition, error) {
			add(CommandRecord{Kind: recfg.KindMeta, Ticks: *ticks, Text: fmt.Sprintf("delay %d", *ticks)})
			return recfg.Success, nil
		},
		Read32: func(ctx any, e *recfg.ReadEntry32) (recfg.Disposition, error) {
			add(CommandRecord{
				Kind: recfg.KindRead, Addr: e.Addr, Mask: uint64(e.Mask), Data: uint64(e.Data),
				Retry: e.Retry, Recnt: e.Recnt,
				Text: fmt.Sprintf("rd32 0x%09x & 0x%08x == 0x%08x", e.Addr, e.Mask, e.Data),
			})
			return recfg.Success, nil
		},
		Read64: func(ctx any, e *recfg.ReadEntry64) (recfg.Disposition, error) {
			add(CommandRecord{
				Kind: recfg.KindRead, Addr: e.Addr, Mask: e.Mask, Data: e.Data,
				Retry: e.Retry, Recnt: e.Recnt,
				Text: fmt.Sprintf("rd64 0x%09x & 0x%016x == 0x%016x", e.Addr, e.Mask, e.Data),
			})
			return recfg.Success, nil
		},
		Write32: func(ctx any, i int, e *recfg.WriteEntry32) (recfg.Disposition, error) {
			add(CommandRecord{
				Kind: recfg.KindWrite32, Addr: e.Addr, Data: uint64(e.Data), Entry: i,
				Text: fmt.Sprintf("wr32 0x%09x = 0x%08x", e.Addr, e.Data),
			})
			return recfg.Success, nil
		},
		Write64: func(ctx any, i int, e *recfg.WriteEntry64) (recfg.Disposition, error) {
			add(CommandRecord{
				Kind: recfg.KindWrite64, Addr: e.Addr, Data: e.Data, Entry: i,
				Text: fmt.Sprintf("wr64 0x%x = 0x%016x", e.Addr, e.Data),
			})
			return recfg.Success, nil
		},
	}

	_, err := recfg.Walk(recfg.NewTape(append([]byte(nil), insp.buf...), insp.opts), h, nil)
	return err
}

// Commands returns every decoded command, in tape order.
func (insp *Inspector) Commands() []CommandRecord {
	return insp.commands
}

// Cursor returns the index of the next command Step will execute.
func (insp *Inspector) Cursor() int {
	return insp.cursor
}

// Current returns the command at the cursor, or false if the walk is done.
func (insp *Inspector) Current() (CommandRecord, bool) {
	if insp.cursor >= len(insp.commands) {
		return CommandRecord{}, false
	}
	return insp.commands[insp.cursor], true
}

// Done reports whether every command has been stepped past.
func (insp *Inspector) Done() bool {
	return insp.cursor >= len(insp.commands)
}

// Reset rewinds the cursor to the first command and clears watchpoint
// baselines (but not breakpoints or history).
func (insp *Inspector) Reset() {
	insp.cursor = 0
	for _, wp := range insp.Watchpoints.GetAllWatchpoints() {
		wp.HaveValue = false
		wp.LastValue = 0
	}
}

// Step advances past one command, feeding it to any matching watchpoints,
// and returns it. It returns false once the tape is exhausted.
func (insp *Inspector) Step() (CommandRecord, bool) {
	rec, ok := insp.Current()
	if !ok {
		return CommandRecord{}, false
	}
	insp.cursor++

	switch rec.Kind {
	case recfg.KindRead, recfg.KindWrite32, recfg.KindWrite64:
		insp.Watchpoints.Observe(rec.Addr, rec.Data)
	}

	return rec, true
}

// StopReason reports why a Continue loop should pause before executing
// rec: a hit breakpoint or triggered watchpoint, or "" to keep going.
func (insp *Inspector) StopReason(rec CommandRecord) string {
	if bp := insp.Breakpoints.GetBreakpoint(rec.Offset); bp != nil && bp.Enabled {
		ok, err := EvaluateCondition(bp.Condition, rec.Frame())
		if err == nil && ok {
			insp.Breakpoints.ProcessHit(rec.Offset)
			return fmt.Sprintf("breakpoint %d", bp.ID)
		}
	}
	return ""
}

// Continue steps until a breakpoint stops the walk, a watchpoint fires, or
// the tape is exhausted. It returns the commands it stepped over and the
// reason it stopped ("" if the tape simply ran out).
func (insp *Inspector) Continue() ([]CommandRecord, string) {
	var stepped []CommandRecord
	for {
		rec, ok := insp.Current()
		if !ok {
			return stepped, ""
		}
		if reason := insp.StopReason(rec); reason != "" {
			return stepped, reason
		}

		insp.cursor++
		stepped = append(stepped, rec)

		if rec.Kind == recfg.KindRead || rec.Kind == recfg.KindWrite32 || rec.Kind == recfg.KindWrite64 {
			if wp, fired := insp.Watchpoints.Observe(rec.Addr, rec.Data); fired {
				return stepped, fmt.Sprintf("watchpoint %d at 0x%x", wp.ID, wp.Address)
			}
		}
	}
}

// Rewrite commits a new Data value for the command at offset, using Walk's
// Update path so every structural invariant (address range, shared BASE
// page for batched writes) is re-checked before anything is written.
func (insp *Inspector) Rewrite(offset uint64, data uint64) error {
	tape := recfg.NewTape(insp.buf, insp.opts)
	var applied bool
	var cur uint64

	h := recfg.Handlers{
		Generic: func(ctx any, hdr recfg.Header) (recfg.Disposition, error) {
			cur = hdr.Offset
			return recfg.Success, nil
		},
		Read32: func(ctx any, e *recfg.ReadEntry32) (recfg.Disposition, error) {
			return recfg.Success, nil
		},
		Read64: func(ctx any, e *recfg.ReadEntry64) (recfg.Disposition, error) {
			return recfg.Success, nil
		},
		Write32: func(ctx any, i int, e *recfg.WriteEntry32) (recfg.Disposition, error) {
			return recfg.Success, nil
		},
		Write64: func(ctx any, i int, e *recfg.WriteEntry64) (recfg.Disposition, error) {
			return recfg.Success, nil
		},
	}

	for idx, rec := range insp.commands {
		if rec.Offset != offset {
			continue
		}
		switch rec.Kind {
		case recfg.KindRead:
			// Both Read32 and Read64 share the same Offset; only one of the
			// two handlers ever fires for a given command, so wiring both is
			// safe.
			h.Read32 = func(ctx any, e *recfg.ReadEntry32) (recfg.Disposition, error) {
				if cur != offset {
					return recfg.Success, nil
				}
				e.Data = uint32(data)
				applied = true
				return recfg.Update, nil
			}
			h.Read64 = func(ctx any, e *recfg.ReadEntry64) (recfg.Disposition, error) {
				if cur != offset {
					return recfg.Success, nil
				}
				e.Data = data
				applied = true
				return recfg.Update, nil
			}
		case recfg.KindWrite32:
			target := rec.Entry
			h.Write32 = func(ctx any, i int, e *recfg.WriteEntry32) (recfg.Disposition, error) {
				if cur != offset || i != target {
					return recfg.Success, nil
				}
				e.Data = uint32(data)
				applied = true
				return recfg.Update, nil
			}
		case recfg.KindWrite64:
			target := rec.Entry
			h.Write64 = func(ctx any, i int, e *recfg.WriteEntry64) (recfg.Disposition, error) {
				if cur != offset || i != target {
					return recfg.Success, nil
				}
				e.Data = data
				applied = true
				return recfg.Update, nil
			}
		}
		_ = idx
		break
	}

	if _, err := recfg.Walk(tape, h, nil); err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("no writable command at offset 0x%x", offset)
	}
	return insp.decode()
}

// GetOutput returns and clears the output buffer used by the CLI front end.
func (insp *Inspector) GetOutput() string {
	s := insp.Output.String()
	insp.Output.Reset()
	return s
}

// Printf writes formatted output to the output buffer.
func (insp *Inspector) Printf(format string, args ...interface{}) {
	insp.Output.WriteString(fmt.Sprintf(format, args...))
}

// Println writes a line to the output buffer.
func (insp *Inspector) Println(args ...interface{}) {
	insp.Output.WriteString(fmt.Sprintln(args...))
}
