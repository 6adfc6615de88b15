package service

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ibootdbg/recfg/debugger"
	"github.com/ibootdbg/recfg/recfg"
)

var serviceLog *log.Logger

func init() {
	if os.Getenv("RECFG_DEBUG") != "" {
		// Note: file handle intentionally left open for the process lifetime;
		// the OS reclaims it on exit.
		logPath := filepath.Join(os.TempDir(), "recfg-service-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
		if err != nil {
			serviceLog = log.New(os.Stderr, "SERVICE: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			serviceLog = log.New(f, "SERVICE: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		serviceLog = log.New(io.Discard, "", 0)
	}
}

// ReConfigService provides a thread-safe interface over a decoded tape's
// Inspector for the HTTP/WebSocket API, which holds one per session. The
// CLI, TUI and GUI drive a debugger.Inspector directly, not through it.
type ReConfigService struct {
	mu        sync.RWMutex
	inspector *debugger.Inspector

	onOutput func(string)
}

// NewReConfigService validates and decodes buf, returning a service ready
// to be driven by any front end.
func NewReConfigService(buf []byte, opts recfg.Options) (*ReConfigService, error) {
	insp, err := debugger.New(buf, opts)
	if err != nil {
		return nil, err
	}
	serviceLog.Printf("decoded tape: %d bytes, %d commands", len(buf), len(insp.Commands()))
	return &ReConfigService{inspector: insp}, nil
}

// SetOutputCallback registers a callback that Step and Continue invoke with
// any output pending in the inspector's output buffer (for broadcasting to
// a WebSocket client).
func (s *ReConfigService) SetOutputCallback(cb func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOutput = cb
}

func (s *ReConfigService) emitOutput() {
	out := s.inspector.GetOutput()
	if out == "" {
		return
	}
	if s.onOutput != nil {
		s.onOutput(out)
	}
}

// Commands returns every decoded command.
func (s *ReConfigService) Commands() []CommandInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.inspector.Commands()
	out := make([]CommandInfo, len(recs))
	for i, rec := range recs {
		out[i] = toCommandInfo(rec)
	}
	return out
}

// Status reports the current cursor position.
func (s *ReConfigService) Status() StatusInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := StatusRunning
	if s.inspector.Done() {
		status = StatusDone
	}
	return StatusInfo{
		Cursor: s.inspector.Cursor(),
		Total:  len(s.inspector.Commands()),
		Status: status,
	}
}

// Step executes a single command.
func (s *ReConfigService) Step() (*CommandInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.inspector.Step()
	s.emitOutput()
	if !ok {
		return nil, false
	}
	info := toCommandInfo(rec)
	serviceLog.Printf("step -> 0x%x %s", rec.Offset, rec.Text)
	return &info, true
}

// Continue runs until a breakpoint or watchpoint fires or the tape is
// exhausted, returning the commands executed and the stop status.
func (s *ReConfigService) Continue() ([]CommandInfo, StatusInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stepped, reason := s.inspector.Continue()
	s.emitOutput()

	out := make([]CommandInfo, len(stepped))
	for i, rec := range stepped {
		out[i] = toCommandInfo(rec)
	}

	status := StatusRunning
	switch {
	case reason == "" && s.inspector.Done():
		status = StatusDone
	case strings.HasPrefix(reason, "watchpoint"):
		status = StatusWatchpoint
	case reason != "":
		status = StatusBreakpoint
	}
	serviceLog.Printf("continue -> %d commands, reason=%q", len(stepped), reason)

	return out, StatusInfo{
		Cursor: s.inspector.Cursor(),
		Total:  len(s.inspector.Commands()),
		Status: status,
		Reason: reason,
	}
}

// Reset rewinds the cursor to the first command.
func (s *ReConfigService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspector.Reset()
}

// AddBreakpoint sets a breakpoint at offset.
func (s *ReConfigService) AddBreakpoint(offset uint64, temporary bool, condition string) BreakpointInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp := s.inspector.Breakpoints.AddBreakpoint(offset, temporary, condition)
	return toBreakpointInfo(bp)
}

// DeleteBreakpoint removes a breakpoint by ID.
func (s *ReConfigService) DeleteBreakpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspector.Breakpoints.DeleteBreakpoint(id)
}

// SetBreakpointEnabled enables or disables a breakpoint by ID.
func (s *ReConfigService) SetBreakpointEnabled(id int, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled {
		return s.inspector.Breakpoints.EnableBreakpoint(id)
	}
	return s.inspector.Breakpoints.DisableBreakpoint(id)
}

// Breakpoints lists every breakpoint.
func (s *ReConfigService) Breakpoints() []BreakpointInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.inspector.Breakpoints.GetAllBreakpoints()
	out := make([]BreakpointInfo, len(all))
	for i, bp := range all {
		out[i] = toBreakpointInfo(bp)
	}
	return out
}

// AddWatchpoint watches address for value changes.
func (s *ReConfigService) AddWatchpoint(address uint64) WatchpointInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	wp := s.inspector.Watchpoints.AddWatchpoint(address)
	return toWatchpointInfo(wp)
}

// DeleteWatchpoint removes a watchpoint by ID.
func (s *ReConfigService) DeleteWatchpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspector.Watchpoints.DeleteWatchpoint(id)
}

// Watchpoints lists every watchpoint.
func (s *ReConfigService) Watchpoints() []WatchpointInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.inspector.Watchpoints.GetAllWatchpoints()
	out := make([]WatchpointInfo, len(all))
	for i, wp := range all {
		out[i] = toWatchpointInfo(wp)
	}
	return out
}

// Evaluate evaluates a condition expression against the command at the
// cursor and returns the boolean result.
func (s *ReConfigService) Evaluate(expr string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.inspector.Current()
	if !ok {
		return false, fmt.Errorf("no current command: tape exhausted")
	}
	return debugger.EvaluateCondition(expr, rec.Frame())
}

// Rewrite commits a new data value for the command at offset.
func (s *ReConfigService) Rewrite(offset uint64, data uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspector.Rewrite(offset, data)
}

// GetOutput returns and clears the accumulated CLI-style output buffer.
func (s *ReConfigService) GetOutput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspector.GetOutput()
}
