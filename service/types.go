package service

import "github.com/ibootdbg/recfg/debugger"

// CommandInfo is the wire representation of one decoded tape command.
type CommandInfo struct {
	Index  int    `json:"index"`
	Offset uint64 `json:"offset"`
	Kind   string `json:"kind"`
	Addr   uint64 `json:"addr,omitempty"`
	Mask   uint64 `json:"mask,omitempty"`
	Data   uint64 `json:"data,omitempty"`
	Retry  bool   `json:"retry,omitempty"`
	Recnt  uint8  `json:"recnt,omitempty"`
	Ticks  uint32 `json:"ticks,omitempty"`
	Entry  int    `json:"entry,omitempty"`
	Text   string `json:"text"`
}

// BreakpointInfo is the wire representation of a breakpoint.
type BreakpointInfo struct {
	ID        int    `json:"id"`
	Offset    uint64 `json:"offset"`
	Enabled   bool   `json:"enabled"`
	Temporary bool   `json:"temporary"`
	Condition string `json:"condition,omitempty"`
	HitCount  int    `json:"hitCount"`
}

// WatchpointInfo is the wire representation of a watchpoint.
type WatchpointInfo struct {
	ID        int    `json:"id"`
	Address   uint64 `json:"address"`
	Enabled   bool   `json:"enabled"`
	LastValue uint64 `json:"lastValue"`
	HitCount  int    `json:"hitCount"`
}

// Status is a snapshot of a session's run state.
type Status string

const (
	StatusRunning    Status = "running"
	StatusDone       Status = "done"
	StatusBreakpoint Status = "breakpoint"
	StatusWatchpoint Status = "watchpoint"
)

// StatusInfo reports where a session's cursor sits relative to the tape.
type StatusInfo struct {
	Cursor int    `json:"cursor"`
	Total  int    `json:"total"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func toCommandInfo(rec debugger.CommandRecord) CommandInfo {
	return CommandInfo{
		Index:  rec.Index,
		Offset: rec.Offset,
		Kind:   rec.Kind.String(),
		Addr:   rec.Addr,
		Mask:   rec.Mask,
		Data:   rec.Data,
		Retry:  rec.Retry,
		Recnt:  rec.Recnt,
		Ticks:  rec.Ticks,
		Entry:  rec.Entry,
		Text:   rec.Text,
	}
}

func toBreakpointInfo(bp *debugger.Breakpoint) BreakpointInfo {
	return BreakpointInfo{
		ID:        bp.ID,
		Offset:    bp.Offset,
		Enabled:   bp.Enabled,
		Temporary: bp.Temporary,
		Condition: bp.Condition,
		HitCount:  bp.HitCount,
	}
}

func toWatchpointInfo(wp *debugger.Watchpoint) WatchpointInfo {
	return WatchpointInfo{
		ID:        wp.ID,
		Address:   wp.Address,
		Enabled:   wp.Enabled,
		LastValue: wp.LastValue,
		HitCount:  wp.HitCount,
	}
}
