package api

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ibootdbg/recfg/recfg"
)

// SessionCreateRequest is a request to decode a tape and open a session
// over it.
type SessionCreateRequest struct {
	Data      string `json:"data"`                // base64-encoded tape bytes
	Alignment string `json:"alignment,omitempty"` // "extracted" (default) or "volatile"
	Access    string `json:"access,omitempty"`    // "normal" (default) or "volatile"
}

// decodeTape base64-decodes the request's tape payload.
func (r SessionCreateRequest) decodeTape() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.Data)
}

// options translates the request's alignment/access strings into recfg.Options.
func (r SessionCreateRequest) options() (recfg.Options, error) {
	opts := recfg.DefaultOptions()

	switch r.Alignment {
	case "", "extracted":
		opts.Alignment = recfg.AlignmentExtracted
	case "volatile":
		opts.Alignment = recfg.AlignmentVolatile
	default:
		return opts, fmt.Errorf("unknown alignment mode %q", r.Alignment)
	}

	switch r.Access {
	case "", "normal":
		opts.Access = recfg.AccessNormal
	case "volatile":
		opts.Access = recfg.AccessVolatile
	default:
		return opts, fmt.Errorf("unknown access mode %q", r.Access)
	}

	return opts, nil
}

// SessionCreateResponse is the response from creating a session.
type SessionCreateResponse struct {
	SessionID    string    `json:"sessionId"`
	CreatedAt    time.Time `json:"createdAt"`
	CommandCount int       `json:"commandCount"`
}

// BreakpointRequest is a request to set a breakpoint.
type BreakpointRequest struct {
	Offset    uint64 `json:"offset"`
	Temporary bool   `json:"temporary,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// BreakpointEnableRequest toggles a breakpoint's enabled state.
type BreakpointEnableRequest struct {
	Enabled bool `json:"enabled"`
}

// WatchpointRequest is a request to set a watchpoint.
type WatchpointRequest struct {
	Address uint64 `json:"address"`
}

// RewriteRequest is a request to commit a new data value for one command.
type RewriteRequest struct {
	Offset uint64 `json:"offset"`
	Data   uint64 `json:"data"`
}

// EvaluateRequest is a request to evaluate a condition expression.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse carries the boolean result of an expression evaluation.
type EvaluateResponse struct {
	Result bool `json:"result"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
