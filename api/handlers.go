package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ibootdbg/recfg/service"
)

// handleCreateSession decodes a tape and opens a new session over it.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	buf, err := req.decodeTape()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base64 tape data: "+err.Error())
		return
	}

	opts, err := req.options()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.sessions.CreateSession(buf, opts)
	if errors.Is(err, ErrTooManySessions) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to decode tape: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, SessionCreateResponse{
		SessionID:    session.ID,
		CreatedAt:    session.CreatedAt,
		CommandCount: len(session.Service.Commands()),
	})
}

// handleListSessions lists every active session ID.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": s.sessions.ListSessions(),
	})
}

// handleGetSessionStatus reports a session's cursor position.
func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session.Service.Status())
}

// handleDestroySession removes a session.
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleGetCommands lists every decoded command for a session.
func (s *Server) handleGetCommands(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commands": session.Service.Commands(),
	})
}

// handleStep advances a session by one command.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	rec, ok := session.Service.Step()
	s.broadcaster.BroadcastState(sessionID, map[string]interface{}{
		"status": string(service.StatusRunning),
	})
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"done": true})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleContinue runs a session until a breakpoint/watchpoint fires or the
// tape is exhausted.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	stepped, status := session.Service.Continue()
	if status.Reason != "" {
		s.broadcaster.BroadcastExecutionEvent(sessionID, "stopped", map[string]interface{}{
			"reason": status.Reason,
			"cursor": status.Cursor,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stepped": stepped,
		"status":  status,
	})
}

// handleReset rewinds a session to its first command.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	session.Service.Reset()
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleBreakpoint handles POST /session/{id}/breakpoint (add) and
// GET (list).
func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req BreakpointRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		bp := session.Service.AddBreakpoint(req.Offset, req.Temporary, req.Condition)
		writeJSON(w, http.StatusCreated, bp)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"breakpoints": session.Service.Breakpoints(),
		})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleBreakpointByID handles PUT (enable/disable) and DELETE on one
// breakpoint ID.
func (s *Server) handleBreakpointByID(w http.ResponseWriter, r *http.Request, sessionID string, idStr string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid breakpoint id")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := session.Service.DeleteBreakpoint(id); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	case http.MethodPut:
		var req BreakpointEnableRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := session.Service.SetBreakpointEnabled(id, req.Enabled); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWatchpoint handles POST (add) and GET (list) for a session's
// watchpoints.
func (s *Server) handleWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req WatchpointRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wp := session.Service.AddWatchpoint(req.Address)
		writeJSON(w, http.StatusCreated, wp)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"watchpoints": session.Service.Watchpoints(),
		})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleDeleteWatchpoint removes a watchpoint by ID.
func (s *Server) handleDeleteWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string, id int) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := session.Service.DeleteWatchpoint(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleRewrite commits a new data value for one command.
func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req RewriteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := session.Service.Rewrite(req.Offset, req.Data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleEvaluate evaluates a condition expression against a session's
// current command.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req EvaluateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := session.Service.Evaluate(req.Expression)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Result: result})
}

// handleGetConsoleOutput drains a session's accumulated output buffer.
func (s *Server) handleGetConsoleOutput(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"output": session.Service.GetOutput(),
	})
}
