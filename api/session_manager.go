package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/ibootdbg/recfg/recfg"
	"github.com/ibootdbg/recfg/service"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned when trying to create a session with an existing ID
	ErrSessionAlreadyExists = errors.New("session already exists")
	// ErrTooManySessions is returned when the configured session cap is reached
	ErrTooManySessions = errors.New("maximum session count reached")
)

// Session wraps one decoded tape and its inspector service.
type Session struct {
	ID        string
	Service   *service.ReConfigService
	CreatedAt time.Time
}

// SessionManager manages multiple decode sessions
type SessionManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	maxSessions int
	mu          sync.RWMutex
}

// NewSessionManager creates a new session manager. maxSessions caps the
// number of concurrently open sessions; 0 means unlimited.
func NewSessionManager(broadcaster *Broadcaster, maxSessions int) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
		maxSessions: maxSessions,
	}
}

// CreateSession decodes buf as a ReConfig tape and registers a new session
// for it, wiring its output to the broadcaster as stdout events.
func (sm *SessionManager) CreateSession(buf []byte, opts recfg.Options) (*Session, error) {
	sm.mu.RLock()
	atCapacity := sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions
	sm.mu.RUnlock()
	if atCapacity {
		return nil, ErrTooManySessions
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	svc, err := service.NewReConfigService(buf, opts)
	if err != nil {
		return nil, err
	}

	if sm.broadcaster != nil {
		broadcaster := sm.broadcaster
		sid := sessionID
		svc.SetOutputCallback(func(out string) {
			broadcaster.BroadcastOutput(sid, "stdout", out)
		})
		debugLog("Session %s: output broadcasting wired", sessionID)
	} else {
		debugLog("Session %s: WARNING - no broadcaster available for output", sessionID)
	}

	session := &Session{
		ID:        sessionID,
		Service:   svc,
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		return nil, ErrTooManySessions
	}

	if _, exists := sm.sessions[sessionID]; exists {
		return nil, ErrSessionAlreadyExists
	}

	sm.sessions[sessionID] = session
	return session, nil
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// DestroySession removes a session by ID
func (sm *SessionManager) DestroySession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}

	delete(sm.sessions, sessionID)
	return nil
}

// ListSessions returns a list of all session IDs
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// generateSessionID generates a unique session ID
func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
