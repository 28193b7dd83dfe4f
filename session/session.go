// Package session is the concurrency boundary of the runtime: it owns
// session identity and serializes turns within a session, while independent
// sessions proceed concurrently against the shared agent.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/agent"
	"github.com/effective-security/agentic/transcript"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentic", "session")

// ErrUnknownSession is returned for operations on a session ID that was
// never started or has been ended.
var ErrUnknownSession = errors.New("unknown session")

type sessionState struct {
	// mu serializes turns within the session. It is never held across
	// another session's work.
	mu sync.Mutex
}

// Manager tracks active sessions and routes messages to the agent. All
// methods are safe for concurrent use.
type Manager struct {
	agent *agent.Agent
	store transcript.Store

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// NewManager creates a Manager. The store must be the same one the agent
// appends to.
func NewManager(ag *agent.Agent, store transcript.Store) *Manager {
	return &Manager{
		agent:    ag,
		store:    store,
		sessions: make(map[string]*sessionState),
	}
}

// StartSession creates a new session and returns its ID.
func (m *Manager) StartSession() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &sessionState{}
	m.mu.Unlock()

	logger.KV(xlog.DEBUG, "status", "session_started", "session_id", id)
	return id
}

func (m *Manager) lookup(id string) (*sessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[id]
	if s == nil {
		return nil, errors.WithMessagef(ErrUnknownSession, "session_id: %s", id)
	}
	return s, nil
}

// SendMessage runs one turn in the session. Turns within a session are
// serialized; a second concurrent SendMessage on the same ID waits for the
// first to finish.
func (m *Manager) SendMessage(ctx context.Context, id, input string) (*agent.TurnResult, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return m.agent.Run(ctx, id, input)
}

// Transcript returns a snapshot of the session's transcript.
func (m *Manager) Transcript(ctx context.Context, id string) ([]transcript.Entry, error) {
	if _, err := m.lookup(id); err != nil {
		return nil, err
	}
	return m.store.Snapshot(ctx, id)
}

// ClearSession discards the session's transcript. The session stays active
// and can receive further messages.
func (m *Manager) ClearSession(ctx context.Context, id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return m.store.Clear(ctx, id)
}

// EndSession removes the session and discards its transcript. Ending an
// unknown session is a no-op.
func (m *Manager) EndSession(ctx context.Context, id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if s == nil {
		return
	}

	// wait for an in-flight turn before dropping the transcript
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := m.store.Clear(ctx, id); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "failed_to_clear_transcript",
			"session_id", id,
			"err", err.Error(),
		)
	}
	logger.KV(xlog.DEBUG, "status", "session_ended", "session_id", id)
}

// Active returns the number of active sessions.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
