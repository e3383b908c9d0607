package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a session id is unknown to the store.
	ErrNotFound = errors.New("session not found")

	// ErrConflict is returned when a freshly generated session id collides
	// with an existing one. Practically unreachable with UUIDs, but the
	// store surfaces it rather than silently overwriting a session.
	ErrConflict = errors.New("session id conflict")
)

// Store is the in-memory authority for call sessions.
//
// All mutation goes through the store lock, so a read-modify-write inside
// Update is atomic with respect to every other handler. Sessions are never
// deleted; process exit is the only garbage collection.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*CallSession),
		clock:    time.Now,
	}
}

// CreateParams are the caller-supplied fields for a new session.
type CreateParams struct {
	To         string
	CampaignID string
	AgentID    string
	Script     string
}

// Create registers a new session in status initiating and returns a copy.
func (s *Store) Create(p CreateParams) (CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if _, exists := s.sessions[id]; exists {
		// One retry, then give up explicitly.
		id = uuid.NewString()
		if _, exists := s.sessions[id]; exists {
			return CallSession{}, ErrConflict
		}
	}

	sess := &CallSession{
		ID:         id,
		To:         p.To,
		CampaignID: p.CampaignID,
		AgentID:    p.AgentID,
		Script:     p.Script,
		Status:     StatusInitiating,
		Events:     []Event{},
		StartTime:  s.clock().UTC(),
	}
	s.sessions[id] = sess
	return snapshot(sess), nil
}

// Get returns a copy of the session, or ErrNotFound.
func (s *Store) Get(id string) (CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return CallSession{}, ErrNotFound
	}
	return snapshot(sess), nil
}

// AppendEvent appends one record to the session's trail. The timestamp is
// stamped here if the caller left it zero.
func (s *Store) AppendEvent(id string, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.clock().UTC()
	}
	sess.Events = append(sess.Events, e)
	return nil
}

// Update applies fn to the session under the store lock. fn must not block;
// any awaited external call belongs outside Update, with state re-fetched
// afterwards.
func (s *Store) Update(id string, fn func(*CallSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	fn(sess)
	return nil
}

// Summaries enumerates all sessions without exposing their event trails.
func (s *Store) Summaries() map[string]Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Summary, len(s.sessions))
	for id, sess := range s.sessions {
		out[id] = Summary{
			To:         sess.To,
			Status:     sess.Status,
			StartTime:  sess.StartTime,
			CampaignID: sess.CampaignID,
			LeadStatus: sess.LeadStatus,
		}
	}
	return out
}

// Len returns the number of sessions ever created.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func snapshot(sess *CallSession) CallSession {
	cp := *sess
	cp.Events = make([]Event, len(sess.Events))
	copy(cp.Events, sess.Events)
	return cp
}
