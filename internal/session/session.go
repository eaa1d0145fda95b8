// Package session holds per-user conversation state. Each session owns a
// distinct vector index namespace, so concurrent sessions cannot contaminate
// each other's retrieval.
package session

import (
	"fmt"
	"sync"
	"time"

	"pdfchat/internal/helper"
	"pdfchat/internal/models"
)

// Session is the explicit state object for one user: its namespace, the
// currently bound document and the chat history.
type Session struct {
	ID        string               `json:"id"`
	Namespace string               `json:"namespace"`
	Document  string               `json:"document,omitempty"`
	History   []models.ChatMessage `json:"history"`
	CreatedAt time.Time            `json:"created_at"`
}

// Manager tracks live sessions. All access goes through the manager so
// handlers never share a Session pointer across goroutines.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create starts a new session with a fresh namespace.
func (m *Manager) Create() (*Session, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        id,
		Namespace: fmt.Sprintf("session-%.8s", id),
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return m.snapshot(s), nil
}

// Get returns a copy of the session, or false if it does not exist.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return m.snapshot(s), true
}

// BindDocument records the uploaded document as the session's knowledge base.
// The previous document and the chat history about it are discarded: a session
// talks about one document at a time.
func (m *Manager) BindDocument(id, document string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.Document = document
	s.History = nil
	return m.snapshot(s), true
}

// AppendTurn adds one chat message to the session history.
func (m *Manager) AppendTurn(id, role, content string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.History = append(s.History, models.ChatMessage{
		Role:    role,
		Content: content,
		At:      time.Now().UTC(),
	})
	return true
}

// Delete removes the session. The caller resets its namespace separately.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// snapshot copies a session so callers cannot mutate shared state. Caller
// must hold at least a read lock.
func (m *Manager) snapshot(s *Session) *Session {
	out := *s
	out.History = append([]models.ChatMessage(nil), s.History...)
	return &out
}
