package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/parser"
)

// Session is one uploaded and parsed export.
type Session struct {
	ID       string
	Name     string
	Uploaded time.Time
	Result   *parser.Result
}

// Table returns the session's canonical table.
func (s *Session) Table() *cdr.Table { return s.Result.Table }

// Store keeps parsed sessions in memory. Tables are never modified after
// Put, so readers share them without copying.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

// Put stores res under a fresh id.
func (s *Store) Put(name string, res *parser.Result) *Session {
	sess := &Session{ID: uuid.NewString(), Name: name, Uploaded: time.Now(), Result: res}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete drops id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
