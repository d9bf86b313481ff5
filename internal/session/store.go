package session

import (
	"sync"

	"github.com/andrey78787878/audit/internal/catalog"
)

// entry holds one user's session and the lock that serializes access to it.
// refs counts goroutines currently holding or waiting for mu.
type entry struct {
	mu   sync.Mutex
	sess Session
	refs int
}

// Store owns all per-user sessions. Operations for the same user are
// mutually exclusive; operations for different users never share a lock
// beyond the short map lookup.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) acquire(userID string) *entry {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return e
}

func (s *Store) release(userID string, e *entry) {
	idle := e.sess.Traversal == nil && e.sess.Pending == nil
	e.mu.Unlock()

	s.mu.Lock()
	e.refs--
	if e.refs == 0 && idle {
		delete(s.entries, userID)
	}
	s.mu.Unlock()
}

// Update runs fn with exclusive access to the user's session.
// fn must not retain tx after returning.
func (s *Store) Update(userID string, fn func(tx *Tx)) {
	e := s.acquire(userID)
	defer s.release(userID, e)
	fn(&Tx{sess: &e.sess})
}

// Get returns a copy of the user's session. Unknown users get an idle session.
func (s *Store) Get(userID string) Session {
	var out Session
	s.Update(userID, func(tx *Tx) { out = tx.Session() })
	return out
}

// SetTraversal starts a new traversal, discarding any previous one.
func (s *Store) SetTraversal(userID, category string, questions []catalog.Question) {
	s.Update(userID, func(tx *Tx) { tx.SetTraversal(category, questions) })
}

// AdvanceOrFinish moves the user's cursor to the next question.
func (s *Store) AdvanceOrFinish(userID string) Decision {
	var d Decision
	s.Update(userID, func(tx *Tx) { d = tx.AdvanceOrFinish() })
	return d
}

// SetPending stores a comment request, replacing any previous one.
func (s *Store) SetPending(userID string, q catalog.Question, answer string) {
	s.Update(userID, func(tx *Tx) { tx.SetPending(q, answer, userID) })
}

// TakePending reads and clears the user's pending comment request.
func (s *Store) TakePending(userID string) (Pending, bool) {
	var (
		p  Pending
		ok bool
	)
	s.Update(userID, func(tx *Tx) { p, ok = tx.TakePending() })
	return p, ok
}

// Clear drops both the traversal and any pending comment.
func (s *Store) Clear(userID string) {
	s.Update(userID, func(tx *Tx) { tx.Clear() })
}

// Len returns the number of users with a live session entry.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Tx is a view of one session valid only inside Update.
type Tx struct {
	sess *Session
}

// Session returns a copy of the current state.
func (tx *Tx) Session() Session {
	return tx.sess.clone()
}

// SetTraversal replaces the traversal and drops any pending comment,
// which belonged to the abandoned traversal. Empty question lists
// leave the session idle.
func (tx *Tx) SetTraversal(category string, questions []catalog.Question) {
	tx.sess.Pending = nil
	if len(questions) == 0 {
		tx.sess.Traversal = nil
		return
	}
	qs := make([]catalog.Question, len(questions))
	copy(qs, questions)
	tx.sess.Traversal = &Traversal{Category: category, Questions: qs}
}

// AdvanceOrFinish increments the cursor. Reaching the end clears the traversal.
func (tx *Tx) AdvanceOrFinish() Decision {
	t := tx.sess.Traversal
	if t == nil {
		return Decision{Step: StepNone}
	}

	t.Index++
	if t.Index < len(t.Questions) {
		return Decision{
			Step:     StepQuestion,
			Category: t.Category,
			Question: t.Questions[t.Index],
			Position: t.Index + 1,
			Total:    len(t.Questions),
		}
	}

	tx.sess.Traversal = nil
	return Decision{Step: StepFinished, Category: t.Category, Total: len(t.Questions)}
}

// SetPending stores a comment request for q.
func (tx *Tx) SetPending(q catalog.Question, answer, userID string) {
	tx.sess.Pending = &Pending{Question: q, Answer: answer, UserID: userID}
}

// PeekPending returns the pending request without consuming it.
func (tx *Tx) PeekPending() (Pending, bool) {
	if tx.sess.Pending == nil {
		return Pending{}, false
	}
	return *tx.sess.Pending, true
}

// TakePending returns and clears the pending request.
func (tx *Tx) TakePending() (Pending, bool) {
	p, ok := tx.PeekPending()
	tx.sess.Pending = nil
	return p, ok
}

// ClearPending drops the pending request, if any.
func (tx *Tx) ClearPending() {
	tx.sess.Pending = nil
}

// Clear drops the traversal and the pending request.
func (tx *Tx) Clear() {
	tx.sess.Traversal = nil
	tx.sess.Pending = nil
}
