package session

import (
	"sync"
	"time"

	"menuopt/internal/models"

	"github.com/google/uuid"
)

// Answerer produces a canned reply and the rule that selected it
type Answerer interface {
	Answer(text string) (reply string, rule string)
}

// Session holds one conversation's history. Histories are never shared
// between sessions and only ever grow.
type Session struct {
	id       string
	mu       sync.Mutex
	messages []models.ChatMessage
	now      func() time.Time
}

// New creates an empty session with a fresh ID
func New() *Session {
	return &Session{
		id:  uuid.New().String(),
		now: time.Now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Ask records the question, answers it and records the reply
func (s *Session) Ask(a Answerer, text string) (reply string, rule string) {
	reply, rule = a.Answer(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	asked := s.now()
	s.messages = append(s.messages,
		models.ChatMessage{Text: text, IsUser: true, SentAt: asked},
		models.ChatMessage{Text: reply, IsUser: false, SentAt: s.now()},
	)
	return reply, rule
}

// Messages returns a copy of the history in order
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages...)
}

// Len returns the number of recorded messages
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
