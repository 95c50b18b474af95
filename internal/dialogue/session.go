package dialogue

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/teemow/slotkeeper/internal/instrumentation"
)

// Session is one conversation. Turns on the same session are serialized.
type Session struct {
	ID string

	mu         sync.Mutex
	transcript []openai.ChatCompletionMessage
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []openai.ChatCompletionMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionMessage(nil), s.transcript...)
}

// trim keeps at most limit messages. The kept transcript always starts at
// a user message so tool results are never separated from their call.
func trim(transcript []openai.ChatCompletionMessage, limit int) []openai.ChatCompletionMessage {
	if limit <= 0 || len(transcript) <= limit {
		return transcript
	}
	cut := len(transcript) - limit
	for cut < len(transcript) && transcript[cut].Role != openai.ChatMessageRoleUser {
		cut++
	}
	return append([]openai.ChatCompletionMessage(nil), transcript[cut:]...)
}

// Sessions tracks live sessions.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	metrics  *instrumentation.Metrics
}

// NewSessions creates an empty session registry.
func NewSessions(metrics *instrumentation.Metrics) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		metrics:  metrics,
	}
}

// Start opens a new session.
func (s *Sessions) Start(ctx context.Context) *Session {
	sess := &Session{ID: uuid.NewString()}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.metrics.IncrementActiveSessions(ctx)
	return sess
}

// Get returns the session with id.
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// End closes the session with id. Unknown ids are ignored.
func (s *Sessions) End(ctx context.Context, id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.metrics.DecrementActiveSessions(ctx)
	}
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
