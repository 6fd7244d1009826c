package nlquery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a chat transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	SQL       string    `json:"sql,omitempty"`
	Error     bool      `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session keeps the transcript of one conversation with an Engine.
type Session struct {
	ID       string    `json:"id"`
	Started  time.Time `json:"started"`
	Messages []Message `json:"messages"`

	engine *Engine
}

func NewSession(engine *Engine) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Started: time.Now().UTC(),
		engine:  engine,
	}
}

// Ask records the question, answers it and records the reply. Failures are
// recorded as assistant messages and also returned.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	s.append(Message{Role: RoleUser, Content: question})

	answer, err := s.engine.Ask(ctx, question)
	if err != nil {
		msg := s.engine.Explain(ctx, question, err)
		s.append(Message{Role: RoleAssistant, Content: msg, Error: true})
		return answer, err
	}

	s.append(Message{Role: RoleAssistant, Content: answer.Text, SQL: answer.SQL})
	return answer, nil
}

func (s *Session) append(m Message) {
	m.Timestamp = time.Now().UTC()
	s.Messages = append(s.Messages, m)
}

// LastReply returns the most recent assistant message.
func (s *Session) LastReply() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Save writes the transcript as indented JSON.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
