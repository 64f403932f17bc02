// Package chat maintains the conversational assistant transcript and
// exchanges it with the backend.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"photodeck/internal/api"
	"photodeck/internal/model"
	"photodeck/internal/session"
)

// greeting opens every transcript. It is synthetic and never sent to the
// backend as history.
const greeting = "Hi! I'm your photo assistant. Ask me anything about your photos."

// Session holds one conversation transcript. Entries are append-only; the
// transcript is cleared only by starting a new session.
type Session struct {
	client   *api.Client
	auth     *session.Store
	logger   *zap.Logger
	provider string

	mu       sync.Mutex
	messages []model.ChatMessage
	pending  bool
}

// NewSession creates a transcript seeded with the greeting and subscribes it
// to session events so a logout starts a fresh conversation.
func NewSession(client *api.Client, auth *session.Store, provider string, logger *zap.Logger) *Session {
	s := &Session{client: client, auth: auth, provider: provider, logger: logger}
	s.seed()
	auth.Subscribe(func(ev session.Event) {
		if ev == session.EventDeauthenticated {
			s.Reset()
		}
	})
	return s
}

func (s *Session) seed() {
	s.messages = []model.ChatMessage{{
		ID:        ulid.Make().String(),
		Role:      model.RoleBot,
		Content:   greeting,
		Status:    model.DeliverySent,
		CreatedAt: time.Now(),
	}}
}

// Reset starts a new conversation, keeping only a fresh greeting.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed()
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Pending reports whether a send is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Send submits one user message. Blank messages and overlapping sends are
// no-ops. The user entry is appended optimistically before the request; on
// failure it stays in the transcript marked failed, with no bot reply.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil
	}
	s.pending = true

	// History is the prior transcript minus the synthetic greeting, as bare
	// role/content pairs.
	history := make([]api.ChatTurn, 0, len(s.messages)-1)
	for _, m := range s.messages[1:] {
		history = append(history, api.ChatTurn{Role: string(m.Role), Content: m.Content})
	}

	userMsg := model.ChatMessage{
		ID:        ulid.Make().String(),
		Role:      model.RoleUser,
		Content:   text,
		Status:    model.DeliveryPending,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, userMsg)
	s.mu.Unlock()

	reply, err := s.client.Chat(ctx, text, history, s.provider)

	s.mu.Lock()
	idx := s.indexOf(userMsg.ID)
	switch {
	case idx < 0:
		// The transcript was reset while the request was in flight; the
		// reply belongs to a dead conversation.
		s.logger.Debug("Discarding chat reply for reset transcript")
	case err != nil:
		s.messages[idx].Status = model.DeliveryFailed
	default:
		s.messages[idx].Status = model.DeliverySent
		s.messages = append(s.messages, model.ChatMessage{
			ID:        ulid.Make().String(),
			Role:      model.RoleBot,
			Content:   reply.Answer,
			Status:    model.DeliverySent,
			CreatedAt: time.Now(),
		})
	}
	s.pending = false
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Chat send failed", zap.Error(err))
		if errors.Is(err, api.ErrUnauthorized) {
			s.auth.Invalidate()
		}
	}
	return err
}

func (s *Session) indexOf(id string) int {
	for i, m := range s.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}
