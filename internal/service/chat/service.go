package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/whispers/backend/internal/model/chat"
	"github.com/zhouzirui/whispers/backend/internal/model/persona"
)

var (
	ErrPersonaNotFound      = errors.New("persona not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Service keeps conversation transcripts in memory.
type Service struct {
	mu            sync.RWMutex
	personas      persona.Store
	defaultID     string
	now           func() time.Time
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message
}

// NewService 创建会话服务。defaultPersona 为空时使用 persona.DefaultID。
func NewService(personas persona.Store, defaultPersona string) *Service {
	if defaultPersona == "" {
		defaultPersona = persona.DefaultID
	}
	return &Service{
		personas:      personas,
		defaultID:     defaultPersona,
		now:           func() time.Time { return time.Now().UTC() },
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
}

// SetClock replaces the time source, used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// CreateConversation opens a transcript with the persona's opening line.
func (s *Service) CreateConversation(_ context.Context, personaID string) (chat.Conversation, []chat.Message, error) {
	p, ok := persona.Resolve(s.personas, personaID, s.defaultID)
	if !ok {
		return chat.Conversation{}, nil, ErrPersonaNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	conv := chat.Conversation{ID: uuid.NewString(), PersonaID: p.ID, CreatedAt: now}
	opening := chat.Message{ID: uuid.NewString(), Text: p.OpeningLine, Sender: chat.SenderCompanion, Timestamp: now}

	s.conversations[conv.ID] = conv
	s.messages[conv.ID] = append(make([]chat.Message, 0, 16), opening)
	return conv, []chat.Message{opening}, nil
}

// AppendMessage adds a line to the transcript and returns it with id and timestamp set.
func (s *Service) AppendMessage(_ context.Context, conversationID string, sender chat.Sender, text string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return chat.Message{}, ErrConversationNotFound
	}

	msg := chat.Message{ID: uuid.NewString(), Text: text, Sender: sender, Timestamp: s.now()}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	return msg, nil
}

// Conversation retrieves a conversation by identifier.
func (s *Service) Conversation(_ context.Context, conversationID string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return chat.Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}

// Transcript returns a copy of the stored messages.
func (s *Service) Transcript(_ context.Context, conversationID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Count 返回该会话中某一发送方的消息数。
func (s *Service) Count(conversationID string, sender chat.Sender) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages[conversationID] {
		if m.Sender == sender {
			n++
		}
	}
	return n
}
