package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// maxChatTurns bounds the history forwarded to the assistant.
const maxChatTurns = 20

// ChatService answers informational questions about the checks.
type ChatService struct {
	ai port.Assistant
}

// NewChatService creates a new chat service.
func NewChatService(ai port.Assistant) *ChatService {
	return &ChatService{ai: ai}
}

// Model returns the assistant's model identifier.
func (s *ChatService) Model() string {
	return s.ai.ModelName()
}

// Ask returns the complete reply to the conversation.
func (s *ChatService) Ask(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	msgs, err := prepareConversation(messages)
	if err != nil {
		return "", err
	}
	slog.Info("assistant query", "model", s.ai.ModelName(), "turns", len(msgs))

	reply, err := s.ai.Chat(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}

// AskStream streams the reply token-by-token.
func (s *ChatService) AskStream(ctx context.Context, messages []domain.ChatMessage) (<-chan string, error) {
	msgs, err := prepareConversation(messages)
	if err != nil {
		return nil, err
	}
	slog.Info("assistant stream", "model", s.ai.ModelName(), "turns", len(msgs))

	stream, err := s.ai.ChatStream(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}
	return stream, nil
}

// prepareConversation validates roles, drops empty turns and keeps the
// system message plus the most recent turns.
func prepareConversation(messages []domain.ChatMessage) ([]domain.ChatMessage, error) {
	var system []domain.ChatMessage
	var turns []domain.ChatMessage
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case "system":
			system = []domain.ChatMessage{m}
		case "user", "assistant":
			turns = append(turns, m)
		default:
			return nil, port.InvalidArgument("unsupported message role %q", m.Role)
		}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return nil, port.InvalidArgument("conversation must end with a user message")
	}
	if len(turns) > maxChatTurns {
		turns = turns[len(turns)-maxChatTurns:]
	}
	return append(system, turns...), nil
}
