package port

import (
	"context"

	"github.com/arturoeanton/supabase-guard/internal/domain"
)

// Assistant abstracts the conversational backend that answers informational
// questions about RLS, MFA and PITR.
type Assistant interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Chat returns the complete reply to the conversation.
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)

	// ChatStream streams the reply token-by-token via channel.
	ChatStream(ctx context.Context, messages []domain.ChatMessage) (<-chan string, error)
}
