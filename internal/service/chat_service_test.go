package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskForwardsConversation(t *testing.T) {
	ai := &fakeAssistant{reply: "RLS needs no code changes."}
	s := NewChatService(ai)

	reply, err := s.Ask(context.Background(), []domain.ChatMessage{
		{Role: "user", Content: "What is RLS?"},
		{Role: "assistant", Content: "   "},
		{Role: "user", Content: "Do I need code?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "RLS needs no code changes.", reply)
	require.Len(t, ai.got, 2)
	assert.Equal(t, "fake-model", s.Model())
}

func TestAskRejectsBadConversation(t *testing.T) {
	s := NewChatService(&fakeAssistant{})

	_, err := s.Ask(context.Background(), nil)
	assert.ErrorIs(t, err, port.ErrInvalidArgument)

	_, err = s.Ask(context.Background(), []domain.ChatMessage{{Role: "tool", Content: "x"}})
	assert.ErrorIs(t, err, port.ErrInvalidArgument)

	_, err = s.Ask(context.Background(), []domain.ChatMessage{{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"}})
	assert.ErrorIs(t, err, port.ErrInvalidArgument)
}

func TestAskTrimsHistoryKeepingSystem(t *testing.T) {
	ai := &fakeAssistant{reply: "ok"}
	msgs := []domain.ChatMessage{{Role: "system", Content: "be brief"}}
	for i := 0; i < maxChatTurns+5; i++ {
		msgs = append(msgs, domain.ChatMessage{Role: "user", Content: fmt.Sprintf("q%d", i)})
	}

	_, err := NewChatService(ai).Ask(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, ai.got, maxChatTurns+1)
	assert.Equal(t, "system", ai.got[0].Role)
	assert.Equal(t, fmt.Sprintf("q%d", maxChatTurns+4), ai.got[len(ai.got)-1].Content)
}

func TestAskStream(t *testing.T) {
	ai := &fakeAssistant{reply: "PITR is a paid add-on."}
	ch, err := NewChatService(ai).AskStream(context.Background(), []domain.ChatMessage{{Role: "user", Content: "PITR?"}})
	require.NoError(t, err)

	var got string
	for tok := range ch {
		got += tok
	}
	assert.Equal(t, "PITR is a paid add-on.", got)
}

func TestProjectServiceList(t *testing.T) {
	s := NewProjectService(&fakeProjects{})
	projects, err := s.List(context.Background(), cred)
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}
