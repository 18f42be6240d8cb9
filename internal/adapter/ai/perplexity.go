package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/pkg/config"
)

// SystemPrompt frames every conversation unless the caller supplies its own
// system message.
const SystemPrompt = "You are a helpful AI assistant that explains how MFA, PITR and RLS work in Supabase. " +
	"Emphasize whether programming is required to enable each feature. " +
	"For MFA, emphasize that a programmatic enrollment and challenge flow must be implemented. " +
	"For RLS, emphasize that RLS can be enabled and policies added without touching source code. " +
	"For PITR, emphasize that a paid Supabase subscription is required."

// PerplexityConfig holds the endpoint settings for the OpenAI-compatible API.
type PerplexityConfig struct {
	BaseURL string // e.g. https://api.perplexity.ai
	Model   string
	APIKey  string
}

// PerplexityProvider implements port.Assistant against the Perplexity
// chat completions API.
type PerplexityProvider struct {
	cfg        PerplexityConfig
	httpClient *http.Client
}

// NewPerplexityProvider creates a new assistant. A nil client uses a
// default one.
func NewPerplexityProvider(cfg PerplexityConfig, httpClient *http.Client) *PerplexityProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PerplexityProvider{cfg: cfg, httpClient: httpClient}
}

// ModelName returns the chat model identifier.
func (p *PerplexityProvider) ModelName() string {
	return p.cfg.Model
}

// Chat returns the complete reply.
func (p *PerplexityProvider) Chat(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	resp, err := p.send(ctx, messages, false)
	if err != nil {
		return "", fmt.Errorf("perplexity chat: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("perplexity chat decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("perplexity chat: empty response")
	}
	return out.Choices[0].Message.Content, nil
}

// ChatStream streams the reply as it is generated. The channel closes when
// the server sends [DONE], the body ends, or ctx is cancelled.
func (p *PerplexityProvider) ChatStream(ctx context.Context, messages []domain.ChatMessage) (<-chan string, error) {
	resp, err := p.send(ctx, messages, true)
	if err != nil {
		return nil, fmt.Errorf("perplexity stream: %w", err)
	}

	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return
			}

			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case ch <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (p *PerplexityProvider) send(ctx context.Context, messages []domain.ChatMessage, stream bool) (*http.Response, error) {
	if p.cfg.APIKey == "" {
		return nil, &config.MissingError{Key: "PERPLEXITY_API_KEY"}
	}

	payload := map[string]interface{}{
		"model":    p.cfg.Model,
		"messages": withSystemPrompt(messages),
		"stream":   stream,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("perplexity API error (%d): %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

func withSystemPrompt(messages []domain.ChatMessage) []domain.ChatMessage {
	for _, m := range messages {
		if m.Role == "system" {
			return messages
		}
	}
	out := make([]domain.ChatMessage, 0, len(messages)+1)
	out = append(out, domain.ChatMessage{Role: "system", Content: SystemPrompt})
	return append(out, messages...)
}
