package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/arturoeanton/supabase-guard/internal/service"
	"github.com/gofiber/fiber/v3"
)

const chatTimeout = 2 * time.Minute

// ChatHandler handles the informational assistant.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
}

// Chat answers a conversation. With "stream": true the reply is sent as
// Server-Sent Events, one token per event.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Messages []domain.ChatMessage `json:"messages"`
		Stream   bool                 `json:"stream"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return respondError(c, port.InvalidArgument("invalid request body"))
	}

	if !body.Stream {
		ctx, cancel := context.WithTimeout(c.Context(), chatTimeout)
		defer cancel()

		reply, err := h.chat.Ask(ctx, body.Messages)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"role":    "assistant",
			"content": reply,
			"model":   h.chat.Model(),
		})
	}

	// The stream outlives the handler, so it cannot use the request context.
	ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
	stream, err := h.chat.AskStream(ctx, body.Messages)
	if err != nil {
		cancel()
		return respondError(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for tok := range stream {
			data, _ := json.Marshal(fiber.Map{"content": tok})
			fmt.Fprintf(w, "data: %s\n\n", data)
			if err := w.Flush(); err != nil {
				return
			}
		}
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
		w.Flush()
	})
}
