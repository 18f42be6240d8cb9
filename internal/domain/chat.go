package domain

// ChatMessage is one turn of a conversation with the informational assistant.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
