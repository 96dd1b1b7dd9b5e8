package models

import "time"

// ChatMessage is one entry of a session's chat history
type ChatMessage struct {
	Text   string    `json:"text"`
	IsUser bool      `json:"is_user"`
	SentAt time.Time `json:"sent_at"`
}

// Speaker names the side of the conversation the message came from
func (m ChatMessage) Speaker() string {
	if m.IsUser {
		return "user"
	}
	return "assistant"
}
