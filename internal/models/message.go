// Package models defines the data structures shared by the Gepetto proxy, client and chat UI.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is a reference to a local file picked in the chat UI.
// Attachments are shown alongside the message but never uploaded.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Message is a single entry in the in-memory conversation.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// NewMessage creates a message with a fresh UUID.
func NewMessage(role Role, content string, createdAt time.Time, attachments []Attachment) Message {
	return Message{
		ID:          uuid.New().String(),
		Role:        role,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   createdAt,
	}
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
