package models

import "time"

// Message roles. History is reconstructed by reading messages in creation
// order, so rows are immutable once written.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	ID             string `gorm:"primaryKey;size:36"`
	ConversationID string `gorm:"index;not null;size:36"`
	Role           string `gorm:"not null;size:16"`
	Content        string `gorm:"type:text;not null"`
	CreatedAt      time.Time
}
