package models

import "time"

// Conversation is an ordered chat thread, optionally bound to one document.
// Chat requires the binding; unbound conversations are plain message logs.
type Conversation struct {
	ID         string `gorm:"primaryKey;size:36"`
	UserID     string `gorm:"index;not null;size:36"`
	DocumentID string `gorm:"index;size:36"` // optional
	Title      string `gorm:"not null;size:512"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
