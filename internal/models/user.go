package models

import "time"

// User is an account that owns documents and conversations.
type User struct {
	ID             string `gorm:"primaryKey;size:36"`
	Email          string `gorm:"uniqueIndex;not null;size:255"`
	HashedPassword string `gorm:"not null;size:255"`
	IsActive       bool   `gorm:"default:true"`
	CreatedAt      time.Time
}
