package store

import (
	"docmind/internal/models"

	"gorm.io/gorm"
)

// Store wraps the relational database. All queries are owner-scoped where a
// user ID is part of the call; a row belonging to someone else behaves
// exactly like a row that does not exist.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a new Store instance.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// AutoMigrate creates or updates the schema for every model.
func (s *Store) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.Chunk{},
		&models.Conversation{},
		&models.Message{},
	)
}
