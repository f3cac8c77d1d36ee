package store

import (
	"context"

	"docmind/internal/models"

	"gorm.io/gorm"
)

// --- Conversation Management ---

// CreateConversation creates a conversation row.
func (s *Store) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return s.DB.WithContext(ctx).Create(conv).Error
}

// GetConversation returns one of the owner's conversations by ID.
func (s *Store) GetConversation(ctx context.Context, ownerID, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the owner's conversations, most recently
// updated first.
func (s *Store) ListConversations(ctx context.Context, ownerID string, limit, offset int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// DeleteConversation removes one of the owner's conversations and all its
// messages.
func (s *Store) DeleteConversation(ctx context.Context, ownerID, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Conversation{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error
	})
}

// TouchConversation bumps a conversation's updated_at so recently active
// threads sort first.
func (s *Store) TouchConversation(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
