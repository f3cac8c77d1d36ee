package store

import (
	"context"

	"docmind/internal/models"
)

// --- Message Management ---

// AppendMessage appends one turn to a conversation. Messages are immutable
// once written.
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

// ListMessages returns a conversation's messages in creation order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// RecentMessages returns the last n messages of a conversation in creation
// order. Fetches newest-first with a limit, then reverses in memory.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, n int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
