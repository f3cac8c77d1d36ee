package store

import (
	"context"

	"docmind/internal/models"
)

// --- User Management ---

// CreateUser creates a new user account.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Create(user).Error
}

// GetUserByEmail looks a user up by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID looks a user up by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
