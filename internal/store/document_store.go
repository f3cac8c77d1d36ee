package store

import (
	"context"

	"docmind/internal/models"

	"gorm.io/gorm"
)

// --- Document Management ---

// CreateDocument creates a document row.
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	return s.DB.WithContext(ctx).Create(doc).Error
}

// GetDocument returns one of the owner's documents by ID.
func (s *Store) GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	var doc models.Document
	if err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns the owner's documents, most recently updated first.
func (s *Store) ListDocuments(ctx context.Context, ownerID string, limit, offset int) ([]models.Document, error) {
	var docs []models.Document
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// SearchDocuments returns the owner's documents whose title, content or tags
// contain the query substring, most recently updated first.
func (s *Store) SearchDocuments(ctx context.Context, ownerID, query string, limit, offset int) ([]models.Document, error) {
	var docs []models.Document
	pattern := "%" + query + "%"
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Where("title LIKE ? OR content LIKE ? OR tags LIKE ?", pattern, pattern, pattern).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateDocument saves the full document row.
func (s *Store) UpdateDocument(ctx context.Context, doc *models.Document) error {
	return s.DB.WithContext(ctx).Save(doc).Error
}

// DeleteDocument removes one of the owner's documents together with its
// chunk rows. The caller is responsible for the vector-store side.
func (s *Store) DeleteDocument(ctx context.Context, ownerID, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Document{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("document_id = ?", id).Delete(&models.Chunk{}).Error
	})
}

// TryMarkProcessing atomically claims a document for processing. It returns
// true when this caller won the claim, and false when the document is already
// being processed or does not belong to the owner. The guarded UPDATE is the
// whole mutual-exclusion mechanism: two concurrent claims race on one SQL
// statement, and exactly one sees an affected row.
func (s *Store) TryMarkProcessing(ctx context.Context, ownerID, id string) (bool, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND user_id = ? AND status <> ?", id, ownerID, models.StatusProcessing).
		Update("status", models.StatusProcessing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FinishProcessing records the terminal status of a processing run and the
// generated summary, if any.
func (s *Store) FinishProcessing(ctx context.Context, id string, status models.DocumentStatus, summary string) error {
	updates := map[string]interface{}{"status": status}
	if summary != "" {
		updates["summary"] = summary
	}
	return s.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}
