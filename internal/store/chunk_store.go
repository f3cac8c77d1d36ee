package store

import (
	"context"

	"docmind/internal/models"
	"docmind/internal/rag/schema"

	"gorm.io/gorm"
)

// --- Chunk Management ---

// ReplaceChunks swaps a document's chunk rows for a new set in one
// transaction. Readers see either the old complete set or the new one.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []schema.Chunk) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&models.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		rows := make([]models.Chunk, len(chunks))
		for i, c := range chunks {
			rows[i] = models.Chunk{
				ID:         c.ID,
				DocumentID: c.DocumentID,
				UserID:     c.OwnerID,
				Content:    c.Text,
				ChunkIndex: c.Index,
				Model:      c.Model,
			}
		}
		return tx.Create(&rows).Error
	})
}

// GetChunksByIDs resolves chunk text for the given IDs, keyed by ID. IDs that
// do not exist or belong to another owner are simply absent from the result.
func (s *Store) GetChunksByIDs(ctx context.Context, ownerID string, ids []string) (map[string]schema.Chunk, error) {
	var rows []models.Chunk
	err := s.DB.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, ownerID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]schema.Chunk, len(rows))
	for _, row := range rows {
		out[row.ID] = chunkFromRow(row)
	}
	return out, nil
}

// ListChunks returns a document's chunks in chunk order.
func (s *Store) ListChunks(ctx context.Context, ownerID, documentID string) ([]schema.Chunk, error) {
	var rows []models.Chunk
	err := s.DB.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", documentID, ownerID).
		Order("chunk_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]schema.Chunk, len(rows))
	for i, row := range rows {
		out[i] = chunkFromRow(row)
	}
	return out, nil
}

func chunkFromRow(row models.Chunk) schema.Chunk {
	return schema.Chunk{
		ID:         row.ID,
		DocumentID: row.DocumentID,
		OwnerID:    row.UserID,
		Index:      row.ChunkIndex,
		Text:       row.Content,
		Model:      row.Model,
	}
}
