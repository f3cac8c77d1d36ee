package models

import "time"

// Chunk is one overlapping word window of a document's text, the unit of
// embedding and retrieval. The embedding vector itself lives in the vector
// store under the same ID; the relational row is the source of truth for the
// text and ordering. UserID is denormalized so retrieval stays owner-scoped
// without a join.
//
// Chunks for a document are contiguous in ChunkIndex with no gaps. They are
// immutable once written and only ever replaced as a whole set.
type Chunk struct {
	ID         string `gorm:"primaryKey;size:36"`
	DocumentID string `gorm:"index;not null;size:36"`
	UserID     string `gorm:"index;not null;size:36"`
	Content    string `gorm:"type:text;not null"`
	ChunkIndex int    `gorm:"not null"`
	Model      string `gorm:"not null;size:64"` // embedding model that produced the stored vector
	CreatedAt  time.Time
}
