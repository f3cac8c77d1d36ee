package models

import "time"

// DocumentStatus tracks where a document is in the processing pipeline.
// Only StatusProcessed documents are eligible for retrieval.
type DocumentStatus string

const (
	StatusUnprocessed DocumentStatus = "unprocessed"
	StatusProcessing  DocumentStatus = "processing"
	StatusProcessed   DocumentStatus = "processed"
	StatusFailed      DocumentStatus = "failed"
)

// Document is an uploaded or pasted text owned by a user. Its chunks are
// lifetime-bound to it: deleting the document deletes the chunks, and
// reprocessing replaces the whole chunk set.
type Document struct {
	ID        string         `gorm:"primaryKey;size:36"`
	UserID    string         `gorm:"index;not null;size:36"`
	Title     string         `gorm:"not null;size:512"`
	Content   string         `gorm:"type:longtext;not null"`
	Tags      []string       `gorm:"serializer:json"`
	FilePath  string         `gorm:"size:1024"` // object storage path, empty for pasted documents
	FileType  string         `gorm:"size:16"`   // "pdf" or "txt", empty for pasted documents
	Summary   string         `gorm:"type:text"`
	Status    DocumentStatus `gorm:"not null;default:unprocessed;size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
