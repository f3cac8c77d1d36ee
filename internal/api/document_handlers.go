package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"

	"docmind/internal/extract"
	"docmind/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// maxUploadBytes caps uploaded file size at 5 MB.
const maxUploadBytes = 5 << 20

// chunkPreviewChars bounds the chunk text returned by the inspection
// endpoint.
const chunkPreviewChars = 200

// --- Document Handlers ---

// CreateDocumentRequest defines the JSON body for creating a document from
// pasted text.
type CreateDocumentRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags"`
}

// CreateDocument creates a document from pasted text.
func (s *Server) CreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := &models.Document{
		ID:      uuid.New().String(),
		UserID:  userID(c),
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Status:  models.StatusUnprocessed,
	}
	if err := s.store.CreateDocument(c.Request.Context(), doc); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, documentResponse(doc))
}

// UploadDocument accepts a PDF or TXT file, stores the original in object
// storage and creates a document from its extracted text.
func (s *Server) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the 5 MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the 5 MB limit"})
		return
	}

	kind, err := extract.DetectKind(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text, err := extract.Text(data, kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := userID(c)
	objectPath := fmt.Sprintf("%s/%s/%s", owner, uuid.New().String(), path.Base(fileHeader.Filename))
	_, err = s.storage.PutObject(c.Request.Context(), s.cfg.Databases.MinIO.Bucket, objectPath,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.log.Error("Object upload failed: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}
	doc := &models.Document{
		ID:       uuid.New().String(),
		UserID:   owner,
		Title:    title,
		Content:  text,
		FilePath: objectPath,
		FileType: kind,
		Status:   models.StatusUnprocessed,
	}
	if err := s.store.CreateDocument(c.Request.Context(), doc); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, documentResponse(doc))
}

// ListDocuments lists the caller's documents.
func (s *Server) ListDocuments(c *gin.Context) {
	limit, offset := pagination(c)
	docs, err := s.store.ListDocuments(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentListResponse(docs))
}

// SearchDocuments searches the caller's documents by substring.
func (s *Server) SearchDocuments(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
		return
	}
	limit, offset := pagination(c)
	docs, err := s.store.SearchDocuments(c.Request.Context(), userID(c), query, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentListResponse(docs))
}

// GetDocument returns one document with its full content.
func (s *Server) GetDocument(c *gin.Context) {
	doc, err := s.store.GetDocument(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp := documentResponse(doc)
	resp["content"] = doc.Content
	c.JSON(http.StatusOK, resp)
}

// UpdateDocumentRequest defines the JSON body for a partial document update.
type UpdateDocumentRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

// UpdateDocument applies a partial update. Changing the content invalidates
// the chunk set, so the status drops back to unprocessed.
func (s *Server) UpdateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := s.store.GetDocument(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Tags != nil {
		doc.Tags = *req.Tags
	}
	if req.Content != nil && *req.Content != doc.Content {
		doc.Content = *req.Content
		doc.Status = models.StatusUnprocessed
		doc.Summary = ""
	}

	if err := s.store.UpdateDocument(c.Request.Context(), doc); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentResponse(doc))
}

// DeleteDocument removes a document, its chunk rows and its vectors.
func (s *Server) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteDocument(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.vectors.DeleteDocument(c.Request.Context(), id); err != nil {
		// The rows are gone, so the document is unreachable either way; the
		// orphaned vectors are invisible to retrieval and get replaced on
		// any future reuse of the document ID.
		s.log.Warn(fmt.Sprintf("Failed to delete vectors for document %s: %v", id, err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

// ProcessDocument runs the indexing pipeline on a document.
func (s *Server) ProcessDocument(c *gin.Context) {
	count, summary, err := s.rag.Process(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      string(models.StatusProcessed),
		"chunk_count": count,
		"summary":     summary,
	})
}

// ListChunks returns a document's chunks with truncated previews.
func (s *Server) ListChunks(c *gin.Context) {
	owner := userID(c)
	id := c.Param("id")
	if _, err := s.store.GetDocument(c.Request.Context(), owner, id); err != nil {
		s.respondError(c, err)
		return
	}

	chunks, err := s.store.ListChunks(c.Request.Context(), owner, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]gin.H, len(chunks))
	for i, chunk := range chunks {
		out[i] = gin.H{
			"id":      chunk.ID,
			"index":   chunk.Index,
			"preview": truncateRunes(chunk.Text, chunkPreviewChars),
		}
	}
	c.JSON(http.StatusOK, gin.H{"chunks": out, "count": len(out)})
}

// --- Helpers ---

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// truncateRunes cuts s to at most max characters on a rune boundary, so
// multi-byte text never comes back with a broken trailing sequence.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func documentResponse(doc *models.Document) gin.H {
	return gin.H{
		"id":         doc.ID,
		"title":      doc.Title,
		"tags":       doc.Tags,
		"file_type":  doc.FileType,
		"summary":    doc.Summary,
		"status":     string(doc.Status),
		"created_at": doc.CreatedAt,
		"updated_at": doc.UpdatedAt,
	}
}

func documentListResponse(docs []models.Document) gin.H {
	out := make([]gin.H, len(docs))
	for i := range docs {
		out[i] = documentResponse(&docs[i])
	}
	return gin.H{"documents": out, "count": len(out)}
}
