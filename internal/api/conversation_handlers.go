package api

import (
	"net/http"

	"docmind/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// --- Conversation Handlers ---

// CreateConversationRequest defines the JSON body for creating a
// conversation. DocumentID is optional; chat requires it.
type CreateConversationRequest struct {
	Title      string `json:"title" binding:"required"`
	DocumentID string `json:"document_id"`
}

// CreateConversation creates a conversation, optionally bound to one of the
// caller's documents.
func (s *Server) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := userID(c)
	if req.DocumentID != "" {
		if _, err := s.store.GetDocument(c.Request.Context(), owner, req.DocumentID); err != nil {
			s.respondError(c, err)
			return
		}
	}

	conv := &models.Conversation{
		ID:         uuid.New().String(),
		UserID:     owner,
		DocumentID: req.DocumentID,
		Title:      req.Title,
	}
	if err := s.store.CreateConversation(c.Request.Context(), conv); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversationResponse(conv))
}

// ListConversations lists the caller's conversations.
func (s *Server) ListConversations(c *gin.Context) {
	limit, offset := pagination(c)
	convs, err := s.store.ListConversations(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]gin.H, len(convs))
	for i := range convs {
		out[i] = conversationResponse(&convs[i])
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out, "count": len(out)})
}

// GetConversation returns one conversation.
func (s *Server) GetConversation(c *gin.Context) {
	conv, err := s.store.GetConversation(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationResponse(conv))
}

// DeleteConversation removes a conversation and its messages.
func (s *Server) DeleteConversation(c *gin.Context) {
	if err := s.store.DeleteConversation(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

// --- Message Handlers ---

// AddMessageRequest defines the JSON body for appending a message without
// triggering generation.
type AddMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// AddMessage appends a raw message to a conversation.
func (s *Server) AddMessage(c *gin.Context) {
	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := s.store.GetConversation(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           req.Role,
		Content:        req.Content,
	}
	if err := s.store.AppendMessage(c.Request.Context(), msg); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse(msg))
}

// ListMessages returns a conversation's messages in creation order.
func (s *Server) ListMessages(c *gin.Context) {
	conv, err := s.store.GetConversation(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	msgs, err := s.store.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]gin.H, len(msgs))
	for i := range msgs {
		out[i] = messageResponse(&msgs[i])
	}
	c.JSON(http.StatusOK, gin.H{"messages": out, "count": len(out)})
}

// --- Chat Handler ---

// ChatRequest defines the JSON body of the chat request.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// Chat answers a question grounded in the conversation's document.
func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := s.rag.Ask(c.Request.Context(), userID(c), c.Param("id"), req.Question)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse(reply))
}

// --- Helpers ---

func conversationResponse(conv *models.Conversation) gin.H {
	return gin.H{
		"id":          conv.ID,
		"title":       conv.Title,
		"document_id": conv.DocumentID,
		"created_at":  conv.CreatedAt,
		"updated_at":  conv.UpdatedAt,
	}
}

func messageResponse(msg *models.Message) gin.H {
	return gin.H{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"role":            msg.Role,
		"content":         msg.Content,
		"created_at":      msg.CreatedAt,
	}
}
