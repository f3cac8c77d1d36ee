package api

import (
	"errors"
	"net/http"

	"docmind/internal/auth"
	"docmind/internal/config"
	"docmind/internal/database/mysql"
	"docmind/internal/llm"
	"docmind/internal/models"
	"docmind/internal/rag"
	"docmind/internal/rag/embeddings"
	"docmind/internal/rag/vectorstore"
	"docmind/internal/store"
	"docmind/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
)

// Server bundles the dependencies of all HTTP handlers.
type Server struct {
	cfg     *config.AppConfig
	log     *logger.Logger
	store   *store.Store
	rag     *rag.Service
	vectors vectorstore.Store
	storage *minio.Client
	auth    *auth.Manager
}

// NewServer creates a Server.
func NewServer(
	cfg *config.AppConfig,
	log *logger.Logger,
	st *store.Store,
	ragService *rag.Service,
	vectors vectorstore.Store,
	storage *minio.Client,
	authMgr *auth.Manager,
) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		store:   st,
		rag:     ragService,
		vectors: vectors,
		storage: storage,
		auth:    authMgr,
	}
}

// respondError maps an error to the HTTP status it deserves and writes the
// JSON error envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	var embErr *embeddings.ServiceError
	var llmErr *llm.ServiceError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, rag.ErrProcessingConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, rag.ErrNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, rag.ErrNoDocument), errors.Is(err, rag.ErrEmptyDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &embErr), errors.As(err, &llmErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream model service failed"})
	default:
		s.log.Error("Unhandled error: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// userID returns the authenticated user's ID set by the auth middleware.
func userID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

// Root serves the banner.
func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

// Health reports database connectivity and basic corpus counts.
func (s *Server) Health(c *gin.Context) {
	if err := mysql.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	var users, documents int64
	if err := s.store.DB.Model(&models.User{}).Count(&users).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	if err := s.store.DB.Model(&models.Document{}).Count(&documents).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"users":     users,
		"documents": documents,
	})
}
