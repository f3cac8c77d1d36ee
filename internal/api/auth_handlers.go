package api

import (
	"errors"
	"net/http"
	"time"

	"docmind/internal/auth"
	"docmind/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Registration and Login Handlers ---

// RegisterRequest defines the JSON body of the registration request.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates a new user account.
func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.store.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.respondError(c, err)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		ID:             uuid.New().String(),
		Email:          req.Email,
		HashedPassword: hashed,
		IsActive:       true,
	}
	if err := s.store.CreateUser(c.Request.Context(), user); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

// LoginRequest defines the JSON body of the login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues the token pair.
func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.HashedPassword, req.Password) {
		// One message for both failure modes so login does not leak which
		// emails exist.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is disabled"})
		return
	}

	accessToken, err := s.auth.CreateAccessToken(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	refreshToken, err := s.auth.CreateRefreshToken(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.log.WithUser(user.ID).Info("User logged in")
	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "bearer",
		"expires_in":    s.cfg.Auth.AccessTokenTTL,
	})
}

// RefreshRequest defines the JSON body of the token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a refresh token for a new access token.
func (s *Server) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := s.auth.ParseToken(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	accessToken, err := s.auth.CreateAccessToken(userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   s.cfg.Auth.AccessTokenTTL,
	})
}

// Me returns the authenticated user's profile.
func (s *Server) Me(c *gin.Context) {
	user, err := s.store.GetUserByID(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"is_active":  user.IsActive,
		"created_at": user.CreatedAt.Format(time.RFC3339),
	})
}
