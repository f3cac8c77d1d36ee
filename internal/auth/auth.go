// Package auth covers password hashing and JWT issuing/verification.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "type" claim. Refresh tokens are only good for
// minting new access tokens; they never authorize an API call directly.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken covers every way a token can fail verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType is returned when a refresh token is presented where
	// an access token is required, or the other way around.
	ErrWrongTokenType = errors.New("wrong token type")
)

// HashPassword hashes a password with bcrypt. bcrypt only reads the first 72
// bytes, so longer passwords are rejected rather than silently truncated.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", errors.New("password longer than 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// Manager issues and verifies the two JWT kinds.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates a Manager.
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// CreateAccessToken issues a short-lived access token for the user.
func (m *Manager) CreateAccessToken(userID string) (string, error) {
	return m.createToken(userID, TokenTypeAccess, m.accessTTL)
}

// CreateRefreshToken issues a long-lived refresh token for the user.
func (m *Manager) CreateRefreshToken(userID string) (string, error) {
	return m.createToken(userID, TokenTypeRefresh, m.refreshTTL)
}

func (m *Manager) createToken(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies a token of the expected type and returns the user ID.
func (m *Manager) ParseToken(tokenString, expectedType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != expectedType {
		return "", ErrWrongTokenType
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}
