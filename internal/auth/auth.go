// Package auth handles local sessions. Passwords are verified against the
// backend when it is reachable; a bcrypt hash cached from the last
// successful online login allows signing in while offline.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/taxilog/taxilog/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service issues and validates session tokens.
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService creates an auth service with the given signing secret and
// session lifetime.
func NewService(secret string, expiry time.Duration) *Service {
	return &Service{secret: []byte(secret), expiry: expiry}
}

// HashPassword returns the bcrypt hash to cache for offline logins.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password against a cached hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

type sessionClaims struct {
	Username string `json:"username"`
	Offline  bool   `json:"offline"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token. offline marks sessions established
// against the cached credential rather than the backend.
func (s *Service) GenerateToken(username string, offline bool) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Username: username,
		Offline:  offline,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return &models.Claims{
		Username: claims.Username,
		Offline:  claims.Offline,
		Exp:      claims.ExpiresAt.Unix(),
	}, nil
}
