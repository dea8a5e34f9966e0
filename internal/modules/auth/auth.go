// Package auth signs operators in and guards the API with bearer tokens.
package auth

import (
	"context"
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/user"
)

const minPasswordLength = 4

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

type LoginRequest struct {
	UserID    string `json:"userId"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
}

type LoginResult struct {
	UserID      string    `json:"userId"`
	Role        user.Role `json:"role"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Permissions []string  `json:"permissions"`
	LoginTime   time.Time `json:"loginTime"`
	Message     string    `json:"message"`
}
