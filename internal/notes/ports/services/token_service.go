// Package services defines service interfaces for the notes service.
package services

import (
	"context"
	"errors"
	"time"
)

// TokenService определяет интерфейс для работы с JWT токенами.
type TokenService interface {
	GenerateAccessToken(ctx context.Context, userID int64, username string) (string, time.Time, error)
	ValidateAccessToken(ctx context.Context, token string) (int64, error)
}

// JWTErrors содержит ошибки, связанные с JWT токенами.
var (
	ErrInvalidJWTToken = errors.New("invalid JWT token")
	ErrExpiredJWTToken = errors.New("JWT token has expired")
)
