// Package api defines the use cases exposed to transport adapters.
package api

import (
	"context"
	"time"

	"nlnotes/internal/notes/domain/entities"
)

// ActionResolver выполняет Intent от имени пользователя.
type ActionResolver interface {
	Resolve(ctx context.Context, userID int64, intent entities.Intent) entities.Result
}

// LoginResult - результат успешного входа.
type LoginResult struct {
	User        *entities.User
	AccessToken string
	ExpiresAt   time.Time
}

// AuthUseCase - регистрация, вход и сброс пароля.
type AuthUseCase interface {
	Register(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
	Authenticate(ctx context.Context, token string) (int64, error)
}
