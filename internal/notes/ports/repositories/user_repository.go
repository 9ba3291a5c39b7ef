package repositories

import (
	"context"
	"time"

	"nlnotes/internal/notes/domain/entities"
)

// UserRepository определяет интерфейс для работы с пользователями.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) (int64, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	FindByID(ctx context.Context, userID int64) (*entities.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}
