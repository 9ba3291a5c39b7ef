package services

import (
	"context"
	"errors"
	"time"

	"nlnotes/internal/notes/domain/entities"
)

// ErrParseFailed - запрос не удалось превратить в Intent.
var ErrParseFailed = errors.New("could not understand request")

// ErrCacheMiss - в кэше нет записи.
var ErrCacheMiss = errors.New("intent cache miss")

// IntentParser превращает текст пользователя в Intent.
type IntentParser interface {
	Parse(ctx context.Context, text string) (entities.Intent, error)
}

// IntentCache хранит результаты разбора.
type IntentCache interface {
	Get(ctx context.Context, key string) (entities.Intent, error)
	Set(ctx context.Context, key string, intent entities.Intent, ttl time.Duration) error
}
