package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nlnotes/internal/notes/ports/services"
	"nlnotes/pkg/logger"
)

const (
	errMsgFailedToGenerateHash = "failed to generate password hash"
	errMsgErrorComparingHash   = "error comparing password with hash"
	msgPasswordTooLong         = "password exceeds bcrypt input limit"
)

// ServiceBcrypt хэширует пароли bcrypt с фиксированной стоимостью.
type ServiceBcrypt struct {
	cost int
}

// NewBcrypt создает сервис. Стоимость вне [MinCost, MaxCost] заменяется DefaultCost.
func NewBcrypt(cost int) services.PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &ServiceBcrypt{cost: cost}
}

// Hash возвращает bcrypt-хэш непустого пароля.
func (s *ServiceBcrypt) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", services.ErrInvalidPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		logger.Log(ctx).Debug(ctx, msgPasswordTooLong, zap.Int("length", len(password)))
		return "", fmt.Errorf("%w: %w", services.ErrInvalidPassword, err)
	case err != nil:
		return "", fmt.Errorf("%s: %w: %w", errMsgFailedToGenerateHash, services.ErrHashingFailed, err)
	}

	return string(hashed), nil
}

// Verify сообщает, соответствует ли пароль хэшу. Несовпадение не является ошибкой.
func (s *ServiceBcrypt) Verify(_ context.Context, password, hash string) (bool, error) {
	if password == "" || hash == "" {
		return false, services.ErrInvalidPassword
	}

	switch err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", errMsgErrorComparingHash, err)
	}
}
