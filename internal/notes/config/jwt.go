package config

import (
	"errors"
	"fmt"
	"time"
)

// MinSecretKeyLength - минимальная длина ключа подписи HS256 в байтах.
const MinSecretKeyLength = 32

// ErrWeakSecretKey возвращается, если ключ подписи короче MinSecretKeyLength.
var ErrWeakSecretKey = errors.New("jwt secret key is too short")

// JWTConfig содержит настройки для JWT токенов. Ключ подписи обязателен.
type JWTConfig struct {
	SecretKey      string        `yaml:"secret_key" env:"NOTES_JWT_SECRET_KEY" env-required:"true"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"NOTES_JWT_ACCESS_TOKEN_TTL" env-default:"24h"`
	BCryptCost     int           `yaml:"bcrypt_cost" env:"NOTES_BCRYPT_COST" env-default:"10"`
}

// Validate проверяет ключ подписи.
func (c JWTConfig) Validate() error {
	if len(c.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("%w: need at least %d bytes, got %d", ErrWeakSecretKey, MinSecretKeyLength, len(c.SecretKey))
	}
	return nil
}
