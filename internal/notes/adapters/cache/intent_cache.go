// Package cache stores parsed intents in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/services"
)

const (
	keyPrefix = "nlnotes:intent:"

	errGetIntent    = "failed to get intent from cache"
	errDecodeIntent = "failed to decode cached intent"
	errEncodeIntent = "failed to encode intent"
	errSetIntent    = "failed to store intent in cache"
)

// IntentCache реализует services.IntentCache поверх Redis.
type IntentCache struct {
	client goredis.Cmdable
}

// NewIntentCache создает новый кэш.
func NewIntentCache(client goredis.Cmdable) *IntentCache {
	return &IntentCache{client: client}
}

// Get возвращает Intent по ключу или services.ErrCacheMiss.
func (c *IntentCache) Get(ctx context.Context, key string) (entities.Intent, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return entities.Intent{}, services.ErrCacheMiss
		}
		return entities.Intent{}, fmt.Errorf("%s: %w", errGetIntent, err)
	}

	var intent entities.Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return entities.Intent{}, fmt.Errorf("%s: %w", errDecodeIntent, err)
	}
	return intent, nil
}

// Set сохраняет Intent. Нулевой ttl означает запись без срока жизни.
func (c *IntentCache) Set(ctx context.Context, key string, intent entities.Intent, ttl time.Duration) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("%s: %w", errEncodeIntent, err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", errSetIntent, err)
	}
	return nil
}
