package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/services"
	"nlnotes/pkg/logger"
	"nlnotes/pkg/metrics"
)

const sourceCache = "cache"

// CachedParser запоминает успешные разборы. Ошибки кэша не мешают разбору.
type CachedParser struct {
	next  services.IntentParser
	cache services.IntentCache
	ttl   time.Duration
}

// NewCachedParser оборачивает next кэшем.
func NewCachedParser(next services.IntentParser, cache services.IntentCache, ttl time.Duration) *CachedParser {
	return &CachedParser{next: next, cache: cache, ttl: ttl}
}

// Parse возвращает Intent из кэша или от next.
func (p *CachedParser) Parse(ctx context.Context, text string) (entities.Intent, error) {
	log := logger.Log(ctx).With(zap.String("component", "cached_parser"))
	key := CacheKey(text)

	intent, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.ObserveParser(sourceCache, "hit")
		log.Debug(ctx, "intent cache hit")
		return intent, nil
	case errors.Is(err, services.ErrCacheMiss):
		metrics.ObserveParser(sourceCache, "miss")
	default:
		metrics.ObserveParser(sourceCache, "error")
		log.Warn(ctx, "intent cache lookup failed", zap.Error(err))
	}

	intent, err = p.next.Parse(ctx, text)
	if err != nil {
		return entities.Intent{}, err
	}

	if err := p.cache.Set(ctx, key, intent, p.ttl); err != nil {
		log.Warn(ctx, "intent cache store failed", zap.Error(err))
	}
	return intent, nil
}

// CacheKey - SHA-256 текста с нормализованными пробелами.
func CacheKey(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
