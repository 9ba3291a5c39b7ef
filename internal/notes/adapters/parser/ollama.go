// Package parser turns free-form user requests into intents using a language model.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/client"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/services"
	"nlnotes/pkg/logger"
	"nlnotes/pkg/metrics"
)

const (
	chatPath = "/api/chat"

	sourceModel = "model"

	msgParsing        = "parsing user query"
	msgParsed         = "user query parsed"
	msgParseFailed    = "failed to parse user query"
	msgBreakerChanged = "model circuit breaker state changed"
)

// Ошибки разбора.
var (
	ErrEmptyQuery      = errors.New("query text required")
	ErrModelStatus     = errors.New("unexpected model response status")
	ErrEmptyCompletion = errors.New("model returned an empty completion")
	ErrMissingAction   = errors.New("model response has no action")
)

// Config - настройки клиента модели.
type Config struct {
	BaseURL          string
	Model            string
	Temperature      float64
	Timeout          time.Duration
	BreakerInterval  time.Duration
	BreakerTimeout   time.Duration
	BreakerThreshold uint32
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   map[string]any `json:"format"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// OllamaParser разбирает запросы через Ollama chat API.
// Повторов нет: при серии отказов цепь размыкается и запросы сразу завершаются ошибкой.
type OllamaParser struct {
	http    *client.Client
	breaker *gobreaker.CircuitBreaker
	cfg     Config
	schema  map[string]any
}

// NewOllamaParser создает новый экземпляр OllamaParser.
func NewOllamaParser(cfg Config) *OllamaParser {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ollama",
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log(context.Background()).Warn(context.Background(), msgBreakerChanged,
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OllamaParser{
		http:    client.New().SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).SetTimeout(cfg.Timeout),
		breaker: breaker,
		cfg:     cfg,
		schema:  intentSchema(),
	}
}

// Parse отправляет текст модели и декодирует ответ в Intent.
func (p *OllamaParser) Parse(ctx context.Context, text string) (entities.Intent, error) {
	log := logger.Log(ctx).With(zap.String("component", "parser"), zap.String("model", p.cfg.Model))

	text = strings.TrimSpace(text)
	if text == "" {
		return entities.Intent{}, fmt.Errorf("%w: %w", services.ErrParseFailed, ErrEmptyQuery)
	}

	log.Debug(ctx, msgParsing)
	start := time.Now()

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.complete(ctx, text)
	})
	metrics.ParserDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ObserveParser(sourceModel, "error")
		log.Warn(ctx, msgParseFailed, zap.Error(err))
		return entities.Intent{}, fmt.Errorf("%w: %w", services.ErrParseFailed, err)
	}

	intent, err := decodeIntent(out.(string))
	if err != nil {
		metrics.ObserveParser(sourceModel, "invalid")
		log.Warn(ctx, msgParseFailed, zap.Error(err))
		return entities.Intent{}, fmt.Errorf("%w: %w", services.ErrParseFailed, err)
	}

	metrics.ObserveParser(sourceModel, "ok")
	log.Debug(ctx, msgParsed, zap.String("action", string(intent.Action)))
	return intent, nil
}

// complete выполняет один запрос к модели и возвращает текст ответа.
func (p *OllamaParser) complete(ctx context.Context, text string) (string, error) {
	resp, err := p.http.Post(chatPath, client.Config{
		Ctx: ctx,
		Body: chatRequest{
			Model: p.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: text},
			},
			Stream:  false,
			Format:  p.schema,
			Options: map[string]any{"temperature": p.cfg.Temperature},
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	defer resp.Close()

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: %d", ErrModelStatus, resp.StatusCode())
	}

	var reply chatResponse
	if err := resp.JSON(&reply); err != nil {
		return "", fmt.Errorf("decoding model response: %w", err)
	}

	content := strings.TrimSpace(reply.Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

func decodeIntent(content string) (entities.Intent, error) {
	var intent entities.Intent
	if err := json.Unmarshal([]byte(content), &intent); err != nil {
		return entities.Intent{}, fmt.Errorf("decoding intent: %w", err)
	}
	intent.Action = entities.Action(strings.ToLower(strings.TrimSpace(string(intent.Action))))
	if intent.Action == "" {
		return entities.Intent{}, ErrMissingAction
	}
	return intent, nil
}
