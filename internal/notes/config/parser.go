package config

import "time"

// ParserConfig - настройки разбора запросов языковой моделью.
type ParserConfig struct {
	BaseURL          string        `yaml:"base_url" env:"NOTES_OLLAMA_URL" env-default:"http://localhost:11434"`
	Model            string        `yaml:"model" env:"NOTES_OLLAMA_MODEL" env-default:"llama3"`
	Temperature      float64       `yaml:"temperature" env:"NOTES_OLLAMA_TEMPERATURE" env-default:"0.1"`
	Timeout          time.Duration `yaml:"timeout" env:"NOTES_OLLAMA_TIMEOUT" env-default:"30s"`
	BreakerThreshold uint32        `yaml:"breaker_threshold" env:"NOTES_OLLAMA_BREAKER_THRESHOLD" env-default:"5"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" env:"NOTES_OLLAMA_BREAKER_TIMEOUT" env-default:"30s"`
	BreakerInterval  time.Duration `yaml:"breaker_interval" env:"NOTES_OLLAMA_BREAKER_INTERVAL" env-default:"60s"`
	CacheEnabled     bool          `yaml:"cache_enabled" env:"NOTES_PARSER_CACHE_ENABLED" env-default:"true"`
	CacheTTL         time.Duration `yaml:"cache_ttl" env:"NOTES_PARSER_CACHE_TTL" env-default:"1h"`
}
