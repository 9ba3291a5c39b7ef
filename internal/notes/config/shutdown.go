package config

import "time"

// ShutdownConfig ограничивает время корректной остановки.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"NOTES_GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"5s"`
}
