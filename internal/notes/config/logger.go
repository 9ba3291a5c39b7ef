package config

import (
	"strings"

	"nlnotes/pkg/logger"
)

// LoggingConfig содержит настройки логирования.
type LoggingConfig struct {
	Level string `yaml:"level" env:"NOTES_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"NOTES_LOGGER_MODE" env-default:"development"`
}

// GetEnvironment возвращает окружение логгера. Любой режим, кроме production, считается development.
func (l *LoggingConfig) GetEnvironment() logger.Environment {
	return EnvironmentFromMode(l.Mode)
}

// EnvironmentFromMode переводит строку режима в окружение логгера без учета регистра.
func EnvironmentFromMode(mode string) logger.Environment {
	if strings.EqualFold(strings.TrimSpace(mode), string(logger.Production)) {
		return logger.Production
	}
	return logger.Development
}
