// Package dto содержит объекты передачи данных HTTP API.
package dto

import (
	"time"

	"nlnotes/internal/notes/domain/entities"
)

// RegisterRequest содержит данные для регистрации пользователя.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest содержит данные для входа пользователя.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest содержит данные для сброса пароля.
type ForgotPasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// MessageResponse - ответ с текстовым сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse - ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginResponse содержит данные о токене и пользователе.
type LoginResponse struct {
	Message     string         `json:"message"`
	User        *entities.User `json:"user"`
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
}
