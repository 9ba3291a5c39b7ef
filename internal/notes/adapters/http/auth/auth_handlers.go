// Package auth содержит HTTP обработчики регистрации, входа и сброса пароля.
package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nlnotes/internal/notes/adapters/http/dto"
	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/api"
	"nlnotes/internal/notes/ports/services"
	"nlnotes/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerRegister       = "auth handler: register"
	LogHandlerLogin          = "auth handler: login"
	LogHandlerForgotPassword = "auth handler: forgot password"

	ErrorInvalidRequest       = "invalid request"
	ErrorFailedToServeRequest = "failed to serve request"
	ErrorCredentialsRequired  = "username and password required"
	ErrorNewPasswordRequired  = "username and new_password are required"
	ErrorInternal             = "internal server error"

	MsgUserRegistered = "user registered successfully"
	MsgLoginSuccess   = "login successful"
	MsgPasswordReset  = "password reset successfully"
)

// Вспомогательная функция для обработки ошибок HTTP.
func sendErrorResponse(ctx fiber.Ctx, statusCode int, message string) error {
	if err := ctx.Status(statusCode).JSON(dto.ErrorResponse{Error: message}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// Handler содержит HTTP обработчики для авторизации.
type Handler struct {
	authUseCase api.AuthUseCase
}

// NewHandler создает новый экземпляр обработчика авторизации.
func NewHandler(authUseCase api.AuthUseCase) *Handler {
	return &Handler{
		authUseCase: authUseCase,
	}
}

// Register обрабатывает запрос на регистрацию нового пользователя.
func (h *Handler) Register(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerRegister)

	var req dto.RegisterRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorCredentialsRequired)
	}

	if _, err := h.authUseCase.Register(requestCtx, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, entities.ErrUsernameTaken):
			return sendErrorResponse(ctx, http.StatusBadRequest, entities.ErrUsernameTaken.Error())
		case errors.Is(err, entities.ErrEmptyUsername), errors.Is(err, services.ErrInvalidPassword):
			return sendErrorResponse(ctx, http.StatusBadRequest, ErrorCredentialsRequired)
		default:
			log.Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
			return sendErrorResponse(ctx, http.StatusInternalServerError, ErrorInternal)
		}
	}

	if err := ctx.Status(http.StatusCreated).JSON(dto.MessageResponse{Message: MsgUserRegistered}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Login обрабатывает запрос на вход пользователя.
func (h *Handler) Login(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerLogin)

	var req dto.LoginRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorCredentialsRequired)
	}

	result, err := h.authUseCase.Login(requestCtx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidCredentials) {
			return sendErrorResponse(ctx, http.StatusUnauthorized, entities.ErrInvalidCredentials.Error())
		}
		log.Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusInternalServerError, ErrorInternal)
	}

	response := dto.LoginResponse{
		Message:     MsgLoginSuccess,
		User:        result.User,
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
	}
	if err := ctx.Status(http.StatusOK).JSON(response); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// ForgotPassword обрабатывает запрос на сброс пароля.
func (h *Handler) ForgotPassword(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerForgotPassword)

	var req dto.ForgotPasswordRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return sendErrorResponse(ctx, http.StatusBadRequest, ErrorNewPasswordRequired)
	}

	if err := h.authUseCase.ResetPassword(requestCtx, req.Username, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, entities.ErrUserNotFound):
			return sendErrorResponse(ctx, http.StatusNotFound, entities.ErrUserNotFound.Error())
		case errors.Is(err, entities.ErrSamePassword):
			return sendErrorResponse(ctx, http.StatusBadRequest, entities.ErrSamePassword.Error())
		case errors.Is(err, services.ErrInvalidPassword):
			return sendErrorResponse(ctx, http.StatusBadRequest, ErrorNewPasswordRequired)
		default:
			log.Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
			return sendErrorResponse(ctx, http.StatusInternalServerError, ErrorInternal)
		}
	}

	if err := ctx.Status(http.StatusOK).JSON(dto.MessageResponse{Message: MsgPasswordReset}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}
