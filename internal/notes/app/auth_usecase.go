package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/api"
	"nlnotes/internal/notes/ports/repositories"
	svc "nlnotes/internal/notes/ports/services"
	"nlnotes/pkg/logger"
)

const (
	methodRegister      = "Register"
	methodLogin         = "Login"
	methodResetPassword = "ResetPassword"

	msgStartRegistration = "starting user registration"
	msgEmptyUsername     = "empty username provided"
	msgInvalidPassword   = "invalid password"
	msgUsernameTaken     = "username already taken"
	msgUserRegistered    = "user registered successfully"
	msgLoginAttempt      = "login attempt"
	msgLoginUnknownUser  = "login attempt with unknown username"
	msgWrongPassword     = "invalid password provided"
	msgUserLoggedIn      = "user logged in successfully"
	msgResetUnknownUser  = "password reset for unknown username"
	msgSamePassword      = "new password equals the current one"
	msgPasswordReset     = "password reset successfully"

	msgErrHashPassword      = "failed to hash password"
	msgErrCreateUser        = "failed to create user"
	msgErrFindingUser       = "error finding user by username"
	msgErrVerifyingPassword = "error verifying password"
	msgErrGenerateToken     = "failed to generate access token"
	msgErrUpdateLastLogin   = "failed to update last login"
	msgErrUpdatePassword    = "failed to update password"

	errCtxValidatingUsername = "validating username"
	errCtxValidatingPassword = "validating password"
	errCtxHashingPassword    = "hashing password"
	errCtxCreatingUser       = "creating user"
	errCtxFindingUser        = "finding user"
	errCtxVerifyingPassword  = "verifying password"
	errCtxGeneratingToken    = "generating token"
	errCtxUpdatingLogin      = "updating last login"
	errCtxUpdatingPassword   = "updating password"
	errCtxAuthenticating     = "authenticating"
)

// AuthUseCaseImpl реализует интерфейс AuthUseCase.
type AuthUseCaseImpl struct {
	userRepo    repositories.UserRepository
	passwordSvc svc.PasswordService
	tokenSvc    svc.TokenService
	now         func() time.Time
}

// NewAuthUseCase создает новый экземпляр сервиса аутентификации.
func NewAuthUseCase(
	userRepo repositories.UserRepository,
	passwordSvc svc.PasswordService,
	tokenSvc svc.TokenService,
) *AuthUseCaseImpl {
	return &AuthUseCaseImpl{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		now:         time.Now,
	}
}

// Register создает нового пользователя.
func (a *AuthUseCaseImpl) Register(ctx context.Context, username, password string) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", methodRegister), zap.String("username", username))
	log.Debug(ctx, msgStartRegistration)

	username = strings.TrimSpace(username)
	if username == "" {
		log.Debug(ctx, msgEmptyUsername)
		return 0, fmt.Errorf("%s: %w", errCtxValidatingUsername, entities.ErrEmptyUsername)
	}
	if password == "" {
		log.Debug(ctx, msgInvalidPassword)
		return 0, fmt.Errorf("%s: %w", errCtxValidatingPassword, svc.ErrInvalidPassword)
	}

	hash, err := a.passwordSvc.Hash(ctx, password)
	if err != nil {
		log.Error(ctx, msgErrHashPassword, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}

	id, err := a.userRepo.Create(ctx, &entities.User{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, entities.ErrUsernameTaken) {
			log.Debug(ctx, msgUsernameTaken)
		} else {
			log.Error(ctx, msgErrCreateUser, zap.Error(err))
		}
		return 0, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	log.Info(ctx, msgUserRegistered, zap.Int64("userID", id))
	return id, nil
}

// Login проверяет учетные данные, фиксирует время входа и выпускает токен доступа.
func (a *AuthUseCaseImpl) Login(ctx context.Context, username, password string) (*api.LoginResult, error) {
	log := logger.Log(ctx).With(zap.String("method", methodLogin), zap.String("username", username))
	log.Debug(ctx, msgLoginAttempt)

	user, err := a.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			log.Debug(ctx, msgLoginUnknownUser)
			return nil, entities.ErrInvalidCredentials
		}
		log.Error(ctx, msgErrFindingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	ok, err := a.passwordSvc.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, svc.ErrInvalidPassword) {
			log.Debug(ctx, msgWrongPassword)
			return nil, entities.ErrInvalidCredentials
		}
		log.Error(ctx, msgErrVerifyingPassword, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxVerifyingPassword, err)
	}
	if !ok {
		log.Debug(ctx, msgWrongPassword)
		return nil, entities.ErrInvalidCredentials
	}

	now := a.now().UTC()
	if err := a.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Error(ctx, msgErrUpdateLastLogin, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxUpdatingLogin, err)
	}
	user.LastLogin = &now

	token, expiresAt, err := a.tokenSvc.GenerateAccessToken(ctx, user.ID, user.Username)
	if err != nil {
		log.Error(ctx, msgErrGenerateToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingToken, err)
	}

	log.Info(ctx, msgUserLoggedIn, zap.Int64("userID", user.ID))
	return &api.LoginResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// ResetPassword заменяет пароль пользователя. Новый пароль должен отличаться от текущего.
func (a *AuthUseCaseImpl) ResetPassword(ctx context.Context, username, newPassword string) error {
	log := logger.Log(ctx).With(zap.String("method", methodResetPassword), zap.String("username", username))

	if newPassword == "" {
		log.Debug(ctx, msgInvalidPassword)
		return fmt.Errorf("%s: %w", errCtxValidatingPassword, svc.ErrInvalidPassword)
	}

	user, err := a.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			log.Debug(ctx, msgResetUnknownUser)
		} else {
			log.Error(ctx, msgErrFindingUser, zap.Error(err))
		}
		return fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	same, err := a.passwordSvc.Verify(ctx, newPassword, user.PasswordHash)
	if err != nil {
		log.Error(ctx, msgErrVerifyingPassword, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxVerifyingPassword, err)
	}
	if same {
		log.Debug(ctx, msgSamePassword)
		return entities.ErrSamePassword
	}

	hash, err := a.passwordSvc.Hash(ctx, newPassword)
	if err != nil {
		log.Error(ctx, msgErrHashPassword, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}

	if err := a.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		log.Error(ctx, msgErrUpdatePassword, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxUpdatingPassword, err)
	}

	log.Info(ctx, msgPasswordReset, zap.Int64("userID", user.ID))
	return nil
}

// Authenticate проверяет токен доступа и возвращает ID пользователя.
func (a *AuthUseCaseImpl) Authenticate(ctx context.Context, token string) (int64, error) {
	userID, err := a.tokenSvc.ValidateAccessToken(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtxAuthenticating, err)
	}
	return userID, nil
}
