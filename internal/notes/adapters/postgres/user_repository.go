package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/repositories"
	"nlnotes/pkg/logger"
)

const (
	errCreateUser     = "error creating user"
	errQueryUser      = "error querying user"
	errUpdateLogin    = "error updating last login"
	errUpdatePassword = "error updating password"

	uniqueViolation = "23505"

	selectUsers = `SELECT id, username, password_hash, last_login FROM users`
)

// UserRepository реализует интерфейс repositories.UserRepository для работы с Postgres.
type UserRepository struct {
	db DBTX
}

// NewUserRepository создает новый экземпляр репозитория пользователей.
func NewUserRepository(db DBTX) repositories.UserRepository {
	return &UserRepository{db: db}
}

// Create создает нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "Create"))

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		user.Username, user.PasswordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			log.Debug(ctx, "username already taken", zap.String("username", user.Username))
			return 0, entities.ErrUsernameTaken
		}
		log.Error(ctx, errCreateUser, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errCreateUser, err)
	}

	return id, nil
}

// FindByUsername находит пользователя по имени.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, "FindByUsername", selectUsers+` WHERE username = $1`, username)
}

// FindByID находит пользователя по ID.
func (r *UserRepository) FindByID(ctx context.Context, userID int64) (*entities.User, error) {
	return r.findOne(ctx, "FindByID", selectUsers+` WHERE id = $1`, userID)
}

func (r *UserRepository) findOne(ctx context.Context, method, query string, arg interface{}) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", method))

	var user entities.User
	var lastLogin *time.Time
	err := r.db.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.PasswordHash, &lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "user not found")
			return nil, entities.ErrUserNotFound
		}
		log.Error(ctx, errQueryUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errQueryUser, err)
	}
	user.LastLogin = lastLogin

	return &user, nil
}

// UpdateLastLogin фиксирует время успешного входа.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.exec(ctx, "UpdateLastLogin", errUpdateLogin,
		`UPDATE users SET last_login = $1 WHERE id = $2`, at, userID)
}

// UpdatePassword заменяет хеш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.exec(ctx, "UpdatePassword", errUpdatePassword,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
}

func (r *UserRepository) exec(ctx context.Context, method, errMsg, query string, args ...interface{}) error {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", method))

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		log.Error(ctx, errMsg, zap.Error(err))
		return fmt.Errorf("%s: %w", errMsg, err)
	}
	if result.RowsAffected() == 0 {
		log.Debug(ctx, "user not found for update")
		return entities.ErrUserNotFound
	}

	return nil
}
