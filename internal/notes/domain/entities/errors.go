package entities

import "errors"

// Ошибки резолвера действий. Текст ошибок возвращается клиенту как есть.
var (
	ErrTopicAndMessageRequired = errors.New("for create, both topic and message are required")
	ErrTopicTooLong            = errors.New("topic must be at most 255 characters")
	ErrLocatorRequired         = errors.New("specify note_id or topic")
	ErrNoteNotFound            = errors.New("note not found")
	ErrUnknownAction           = errors.New("unknown action")
)

// Ошибки пользователей.
var (
	ErrEmptyUsername      = errors.New("username cannot be empty")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSamePassword       = errors.New("new password cannot be the same as your current (old) password")
)
