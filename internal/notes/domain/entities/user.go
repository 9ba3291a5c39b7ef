package entities

import "time"

// User - зарегистрированный пользователь.
type User struct {
	ID           int64      `json:"user_id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"last_login"`
}
