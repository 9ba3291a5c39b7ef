// Package entities defines the domain entities for the notes service.
package entities

import (
	"time"
	"unicode/utf8"
)

// MaxTopicLength - предельная длина темы в символах, совпадает с колонкой notes.topic.
const MaxTopicLength = 255

// Note - заметка пользователя. Принадлежит ровно одному пользователю.
type Note struct {
	ID         int64     `json:"note_id"`
	UserID     int64     `json:"user_id"`
	Topic      string    `json:"topic"`
	Message    string    `json:"message"`
	LastUpdate time.Time `json:"last_update"`
}

// NewNote создает заметку с отметкой последнего изменения now.
func NewNote(userID int64, topic, message string, now time.Time) *Note {
	return &Note{
		UserID:     userID,
		Topic:      topic,
		Message:    message,
		LastUpdate: now,
	}
}

// Touch обновляет отметку последнего изменения.
func (n *Note) Touch(now time.Time) {
	n.LastUpdate = now
}

// ValidTopicLength сообщает, помещается ли тема в MaxTopicLength символов.
func ValidTopicLength(topic string) bool {
	return utf8.RuneCountInString(topic) <= MaxTopicLength
}
