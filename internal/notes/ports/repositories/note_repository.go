// Package repositories defines repository interfaces for the notes service.
package repositories

import (
	"context"

	"nlnotes/internal/notes/domain/entities"
)

// NoteOrder задает порядок выдачи заметок.
type NoteOrder int

const (
	// OrderRecent - по убыванию last_update, затем id.
	OrderRecent NoteOrder = iota
	// OrderLowestID - по возрастанию id. Используется для выбора заметки по теме.
	OrderLowestID
)

// NoteFilter сужает выборку заметок владельца. Все заданные условия объединяются по И.
// Topic - подстрока темы без учета регистра, Search - подстрока темы или текста.
type NoteFilter struct {
	ID     *int64
	Topic  string
	Search string
	Order  NoteOrder
	Limit  int
}

// NoteRepository определяет интерфейс для работы с репозиторием заметок.
// Каждый метод ограничен заметками одного пользователя.
type NoteRepository interface {
	FindByID(ctx context.Context, userID, noteID int64) (*entities.Note, error)
	FindByOwner(ctx context.Context, userID int64, filter NoteFilter) ([]*entities.Note, error)
	Insert(ctx context.Context, note *entities.Note) (int64, error)
	Update(ctx context.Context, note *entities.Note) error
	Delete(ctx context.Context, userID, noteID int64) error
}

// UnitOfWork выполняет fn в одной транзакции хранилища.
// Ошибка fn откатывает все изменения.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, notes NoteRepository) error) error
}
