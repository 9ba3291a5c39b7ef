// Package memory provides an in-process storage driver for development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/repositories"
)

// Store хранит пользователей и заметки в памяти.
// Операции с заметками выполняются только внутри Do и сериализованы.
type Store struct {
	mu         sync.Mutex
	notes      map[int64]entities.Note
	nextNoteID int64

	usersMu    sync.RWMutex
	users      map[int64]entities.User
	nextUserID int64
}

// NewStore создает пустое хранилище.
func NewStore() *Store {
	return &Store{
		notes: make(map[int64]entities.Note),
		users: make(map[int64]entities.User),
	}
}

// Do выполняет fn под эксклюзивной блокировкой. Если fn вернула ошибку,
// состояние заметок восстанавливается.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, notes repositories.NoteRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := maps.Clone(s.notes)
	nextID := s.nextNoteID

	if err := fn(ctx, &noteTx{store: s}); err != nil {
		s.notes = snapshot
		s.nextNoteID = nextID
		return err
	}
	return nil
}

// Users возвращает репозиторий пользователей.
func (s *Store) Users() repositories.UserRepository {
	return &userRepository{store: s}
}

// noteTx работает с картой заметок. Блокировку держит Do.
type noteTx struct {
	store *Store
}

func (t *noteTx) FindByID(_ context.Context, userID, noteID int64) (*entities.Note, error) {
	note, ok := t.store.notes[noteID]
	if !ok || note.UserID != userID {
		return nil, entities.ErrNoteNotFound
	}
	return &note, nil
}

func (t *noteTx) FindByOwner(_ context.Context, userID int64, filter repositories.NoteFilter) ([]*entities.Note, error) {
	topic := strings.ToLower(filter.Topic)
	search := strings.ToLower(filter.Search)

	result := make([]*entities.Note, 0)
	for _, note := range t.store.notes {
		if note.UserID != userID {
			continue
		}
		if filter.ID != nil && note.ID != *filter.ID {
			continue
		}
		if topic != "" && !strings.Contains(strings.ToLower(note.Topic), topic) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(note.Topic), search) &&
			!strings.Contains(strings.ToLower(note.Message), search) {
			continue
		}
		n := note
		result = append(result, &n)
	}

	switch filter.Order {
	case repositories.OrderLowestID:
		slices.SortFunc(result, func(a, b *entities.Note) int { return compareInt64(a.ID, b.ID) })
	default:
		slices.SortFunc(result, func(a, b *entities.Note) int {
			if c := b.LastUpdate.Compare(a.LastUpdate); c != 0 {
				return c
			}
			return compareInt64(b.ID, a.ID)
		})
	}

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Insert отклоняет заметку несуществующего владельца, как внешний ключ в Postgres.
func (t *noteTx) Insert(_ context.Context, note *entities.Note) (int64, error) {
	if !t.store.userExists(note.UserID) {
		return 0, fmt.Errorf("%w: owner %d", entities.ErrUserNotFound, note.UserID)
	}

	t.store.nextNoteID++
	stored := *note
	stored.ID = t.store.nextNoteID
	t.store.notes[stored.ID] = stored
	return stored.ID, nil
}

func (t *noteTx) Update(_ context.Context, note *entities.Note) error {
	current, ok := t.store.notes[note.ID]
	if !ok || current.UserID != note.UserID {
		return entities.ErrNoteNotFound
	}
	t.store.notes[note.ID] = *note
	return nil
}

func (t *noteTx) Delete(_ context.Context, userID, noteID int64) error {
	current, ok := t.store.notes[noteID]
	if !ok || current.UserID != userID {
		return entities.ErrNoteNotFound
	}
	delete(t.store.notes, noteID)
	return nil
}

func (s *Store) userExists(userID int64) bool {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	_, ok := s.users[userID]
	return ok
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *entities.User) (int64, error) {
	s := r.store
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return 0, entities.ErrUsernameTaken
		}
	}
	s.nextUserID++
	stored := *user
	stored.ID = s.nextUserID
	s.users[stored.ID] = stored
	return stored.ID, nil
}

func (r *userRepository) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *userRepository) FindByID(_ context.Context, userID int64) (*entities.User, error) {
	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	return r.modify(userID, func(u *entities.User) { u.LastLogin = &at })
}

func (r *userRepository) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	return r.modify(userID, func(u *entities.User) { u.PasswordHash = passwordHash })
}

func (r *userRepository) modify(userID int64, fn func(*entities.User)) error {
	s := r.store
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return entities.ErrUserNotFound
	}
	fn(&u)
	s.users[userID] = u
	return nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
