package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nlnotes/internal/notes/adapters/memory"
	"nlnotes/internal/notes/app"
	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/repositories"
)

var errStorage = errors.New("connection reset")

// stepClock отдает время, которое растет на секунду при каждом вызове.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// newStore создает хранилище с пользователями 1..n.
func newStore(t *testing.T, n int) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for i := 1; i <= n; i++ {
		_, err := store.Users().Create(context.Background(), &entities.User{Username: fmt.Sprintf("user%d", i), PasswordHash: "h"})
		require.NoError(t, err)
	}
	return store
}

func newResolver(t *testing.T) (*app.Resolver, *stepClock) {
	t.Helper()
	clock := &stepClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return app.NewResolver(newStore(t, 9), app.WithClock(clock.Now)), clock
}

func id(v int64) *int64 { return &v }

func mustCreate(t *testing.T, r *app.Resolver, userID int64, topic, message string) *entities.Note {
	t.Helper()
	res := r.Resolve(context.Background(), userID, entities.Intent{Action: entities.ActionCreate, Topic: topic, Message: message})
	require.False(t, res.IsError(), res.Reason)
	require.NotNil(t, res.Note)
	return res.Note
}

func list(t *testing.T, r *app.Resolver, userID int64) []*entities.Note {
	t.Helper()
	res := r.Resolve(context.Background(), userID, entities.Intent{Action: entities.ActionList})
	require.Equal(t, entities.ResultNotes, res.Kind)
	return res.Notes
}

func TestResolver_Create(t *testing.T) {
	r, clock := newResolver(t)
	start := clock.t

	res := r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionCreate, Topic: "AI", Message: "notes"})

	require.Equal(t, entities.ResultNote, res.Kind)
	assert.Equal(t, app.MsgNoteCreated, res.Message)
	assert.Positive(t, res.Note.ID)
	assert.Equal(t, int64(7), res.Note.UserID)
	assert.Equal(t, "AI", res.Note.Topic)
	assert.Equal(t, "notes", res.Note.Message)
	assert.False(t, res.Note.LastUpdate.Before(start))

	second := mustCreate(t, r, 7, "later", "x")
	notes := list(t, r, 7)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID, "most recently touched note comes first")
	assert.Equal(t, res.Note.ID, notes[1].ID)
}

func TestResolver_CreateAliases(t *testing.T) {
	tests := []struct {
		name    string
		intent  entities.Intent
		topic   string
		message string
	}{
		{"topic wins", entities.Intent{Topic: "a", NewTopic: "b", TargetTopic: "c", Message: "m"}, "a", "m"},
		{"new topic second", entities.Intent{NewTopic: "b", TargetTopic: "c", NewMessage: "m2"}, "b", "m2"},
		{"target topic last", entities.Intent{TargetTopic: "c", Message: "m", NewMessage: "m2"}, "c", "m"},
		{"blank is absent", entities.Intent{Topic: "   ", NewTopic: "b", Message: " ", NewMessage: "m2"}, "b", "m2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newResolver(t)
			tt.intent.Action = entities.ActionCreate
			res := r.Resolve(context.Background(), 1, tt.intent)
			require.Equal(t, entities.ResultNote, res.Kind, res.Reason)
			assert.Equal(t, tt.topic, res.Note.Topic)
			assert.Equal(t, tt.message, res.Note.Message)
		})
	}
}

func TestResolver_CreateValidation(t *testing.T) {
	r, _ := newResolver(t)
	mustCreate(t, r, 7, "keep", "me")

	for _, intent := range []entities.Intent{
		{Action: entities.ActionCreate, Topic: "AI"},
		{Action: entities.ActionCreate, Message: "notes"},
		{Action: entities.ActionCreate},
	} {
		res := r.Resolve(context.Background(), 7, intent)
		require.True(t, res.IsError())
		assert.Contains(t, res.Reason, "topic")
		assert.Contains(t, res.Reason, "message")
		assert.Nil(t, res.Err)
	}

	assert.Len(t, list(t, r, 7), 1)
}

func TestResolver_CreateUnknownOwner(t *testing.T) {
	r, _ := newResolver(t)

	res := r.Resolve(context.Background(), 999, entities.Intent{Action: entities.ActionCreate, Topic: "AI", Message: "x"})

	require.True(t, res.IsError())
	assert.Equal(t, entities.MsgStorageFailure, res.Reason)
	require.ErrorIs(t, res.Err, entities.ErrUserNotFound)
	assert.Empty(t, list(t, r, 999))
}

func TestResolver_TopicLength(t *testing.T) {
	r, _ := newResolver(t)
	longest := strings.Repeat("é", entities.MaxTopicLength)
	tooLong := longest + "x"

	note := mustCreate(t, r, 7, longest, "fits")
	assert.Equal(t, longest, note.Topic)

	tests := []struct {
		name   string
		intent entities.Intent
	}{
		{"create", entities.Intent{Action: entities.ActionCreate, Topic: tooLong, Message: "m"}},
		{"create via new_topic", entities.Intent{Action: entities.ActionCreate, NewTopic: tooLong, Message: "m"}},
		{"rename", entities.Intent{Action: entities.ActionUpdate, NoteID: id(note.ID), NewTopic: tooLong}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(context.Background(), 7, tt.intent)
			require.True(t, res.IsError())
			assert.Equal(t, entities.ErrTopicTooLong.Error(), res.Reason)
			assert.Nil(t, res.Err)
		})
	}

	stored := list(t, r, 7)
	require.Len(t, stored, 1)
	assert.Equal(t, *note, *stored[0])
}

func TestResolver_TimestampPrecision(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.FixedZone("MSK", 3*60*60))
	r := app.NewResolver(newStore(t, 1), app.WithClock(func() time.Time { return at }))

	note := mustCreate(t, r, 1, "AI", "x")

	assert.Equal(t, time.UTC, note.LastUpdate.Location())
	assert.Equal(t, 123456000, note.LastUpdate.Nanosecond())
	assert.True(t, note.LastUpdate.Equal(at.Truncate(time.Microsecond)))
	assert.Equal(t, note.LastUpdate, list(t, r, 1)[0].LastUpdate)
}

func TestResolver_ConcurrentUsers(t *testing.T) {
	const (
		users    = 8
		perUser  = 25
		finalMsg = "edited"
	)
	r := app.NewResolver(newStore(t, users))

	var wg sync.WaitGroup
	for u := int64(1); u <= users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			ctx := context.Background()
			for i := 0; i < perUser; i++ {
				topic := fmt.Sprintf("user%d-note%03d", userID, i)

				res := r.Resolve(ctx, userID, entities.Intent{Action: entities.ActionCreate, Topic: topic, Message: "draft"})
				if !assert.Equal(t, entities.ResultNote, res.Kind, res.Reason) {
					return
				}

				res = r.Resolve(ctx, userID, entities.Intent{Action: entities.ActionUpdate, TargetTopic: topic, NewMessage: finalMsg})
				if !assert.Equal(t, entities.ResultNote, res.Kind, res.Reason) {
					return
				}
				assert.Equal(t, topic, res.Note.Topic)

				res = r.Resolve(ctx, userID, entities.Intent{Action: entities.ActionList})
				assert.Len(t, res.Notes, i+1)
			}
		}(u)
	}
	wg.Wait()

	for u := int64(1); u <= users; u++ {
		notes := list(t, r, u)
		require.Len(t, notes, perUser)
		for _, n := range notes {
			assert.Equal(t, u, n.UserID)
			assert.True(t, strings.HasPrefix(n.Topic, fmt.Sprintf("user%d-", u)), n.Topic)
			assert.Equal(t, finalMsg, n.Message)
		}
	}
}

func TestResolver_List(t *testing.T) {
	r, _ := newResolver(t)

	notes := list(t, r, 7)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)

	body, err := json.Marshal(r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionList}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes":[]}`, string(body))
}

func TestResolver_Read(t *testing.T) {
	r, _ := newResolver(t)
	ai := mustCreate(t, r, 7, "AI research", "transformers")
	groceries := mustCreate(t, r, 7, "Groceries", "buy milk and GPU paste")
	mustCreate(t, r, 8, "AI", "gpu notes of another user")

	t.Run("search matches message only", func(t *testing.T) {
		res := r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionRead, SearchQuery: "gpu"})
		require.Equal(t, entities.ResultNotes, res.Kind)
		require.Len(t, res.Notes, 1)
		assert.Equal(t, groceries.ID, res.Notes[0].ID)
	})

	t.Run("topic hint is case insensitive", func(t *testing.T) {
		res := r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionRead, TargetTopic: "ai"})
		require.Len(t, res.Notes, 1)
		assert.Equal(t, ai.ID, res.Notes[0].ID)
	})

	t.Run("filters are combined", func(t *testing.T) {
		res := r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionRead, Topic: "AI", SearchQuery: "milk"})
		assert.Equal(t, entities.ResultMessage, res.Kind)
		assert.Equal(t, app.MsgNoMatchingNotes, res.Message)
	})

	t.Run("by id", func(t *testing.T) {
		res := r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionRead, NoteID: id(groceries.ID)})
		require.Len(t, res.Notes, 1)
		assert.Equal(t, groceries.ID, res.Notes[0].ID)
	})

	t.Run("no filters returns everything recent first", func(t *testing.T) {
		res := r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionRead})
		require.Len(t, res.Notes, 2)
		assert.Equal(t, groceries.ID, res.Notes[0].ID)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		res := r.Resolve(context.Background(), 9, entities.Intent{Action: entities.ActionRead, SearchQuery: "x"})
		assert.False(t, res.IsError())
		assert.Equal(t, app.MsgNoMatchingNotes, res.Message)
	})
}

func TestResolver_Update(t *testing.T) {
	r, _ := newResolver(t)
	note := mustCreate(t, r, 7, "Exams", "exam is on Monday")

	res := r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionUpdate, NoteID: id(note.ID), NewMessage: "exam is on Friday"})
	require.Equal(t, entities.ResultNote, res.Kind, res.Reason)
	assert.Equal(t, app.MsgNoteUpdated, res.Message)
	assert.Equal(t, "Exams", res.Note.Topic)
	assert.Equal(t, "exam is on Friday", res.Note.Message)
	assert.True(t, res.Note.LastUpdate.After(note.LastUpdate))
	first := res.Note

	res = r.Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionUpdate, NoteID: id(note.ID)})
	require.Equal(t, entities.ResultNote, res.Kind, res.Reason)
	assert.Equal(t, first.Topic, res.Note.Topic)
	assert.Equal(t, first.Message, res.Note.Message)
	assert.True(t, res.Note.LastUpdate.After(first.LastUpdate), "timestamp refreshes even without changes")

	stored := list(t, r, 7)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Note.LastUpdate, stored[0].LastUpdate)
}

func TestResolver_UpdateByTopic(t *testing.T) {
	r, _ := newResolver(t)
	first := mustCreate(t, r, 7, "AI basics", "one")
	mustCreate(t, r, 7, "ai advanced", "two")

	res := r.Resolve(context.Background(), 7, entities.Intent{
		Action:      entities.ActionUpdate,
		TargetTopic: "AI",
		NewTopic:    "Machine Learning",
	})
	require.Equal(t, entities.ResultNote, res.Kind, res.Reason)
	assert.Equal(t, first.ID, res.Note.ID, "lowest id wins among topic matches")
	assert.Equal(t, "Machine Learning", res.Note.Topic)
	assert.Equal(t, "one", res.Note.Message)
}

func TestResolver_LocatorErrors(t *testing.T) {
	r, _ := newResolver(t)
	note := mustCreate(t, r, 7, "AI", "notes")

	tests := []struct {
		name   string
		userID int64
		intent entities.Intent
		want   string
	}{
		{"update without locator", 7, entities.Intent{Action: entities.ActionUpdate, Message: "x"}, "specify note_id or topic to update"},
		{"delete without locator", 7, entities.Intent{Action: entities.ActionDelete}, "specify note_id or topic to delete"},
		{"update unmatched topic", 7, entities.Intent{Action: entities.ActionUpdate, Topic: "cooking", Message: "x"}, "note not found"},
		{"delete unmatched topic", 7, entities.Intent{Action: entities.ActionDelete, TargetTopic: "cooking"}, "note not found"},
		{"update other user's note", 8, entities.Intent{Action: entities.ActionUpdate, NoteID: id(note.ID), Message: "x"}, "note not found"},
		{"delete other user's note by topic", 8, entities.Intent{Action: entities.ActionDelete, Topic: "AI"}, "note not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(context.Background(), tt.userID, tt.intent)
			require.True(t, res.IsError())
			assert.Equal(t, tt.want, res.Reason)
			assert.Nil(t, res.Err)
		})
	}

	stored := list(t, r, 7)
	require.Len(t, stored, 1)
	assert.Equal(t, *note, *stored[0])
}

func TestResolver_DeleteTwice(t *testing.T) {
	r, _ := newResolver(t)
	note := mustCreate(t, r, 7, "AI", "notes")
	intent := entities.Intent{Action: entities.ActionDelete, NoteID: id(note.ID)}

	res := r.Resolve(context.Background(), 7, intent)
	require.False(t, res.IsError(), res.Reason)
	assert.Equal(t, app.MsgNoteDeleted, res.Message)
	assert.Equal(t, note.ID, res.DeletedNoteID)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"note deleted","deleted_note_id":1}`, string(body))

	res = r.Resolve(context.Background(), 7, intent)
	require.True(t, res.IsError())
	assert.Equal(t, "note not found", res.Reason)
}

func TestResolver_CrossUserIsolation(t *testing.T) {
	r, _ := newResolver(t)
	mine := mustCreate(t, r, 1, "shared topic", "secret")
	mustCreate(t, r, 2, "shared topic", "other")

	for _, intent := range []entities.Intent{
		{Action: entities.ActionList},
		{Action: entities.ActionRead, NoteID: id(mine.ID)},
		{Action: entities.ActionRead, Topic: "shared"},
		{Action: entities.ActionRead, SearchQuery: "secret"},
	} {
		res := r.Resolve(context.Background(), 2, intent)
		for _, n := range res.Notes {
			assert.Equal(t, int64(2), n.UserID)
		}
	}

	res := r.Resolve(context.Background(), 2, entities.Intent{Action: entities.ActionDelete, NoteID: id(mine.ID)})
	assert.True(t, res.IsError())
	assert.Len(t, list(t, r, 1), 1)
}

func TestResolver_HelpAndUnknown(t *testing.T) {
	uow := new(mockUnitOfWork)
	r := app.NewResolver(uow)

	res := r.Resolve(context.Background(), 1, entities.Intent{Action: entities.ActionHelp, Topic: "ignored"})
	assert.Equal(t, entities.ResultMessage, res.Kind)
	assert.Equal(t, app.HelpText, res.Message)

	res = r.Resolve(context.Background(), 1, entities.Intent{Action: "archive"})
	require.True(t, res.IsError())
	assert.Equal(t, "unknown action: archive", res.Reason)

	uow.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, notes repositories.NoteRepository) error) error {
	args := m.Called(ctx, fn)
	if repo, ok := args.Get(0).(repositories.NoteRepository); ok {
		if err := fn(ctx, repo); err != nil {
			return err
		}
	}
	return args.Error(1)
}

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) FindByID(ctx context.Context, userID, noteID int64) (*entities.Note, error) {
	args := m.Called(ctx, userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) FindByOwner(ctx context.Context, userID int64, filter repositories.NoteFilter) ([]*entities.Note, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) Insert(ctx context.Context, note *entities.Note) (int64, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteRepository) Update(ctx context.Context, note *entities.Note) error {
	return m.Called(ctx, note).Error(0)
}

func (m *mockNoteRepository) Delete(ctx context.Context, userID, noteID int64) error {
	return m.Called(ctx, userID, noteID).Error(0)
}

func TestResolver_StorageFailures(t *testing.T) {
	note := &entities.Note{ID: 3, UserID: 7, Topic: "AI", Message: "m"}

	tests := []struct {
		name   string
		intent entities.Intent
		setup  func(repo *mockNoteRepository)
	}{
		{
			name:   "insert fails",
			intent: entities.Intent{Action: entities.ActionCreate, Topic: "AI", Message: "m"},
			setup: func(repo *mockNoteRepository) {
				repo.On("Insert", mock.Anything, mock.Anything).Return(int64(0), errStorage)
			},
		},
		{
			name:   "list fails",
			intent: entities.Intent{Action: entities.ActionList},
			setup: func(repo *mockNoteRepository) {
				repo.On("FindByOwner", mock.Anything, int64(7), mock.Anything).Return(nil, errStorage)
			},
		},
		{
			name:   "locate fails",
			intent: entities.Intent{Action: entities.ActionDelete, NoteID: id(3)},
			setup: func(repo *mockNoteRepository) {
				repo.On("FindByID", mock.Anything, int64(7), int64(3)).Return(nil, errStorage)
			},
		},
		{
			name:   "update write fails",
			intent: entities.Intent{Action: entities.ActionUpdate, NoteID: id(3), Message: "new"},
			setup: func(repo *mockNoteRepository) {
				repo.On("FindByID", mock.Anything, int64(7), int64(3)).Return(note, nil)
				repo.On("Update", mock.Anything, mock.Anything).Return(errStorage)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockNoteRepository)
			tt.setup(repo)
			uow := new(mockUnitOfWork)
			uow.On("Do", mock.Anything, mock.Anything).Return(repo, nil)

			res := app.NewResolver(uow).Resolve(context.Background(), 7, tt.intent)

			require.True(t, res.IsError())
			require.ErrorIs(t, res.Err, errStorage)
			assert.Equal(t, entities.MsgStorageFailure, res.Reason)
			repo.AssertExpectations(t)
		})
	}

	t.Run("begin fails", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Do", mock.Anything, mock.Anything).Return(nil, errStorage)

		res := app.NewResolver(uow).Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionList})
		require.ErrorIs(t, res.Err, errStorage)
	})
}

func TestResolver_UpdateUsesLowestIDFilter(t *testing.T) {
	repo := new(mockNoteRepository)
	repo.On("FindByOwner", mock.Anything, int64(7), repositories.NoteFilter{
		Topic: "AI",
		Order: repositories.OrderLowestID,
		Limit: 1,
	}).Return([]*entities.Note{}, nil)
	uow := new(mockUnitOfWork)
	uow.On("Do", mock.Anything, mock.Anything).Return(repo, nil)

	res := app.NewResolver(uow).Resolve(context.Background(), 7, entities.Intent{Action: entities.ActionUpdate, TargetTopic: " AI ", Topic: "ignored"})

	require.True(t, res.IsError())
	assert.Equal(t, "note not found", res.Reason)
	repo.AssertExpectations(t)
}
