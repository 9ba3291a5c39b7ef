// Package app implements application business logic for the notes service.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/repositories"
	"nlnotes/pkg/logger"
	"nlnotes/pkg/metrics"
)

// Сообщения успешных результатов.
const (
	MsgNoteCreated     = "note created"
	MsgNoteUpdated     = "note updated"
	MsgNoteDeleted     = "note deleted"
	MsgNoMatchingNotes = "no matching notes found"

	HelpText = "You can say things like:\n" +
		"- 'Create a note about AI that says I love transformers'\n" +
		"- 'Show all my notes'\n" +
		"- 'Find my notes that mention exams'\n" +
		"- 'Update note 2 and say exam is on Friday'\n" +
		"- 'Rename my AI note to Machine Learning'\n" +
		"- 'Delete my note about databases'\n"
)

// Исходы для метрик.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"

	actionUnknown = "unknown"
)

// Resolver выполняет Intent над заметками пользователя.
// Не хранит состояния между вызовами; каждый вызов работает в одной единице работы хранилища.
type Resolver struct {
	uow repositories.UnitOfWork
	now func() time.Time
}

// ResolverOption настраивает Resolver.
type ResolverOption func(*Resolver)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver создает новый экземпляр Resolver.
func NewResolver(uow repositories.UnitOfWork, opts ...ResolverOption) *Resolver {
	r := &Resolver{uow: uow, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type actionFunc func(ctx context.Context, notes repositories.NoteRepository, userID int64, intent entities.Intent) (entities.Result, error)

// Resolve выполняет действие и никогда не возвращает ошибку: любой отказ
// превращается в результат с причиной.
func (r *Resolver) Resolve(ctx context.Context, userID int64, intent entities.Intent) entities.Result {
	action := string(intent.Action)
	if !intent.Action.IsValid() {
		action = actionUnknown
	}
	log := logger.Log(ctx).With(
		zap.String("component", "resolver"),
		zap.Int64("userID", userID),
		zap.String("action", action),
	)

	result := r.dispatch(ctx, userID, intent)

	outcome := outcomeOK
	switch {
	case result.Err != nil:
		outcome = outcomeFailed
		log.Error(ctx, "storage failure while resolving action", zap.Error(result.Err))
	case result.IsError():
		outcome = outcomeRejected
		log.Debug(ctx, "action rejected", zap.String("reason", result.Reason))
	default:
		log.Debug(ctx, "action resolved")
	}
	metrics.ObserveResolverAction(action, outcome)

	return result
}

func (r *Resolver) dispatch(ctx context.Context, userID int64, intent entities.Intent) entities.Result {
	var fn actionFunc
	switch intent.Action {
	case entities.ActionHelp:
		return entities.MessageResult(HelpText)
	case entities.ActionCreate:
		if intent.CreateTopic() == "" || intent.MessageValue() == "" {
			return entities.ErrorResult(entities.ErrTopicAndMessageRequired)
		}
		if !entities.ValidTopicLength(intent.CreateTopic()) {
			return entities.ErrorResult(entities.ErrTopicTooLong)
		}
		fn = r.create
	case entities.ActionList:
		fn = r.list
	case entities.ActionRead:
		fn = r.read
	case entities.ActionUpdate:
		if !hasLocator(intent) {
			return entities.ErrorResult(locatorError(entities.ActionUpdate))
		}
		if !entities.ValidTopicLength(intent.ReplacementTopic()) {
			return entities.ErrorResult(entities.ErrTopicTooLong)
		}
		fn = r.update
	case entities.ActionDelete:
		if !hasLocator(intent) {
			return entities.ErrorResult(locatorError(entities.ActionDelete))
		}
		fn = r.delete
	default:
		return entities.ErrorResult(fmt.Errorf("%w: %s", entities.ErrUnknownAction, intent.Action))
	}

	var result entities.Result
	err := r.uow.Do(ctx, func(ctx context.Context, notes repositories.NoteRepository) error {
		var err error
		result, err = fn(ctx, notes, userID, intent)
		return err
	})
	if err != nil {
		return entities.StorageFailure(err)
	}
	return result
}

func (r *Resolver) create(ctx context.Context, notes repositories.NoteRepository, userID int64, intent entities.Intent) (entities.Result, error) {
	note := entities.NewNote(userID, intent.CreateTopic(), intent.MessageValue(), r.timestamp())

	id, err := notes.Insert(ctx, note)
	if err != nil {
		return entities.Result{}, err
	}
	note.ID = id

	return entities.NoteResult(MsgNoteCreated, note), nil
}

func (r *Resolver) list(ctx context.Context, notes repositories.NoteRepository, userID int64, _ entities.Intent) (entities.Result, error) {
	found, err := notes.FindByOwner(ctx, userID, repositories.NoteFilter{Order: repositories.OrderRecent})
	if err != nil {
		return entities.Result{}, err
	}
	return entities.NotesResult(found), nil
}

func (r *Resolver) read(ctx context.Context, notes repositories.NoteRepository, userID int64, intent entities.Intent) (entities.Result, error) {
	found, err := notes.FindByOwner(ctx, userID, repositories.NoteFilter{
		ID:     intent.NoteID,
		Topic:  intent.TopicHint(),
		Search: intent.Search(),
		Order:  repositories.OrderRecent,
	})
	if err != nil {
		return entities.Result{}, err
	}
	if len(found) == 0 {
		return entities.MessageResult(MsgNoMatchingNotes), nil
	}
	return entities.NotesResult(found), nil
}

// update перезаписывает текст и тему, если они заданы, и всегда обновляет last_update.
func (r *Resolver) update(ctx context.Context, notes repositories.NoteRepository, userID int64, intent entities.Intent) (entities.Result, error) {
	note, err := locate(ctx, notes, userID, intent)
	if errors.Is(err, entities.ErrNoteNotFound) {
		return entities.ErrorResult(entities.ErrNoteNotFound), nil
	}
	if err != nil {
		return entities.Result{}, err
	}

	if message := intent.MessageValue(); message != "" {
		note.Message = message
	}
	if topic := intent.ReplacementTopic(); topic != "" && topic != note.Topic {
		note.Topic = topic
	}
	note.Touch(r.timestamp())

	if err := notes.Update(ctx, note); err != nil {
		if errors.Is(err, entities.ErrNoteNotFound) {
			return entities.ErrorResult(entities.ErrNoteNotFound), nil
		}
		return entities.Result{}, err
	}

	return entities.NoteResult(MsgNoteUpdated, note), nil
}

func (r *Resolver) delete(ctx context.Context, notes repositories.NoteRepository, userID int64, intent entities.Intent) (entities.Result, error) {
	note, err := locate(ctx, notes, userID, intent)
	if errors.Is(err, entities.ErrNoteNotFound) {
		return entities.ErrorResult(entities.ErrNoteNotFound), nil
	}
	if err != nil {
		return entities.Result{}, err
	}

	if err := notes.Delete(ctx, userID, note.ID); err != nil {
		if errors.Is(err, entities.ErrNoteNotFound) {
			return entities.ErrorResult(entities.ErrNoteNotFound), nil
		}
		return entities.Result{}, err
	}

	return entities.DeletedResult(MsgNoteDeleted, note.ID), nil
}

// timestamp округляется до микросекунд: точнее TIMESTAMPTZ не хранит.
func (r *Resolver) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// locate находит заметку по идентификатору, иначе по подстроке темы.
// Из нескольких заметок с подходящей темой выбирается заметка с наименьшим id.
func locate(ctx context.Context, notes repositories.NoteRepository, userID int64, intent entities.Intent) (*entities.Note, error) {
	if intent.NoteID != nil {
		return notes.FindByID(ctx, userID, *intent.NoteID)
	}

	found, err := notes.FindByOwner(ctx, userID, repositories.NoteFilter{
		Topic: intent.TopicHint(),
		Order: repositories.OrderLowestID,
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, entities.ErrNoteNotFound
	}
	return found[0], nil
}

func hasLocator(intent entities.Intent) bool {
	return intent.NoteID != nil || intent.TopicHint() != ""
}

func locatorError(action entities.Action) error {
	return fmt.Errorf("%w to %s", entities.ErrLocatorRequired, action)
}
