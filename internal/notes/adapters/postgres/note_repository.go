package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/repositories"
	"nlnotes/pkg/logger"
)

const (
	errCreateNote  = "failed to create note"
	errGetNote     = "failed to get note"
	errListNotes   = "failed to list notes"
	errScanNote    = "failed to scan note"
	errIterateRows = "error iterating rows"
	errUpdateNote  = "failed to update note"
	errDeleteNote  = "failed to delete note"

	selectNotes = `SELECT id, user_id, topic, message, last_update FROM notes`
)

// NoteRepository реализует интерфейс repositories.NoteRepository.
type NoteRepository struct {
	db DBTX
}

// NewNoteRepository создает новый репозиторий заметок поверх пула или транзакции.
func NewNoteRepository(db DBTX) repositories.NoteRepository {
	return &NoteRepository{db: db}
}

// Insert сохраняет новую заметку и возвращает ее идентификатор.
func (r *NoteRepository) Insert(ctx context.Context, note *entities.Note) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Insert"))
	log.Debug(ctx, "creating new note", zap.Int64("userID", note.UserID))

	var noteID int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO notes (user_id, topic, message, last_update) VALUES ($1, $2, $3, $4) RETURNING id`,
		note.UserID, note.Topic, note.Message, note.LastUpdate,
	).Scan(&noteID)
	if err != nil {
		log.Error(ctx, errCreateNote, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.Int64("noteID", noteID))
	return noteID, nil
}

// FindByID получает заметку по ID в пределах заметок пользователя.
func (r *NoteRepository) FindByID(ctx context.Context, userID, noteID int64) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "FindByID"))

	var note entities.Note
	err := r.db.QueryRow(ctx,
		selectNotes+` WHERE id = $1 AND user_id = $2`,
		noteID, userID,
	).Scan(&note.ID, &note.UserID, &note.Topic, &note.Message, &note.LastUpdate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.Int64("noteID", noteID))
			return nil, entities.ErrNoteNotFound
		}
		log.Error(ctx, errGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}

	return &note, nil
}

// FindByOwner возвращает заметки пользователя, подходящие под фильтр.
func (r *NoteRepository) FindByOwner(ctx context.Context, userID int64, filter repositories.NoteFilter) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "FindByOwner"))

	query, args := buildOwnerQuery(userID, filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Error(ctx, errListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListNotes, err)
	}
	defer rows.Close()

	notes := make([]*entities.Note, 0)
	for rows.Next() {
		var note entities.Note
		if err := rows.Scan(&note.ID, &note.UserID, &note.Topic, &note.Message, &note.LastUpdate); err != nil {
			log.Error(ctx, errScanNote, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", errScanNote, err)
		}
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, errIterateRows, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errIterateRows, err)
	}

	log.Debug(ctx, "notes found", zap.Int("count", len(notes)))
	return notes, nil
}

// buildOwnerQuery собирает запрос по фильтру. Подстроки сравниваются через
// strpos, чтобы символы % и _ в запросе пользователя не были шаблоном.
func buildOwnerQuery(userID int64, filter repositories.NoteFilter) (string, []interface{}) {
	query := selectNotes + ` WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.ID != nil {
		args = append(args, *filter.ID)
		query += fmt.Sprintf(` AND id = $%d`, len(args))
	}
	if filter.Topic != "" {
		args = append(args, filter.Topic)
		query += fmt.Sprintf(` AND strpos(lower(topic), lower($%d)) > 0`, len(args))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		n := len(args)
		query += fmt.Sprintf(` AND (strpos(lower(topic), lower($%d)) > 0 OR strpos(lower(message), lower($%d)) > 0)`, n, n)
	}

	switch filter.Order {
	case repositories.OrderLowestID:
		query += ` ORDER BY id ASC`
	default:
		query += ` ORDER BY last_update DESC, id DESC`
	}

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	return query, args
}

// Update сохраняет тему, текст и отметку времени заметки.
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Update"))
	log.Debug(ctx, "updating note", zap.Int64("noteID", note.ID))

	result, err := r.db.Exec(ctx,
		`UPDATE notes SET topic = $1, message = $2, last_update = $3 WHERE id = $4 AND user_id = $5`,
		note.Topic, note.Message, note.LastUpdate, note.ID, note.UserID,
	)
	if err != nil {
		log.Error(ctx, errUpdateNote, zap.Error(err))
		return fmt.Errorf("%s: %w", errUpdateNote, err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found or not owned by user")
		return entities.ErrNoteNotFound
	}

	return nil
}

// Delete удаляет заметку.
func (r *NoteRepository) Delete(ctx context.Context, userID, noteID int64) error {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Delete"))
	log.Debug(ctx, "deleting note", zap.Int64("noteID", noteID))

	result, err := r.db.Exec(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`,
		noteID, userID,
	)
	if err != nil {
		log.Error(ctx, errDeleteNote, zap.Error(err))
		return fmt.Errorf("%s: %w", errDeleteNote, err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found or not owned by user")
		return entities.ErrNoteNotFound
	}

	return nil
}
