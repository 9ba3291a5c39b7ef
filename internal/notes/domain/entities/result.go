package entities

import "encoding/json"

// ResultKind различает варианты результата.
type ResultKind int

// Варианты результата.
const (
	ResultMessage ResultKind = iota
	ResultNote
	ResultNotes
	ResultError
)

// MsgStorageFailure возвращается клиенту вместо текста ошибки хранилища.
const MsgStorageFailure = "internal storage error"

// Result - результат выполнения действия резолвером.
type Result struct {
	Kind          ResultKind
	Message       string
	Note          *Note
	Notes         []*Note
	DeletedNoteID int64
	Reason        string
	// Err - исходная ошибка. Для отказов хранилища не nil и не сериализуется.
	Err error
}

// MessageResult - успешный результат с текстом.
func MessageResult(msg string) Result {
	return Result{Kind: ResultMessage, Message: msg}
}

// NoteResult - успешный результат с одной заметкой.
func NoteResult(msg string, note *Note) Result {
	return Result{Kind: ResultNote, Message: msg, Note: note}
}

// NotesResult - успешный результат со списком заметок.
func NotesResult(notes []*Note) Result {
	if notes == nil {
		notes = []*Note{}
	}
	return Result{Kind: ResultNotes, Notes: notes}
}

// DeletedResult - успешное удаление.
func DeletedResult(msg string, id int64) Result {
	return Result{Kind: ResultMessage, Message: msg, DeletedNoteID: id}
}

// ErrorResult - ожидаемая ошибка (валидация, не найдено, неизвестное действие).
func ErrorResult(err error) Result {
	return Result{Kind: ResultError, Reason: err.Error()}
}

// StorageFailure - отказ хранилища. Причина скрыта от клиента.
func StorageFailure(err error) Result {
	return Result{Kind: ResultError, Reason: MsgStorageFailure, Err: err}
}

// IsError сообщает, является ли результат ошибкой.
func (r Result) IsError() bool {
	return r.Kind == ResultError
}

// MarshalJSON сериализует результат в форму ответа API.
func (r Result) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, 2)
	switch r.Kind {
	case ResultError:
		body["error"] = r.Reason
	case ResultNotes:
		notes := r.Notes
		if notes == nil {
			notes = []*Note{}
		}
		body["notes"] = notes
	case ResultNote:
		body["message"] = r.Message
		body["note"] = r.Note
	default:
		body["message"] = r.Message
		if r.DeletedNoteID != 0 {
			body["deleted_note_id"] = r.DeletedNoteID
		}
	}
	return json.Marshal(body)
}
