package dto

import "nlnotes/internal/notes/domain/entities"

// QueryRequest - запрос на естественном языке.
type QueryRequest struct {
	Query string `json:"query" validate:"required"`
}

// QueryResponse - разобранное намерение и результат его выполнения.
type QueryResponse struct {
	ParsedAction entities.Intent `json:"parsed_action"`
	Result       entities.Result `json:"result"`
}

// CreateNoteRequest содержит данные для создания заметки.
type CreateNoteRequest struct {
	Topic   string `json:"topic" validate:"max=255"`
	Message string `json:"message"`
}

// UpdateNoteRequest содержит изменяемые поля заметки.
type UpdateNoteRequest struct {
	Topic   string `json:"topic" validate:"max=255"`
	Message string `json:"message"`
}

// Intent собирает намерение создания.
func (r CreateNoteRequest) Intent() entities.Intent {
	return entities.Intent{Action: entities.ActionCreate, Topic: r.Topic, Message: r.Message}
}

// Intent собирает намерение обновления заметки noteID.
func (r UpdateNoteRequest) Intent(noteID int64) entities.Intent {
	return entities.Intent{
		Action:     entities.ActionUpdate,
		NoteID:     &noteID,
		NewTopic:   r.Topic,
		NewMessage: r.Message,
	}
}
