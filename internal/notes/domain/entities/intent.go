package entities

import "strings"

// Action - тег действия из закрытого множества.
type Action string

// Поддерживаемые действия.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	ActionHelp   Action = "help"
)

// Actions перечисляет все допустимые действия в порядке схемы разбора.
var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList, ActionHelp}

// IsValid проверяет принадлежность тега закрытому множеству.
func (a Action) IsValid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Intent - структурированное представление запроса пользователя.
// Обязателен только Action, остальные поля могут отсутствовать.
type Intent struct {
	Action      Action `json:"action"`
	NoteID      *int64 `json:"note_id,omitempty"`
	Topic       string `json:"topic,omitempty"`
	TargetTopic string `json:"target_topic,omitempty"`
	NewTopic    string `json:"new_topic,omitempty"`
	Message     string `json:"message,omitempty"`
	NewMessage  string `json:"new_message,omitempty"`
	SearchQuery string `json:"search_query,omitempty"`
}

// CreateTopic - тема новой заметки: topic, затем new_topic, затем target_topic.
func (i Intent) CreateTopic() string {
	return coalesce(i.Topic, i.NewTopic, i.TargetTopic)
}

// MessageValue - текст заметки: message, затем new_message.
func (i Intent) MessageValue() string {
	return coalesce(i.Message, i.NewMessage)
}

// TopicHint - подстрока текущей темы для поиска заметки: target_topic, затем topic.
func (i Intent) TopicHint() string {
	return coalesce(i.TargetTopic, i.Topic)
}

// ReplacementTopic - новая тема при обновлении: только new_topic.
func (i Intent) ReplacementTopic() string {
	return coalesce(i.NewTopic)
}

// Search - строка поиска по теме или тексту.
func (i Intent) Search() string {
	return coalesce(i.SearchQuery)
}

// coalesce возвращает первое непустое значение без крайних пробелов.
func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
