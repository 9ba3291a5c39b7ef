package parser

import "nlnotes/internal/notes/domain/entities"

const systemPrompt = `You convert a user's natural language into a structured JSON note action.

The fields are:

- action: "create", "read", "update", "delete", "list", "help"
- note_id: integer or null
- target_topic: the CURRENT topic of the note we're operating on
- new_topic: the NEW topic to set (for create or update)
- new_message: the NEW message to set (for create or update)
- search_query: text to search for

Rules:

### CREATE
If the user wants to create/add/write a new note:
- action = "create"
- new_topic = the topic they mention
- new_message = the message/content they want

### READ
If the user wants to read/get/show/list notes:
- use action = "list" to show many/all notes
- use action = "read" when looking for a specific one
- fill in note_id or target_topic or search_query

### UPDATE
If the user wants to change/modify/update/edit a note:
- action = "update"
- note_id if they mention "note 3"
- otherwise use target_topic to match the existing topic
- set new_topic if they want to rename the topic
- set new_message if they give new content

EXAMPLES (IMPORTANT):
1. "change the topic assignment to assignment completed"
   -> action="update"
      target_topic="assignment"
      new_topic="assignment completed"

2. "change the topic assignment to assignment completed with message I will do it next month"
   -> action="update"
      target_topic="assignment"
      new_topic="assignment completed"
      new_message="I will do it next month"

### DELETE
If the user wants to delete/remove a note:
- action = "delete"
- note_id or target_topic

### HELP
If the user is confused or asking about usage:
- action = "help"

ALWAYS return ONLY a JSON object matching the schema.
No extra text.`

// intentSchema - JSON Schema ответа модели, передается в поле format.
func intentSchema() map[string]any {
	actions := make([]string, 0, len(entities.Actions))
	for _, a := range entities.Actions {
		actions = append(actions, string(a))
	}

	nullable := func(kind string) map[string]any {
		return map[string]any{"type": []string{kind, "null"}}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":       map[string]any{"type": "string", "enum": actions},
			"note_id":      nullable("integer"),
			"target_topic": nullable("string"),
			"new_topic":    nullable("string"),
			"new_message":  nullable("string"),
			"search_query": nullable("string"),
		},
		"required": []string{"action"},
	}
}
