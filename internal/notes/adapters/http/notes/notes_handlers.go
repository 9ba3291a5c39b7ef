// Package notes содержит HTTP-обработчики для управления заметками.
// Все маршруты собирают Intent и передают его резолверу.
package notes

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nlnotes/internal/notes/adapters/http/dto"
	"nlnotes/internal/notes/adapters/http/middleware"
	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/api"
	"nlnotes/internal/notes/ports/services"
	"nlnotes/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	LogHandlerQuery      = "handling natural language query"
	LogHandlerCreateNote = "handling create note request"
	LogHandlerReadNotes  = "handling read notes request"
	LogHandlerListNotes  = "handling list notes request"
	LogHandlerUpdateNote = "handling update note request"
	LogHandlerDeleteNote = "handling delete note request"
	LogParseFailed       = "failed to parse query"

	ErrMsgInvalidNoteID      = "invalid note id"
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgQueryRequired      = "query text required"
	ErrMsgUnauthorized       = "unauthorized"
)

// Handler обработчик HTTP-запросов для работы с заметками.
type Handler struct {
	resolver api.ActionResolver
	parser   services.IntentParser
}

// NewHandler создает новый экземпляр обработчика заметок.
func NewHandler(resolver api.ActionResolver, parser services.IntentParser) *Handler {
	return &Handler{
		resolver: resolver,
		parser:   parser,
	}
}

// Query разбирает запрос на естественном языке и выполняет его.
func (h *Handler) Query(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Query"))
	log.Debug(requestCtx, LogHandlerQuery)

	userID, ok := middleware.UserID(ctx)
	if !ok {
		return sendError(ctx, fiber.StatusUnauthorized, ErrMsgUnauthorized)
	}

	var req dto.QueryRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgQueryRequired)
	}

	intent, err := h.parser.Parse(requestCtx, req.Query)
	if err != nil {
		log.Warn(requestCtx, LogParseFailed, zap.Error(err))
		return sendError(ctx, fiber.StatusUnprocessableEntity, err.Error())
	}

	result := h.resolver.Resolve(requestCtx, userID, intent)

	if err := ctx.Status(StatusFor(result)).JSON(dto.QueryResponse{ParsedAction: intent, Result: result}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// ListNotes возвращает все заметки пользователя, новые первыми.
func (h *Handler) ListNotes(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerListNotes)

	return h.resolve(ctx, fiber.StatusOK, entities.Intent{Action: entities.ActionList})
}

// SearchNotes ищет заметки по подстроке темы (topic) и тексту (q).
func (h *Handler) SearchNotes(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerReadNotes)

	return h.resolve(ctx, fiber.StatusOK, entities.Intent{
		Action:      entities.ActionRead,
		Topic:       ctx.Query("topic"),
		SearchQuery: ctx.Query("q"),
	})
}

// GetNote обрабатывает запрос на получение заметки по ID.
func (h *Handler) GetNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerReadNotes)

	noteID, err := noteIDParam(ctx)
	if err != nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	return h.resolve(ctx, fiber.StatusOK, entities.Intent{Action: entities.ActionRead, NoteID: &noteID})
}

// CreateNote обрабатывает запрос на создание новой заметки.
func (h *Handler) CreateNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.CreateNote"))
	log.Debug(requestCtx, LogHandlerCreateNote)

	var req dto.CreateNoteRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, bindMessage(err))
	}

	return h.resolve(ctx, fiber.StatusCreated, req.Intent())
}

// UpdateNote обрабатывает PATCH и PUT: переданные поля заменяются, last_update обновляется всегда.
func (h *Handler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.UpdateNote"))
	log.Debug(requestCtx, LogHandlerUpdateNote)

	noteID, err := noteIDParam(ctx)
	if err != nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	var req dto.UpdateNoteRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.Bind().JSON(&req); err != nil {
			log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
			return sendError(ctx, fiber.StatusBadRequest, bindMessage(err))
		}
	}

	return h.resolve(ctx, fiber.StatusOK, req.Intent(noteID))
}

// DeleteNote обрабатывает запрос на удаление заметки.
func (h *Handler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, LogHandlerDeleteNote)

	noteID, err := noteIDParam(ctx)
	if err != nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	return h.resolve(ctx, fiber.StatusOK, entities.Intent{Action: entities.ActionDelete, NoteID: &noteID})
}

func (h *Handler) resolve(ctx fiber.Ctx, successStatus int, intent entities.Intent) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return sendError(ctx, fiber.StatusUnauthorized, ErrMsgUnauthorized)
	}

	result := h.resolver.Resolve(ctx.Context(), userID, intent)

	status := StatusFor(result)
	if !result.IsError() {
		status = successStatus
	}

	if err := ctx.Status(status).JSON(result); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// StatusFor переводит результат резолвера в HTTP статус.
func StatusFor(result entities.Result) int {
	switch {
	case !result.IsError():
		return fiber.StatusOK
	case result.Err != nil:
		return fiber.StatusInternalServerError
	case result.Reason == entities.ErrNoteNotFound.Error():
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadRequest
	}
}

func noteIDParam(ctx fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("note_id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgInvalidNoteID, err)
	}
	return id, nil
}

func bindMessage(err error) string {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return ErrMsgInvalidRequestBody
}

func sendError(ctx fiber.Ctx, status int, message string) error {
	if err := ctx.Status(status).JSON(dto.ErrorResponse{Error: message}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}
	return nil
}
