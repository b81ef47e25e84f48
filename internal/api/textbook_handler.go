package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/api/shared"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/service"
)

// TextbookSubmitter creates textbooks and changes their visibility.
type TextbookSubmitter interface {
	SubmitTextbook(ctx context.Context, req service.SubmitTextbookRequest) (*service.SubmitTextbookResult, error)
	StartTextbook(ctx context.Context, req service.SubmitTextbookRequest) (*domain.Textbook, error)
	SetPublished(ctx context.Context, textbookID uuid.UUID, published bool) error
}

// TextbookReader answers read-only textbook queries.
type TextbookReader interface {
	GetTextbookStatus(ctx context.Context, id uuid.UUID) (*service.TextbookStatus, error)
	GetChapter(ctx context.Context, textbookID uuid.UUID, chapterNumber int) (*domain.Chapter, error)
	ListTextbooks(ctx context.Context, status domain.TextbookStatus, limit, offset int) ([]*domain.Textbook, error)
}

// TextbookHandler handles textbook-related HTTP requests
type TextbookHandler struct {
	submitter TextbookSubmitter
	reader    TextbookReader
	logger    *slog.Logger
}

// NewTextbookHandler creates a new TextbookHandler
func NewTextbookHandler(submitter TextbookSubmitter, reader TextbookReader, logger *slog.Logger) *TextbookHandler {
	if submitter == nil || reader == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("textbook services cannot be nil for TextbookHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TextbookHandler{
		submitter: submitter,
		reader:    reader,
		logger:    logger.With(slog.String("component", "textbook_handler")),
	}
}

// RegisterRoutes mounts the textbook endpoints on r.
func (h *TextbookHandler) RegisterRoutes(r chi.Router) {
	r.Route("/textbooks", func(r chi.Router) {
		r.Post("/", h.SubmitTextbook)
		r.Get("/", h.ListTextbooks)
		r.Get("/{id}", h.GetTextbook)
		r.Get("/{id}/chapters/{number}", h.GetChapter)
		r.Put("/{id}/published", h.SetPublished)
	})
}

// SubmitTextbook handles POST /api/textbooks requests.
// By default generation runs inside the request and the response carries
// every chapter. With ?async=true the textbook is created, generation is
// handed to the task runner and the response is 202 Accepted.
func (h *TextbookHandler) SubmitTextbook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	async, err := getQueryBool(r, "async")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req service.SubmitTextbookRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		log.Debug("failed to decode submit request", slog.Any("error", err))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if async {
		textbook, err := h.submitter.StartTextbook(r.Context(), req)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}

		log.Debug("textbook generation accepted", slog.String("textbook_id", textbook.ID.String()))
		shared.RespondWithJSON(w, r, http.StatusAccepted, StartTextbookResponse{
			Textbook: textbookToResponse(textbook),
		})
		return
	}

	result, err := h.submitter.SubmitTextbook(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, SubmitTextbookResponse{
		Textbook: textbookToResponse(result.Textbook),
		Chapters: result.Chapters,
	})
}

// GetTextbook handles GET /api/textbooks/{id} requests.
func (h *TextbookHandler) GetTextbook(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	status, err := h.reader.GetTextbookStatus(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// GetChapter handles GET /api/textbooks/{id}/chapters/{number} requests.
func (h *TextbookHandler) GetChapter(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	number, err := getPathInt(r, "number")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	chapter, err := h.reader.GetChapter(r.Context(), id, number)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, chapterToResponse(chapter))
}

// ListTextbooks handles GET /api/textbooks requests.
func (h *TextbookHandler) ListTextbooks(w http.ResponseWriter, r *http.Request) {
	status := domain.TextbookStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.TextbookStatusGenerating, domain.TextbookStatusCompleted, domain.TextbookStatusError:
	default:
		HandleAPIError(w, r, fieldError("status", "must be one of generating, completed, error"), "")
		return
	}

	limit, err := getQueryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := getQueryInt(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	textbooks, err := h.reader.ListTextbooks(r.Context(), status, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list textbooks")
		return
	}

	if limit <= 0 {
		limit = service.DefaultListLimit
	}
	resp := ListTextbooksResponse{
		Textbooks: make([]TextbookResponse, 0, len(textbooks)),
		Limit:     min(limit, service.MaxListLimit),
		Offset:    max(offset, 0),
	}
	for _, t := range textbooks {
		resp.Textbooks = append(resp.Textbooks, textbookToResponse(t))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// SetPublished handles PUT /api/textbooks/{id}/published requests.
func (h *TextbookHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SetPublishedRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, fieldError("published", "is required"), "")
		return
	}

	if err := h.submitter.SetPublished(r.Context(), id, *req.Published); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("textbook visibility changed",
		slog.String("textbook_id", id.String()),
		slog.Bool("published", *req.Published))
	w.WriteHeader(http.StatusNoContent)
}
