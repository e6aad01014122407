package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/models"
	"go.uber.org/zap"
)

// TranscriptService is the interface that wraps the transcript snippet
// business logic.
type TranscriptService interface {
	// Method GetSnippet resolves the episode's audio URL via the podcast
	// directory and fetches a transcript snippet for the requested position.
	//
	// The returned payload is the transcription collaborator's response
	// verbatim. A missing audio URL is reported as a not-found error.
	GetSnippet(ctx context.Context, info *models.PodcastInfo, timestamp float64, timeRange *models.TimeRange) (json.RawMessage, error)
}

// TranscriptHandler handles transcript snippet requests
type TranscriptHandler struct {
	BaseHandler
	service TranscriptService
}

// NewTranscriptHandler creates a new transcript handler
func NewTranscriptHandler(svc TranscriptService, logger *zap.Logger, development bool) *TranscriptHandler {
	return &TranscriptHandler{
		BaseHandler: BaseHandler{logger: logger, development: development},
		service:     svc,
	}
}

// RegisterRoutes registers all transcript handler routes
func (h *TranscriptHandler) RegisterRoutes(r chi.Router) {
	r.Post("/transcript", h.GetTranscript)
}

// GetTranscript handles POST /api/transcript
// @Summary Fetch a transcript snippet
// @Description Resolve the episode audio URL and fetch a transcript snippet for a timestamp or time range
// @Tags transcript
// @Accept json
// @Produce json
// @Param request body models.TranscriptRequest true "Podcast info and position"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 405 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/transcript [post]
func (h *TranscriptHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, apperrors.NewValidation("Invalid JSON body"))
		return
	}
	r = withLoggedBody(r, raw)

	var req models.TranscriptRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.respondError(w, r, apperrors.NewValidation("Invalid JSON body"))
		return
	}

	if req.PodcastInfo == nil || req.Timestamp == nil {
		h.respondError(w, r, apperrors.NewValidation("Missing required fields"))
		return
	}

	if isEmptyJSON(req.PodcastInfo.ValidatedPodcast) || isEmptyJSON(req.PodcastInfo.ValidatedEpisode) {
		h.respondError(w, r, apperrors.NewValidation("Podcast or episode information not found"))
		return
	}

	snippet, err := h.service.GetSnippet(r.Context(), req.PodcastInfo, *req.Timestamp, req.TimeRange)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondSuccess(w, snippet)
}

// isEmptyJSON reports whether a raw JSON field is absent or null
func isEmptyJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
