package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/models"
	"github.com/podsnap/backend/internal/upload"
	"go.uber.org/zap"
)

// ExtractService is the interface that wraps the screenshot extraction
// business logic.
type ExtractService interface {
	// Method ExtractPodcastInfo runs OCR over the staged screenshots and
	// validates the recognized text against the podcast directory.
	//
	// If no podcast can be matched, a not-found error is returned.
	ExtractPodcastInfo(ctx context.Context, files []models.StagedFile) (*models.ExtractResult, error)
}

// ExtractHandler handles screenshot extraction requests
type ExtractHandler struct {
	BaseHandler
	service ExtractService
}

// NewExtractHandler creates a new extract handler
func NewExtractHandler(svc ExtractService, logger *zap.Logger, development bool) *ExtractHandler {
	return &ExtractHandler{
		BaseHandler: BaseHandler{logger: logger, development: development},
		service:     svc,
	}
}

// RegisterRoutes registers all extract handler routes behind the upload
// staging middleware
func (h *ExtractHandler) RegisterRoutes(r chi.Router, uploadMw func(http.Handler) http.Handler) {
	r.With(uploadMw).Post("/extract", h.Extract)
}

// Extract handles POST /api/extract
// @Summary Extract podcast info from screenshots
// @Description Run OCR over uploaded episode screen images and validate the result against the podcast directory
// @Tags extract
// @Accept multipart/form-data
// @Produce json
// @Param images formData file true "Up to 5 image files, 10 MiB each"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/extract [post]
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	files := upload.FromContext(r.Context())
	if len(files) == 0 {
		h.respondError(w, r, apperrors.NewValidation("No image files uploaded"))
		return
	}

	result, err := h.service.ExtractPodcastInfo(r.Context(), files)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondSuccess(w, result)
}
