package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/models"
	"github.com/podsnap/backend/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockExtractService is a mock implementation of ExtractService
type mockExtractService struct {
	result *models.ExtractResult
	err    error
	called bool
	files  []models.StagedFile
}

func (m *mockExtractService) ExtractPodcastInfo(ctx context.Context, files []models.StagedFile) (*models.ExtractResult, error) {
	m.called = true
	m.files = files
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func postExtract(h *ExtractHandler, files []models.StagedFile) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/extract", nil)
	if files != nil {
		req = req.WithContext(upload.NewContext(req.Context(), files))
	}
	rec := httptest.NewRecorder()
	h.Extract(rec, req)
	return rec
}

func TestExtractHandler_Extract(t *testing.T) {
	staged := []models.StagedFile{
		{Path: "/tmp/images-1-x.png", Field: "images", OriginalName: "screen.png", ContentType: "image/png", Size: 1024},
	}

	t.Run("no staged files returns 400 without invoking the service", func(t *testing.T) {
		svc := &mockExtractService{}
		h := NewExtractHandler(svc, zap.NewNop(), true)

		rec := postExtract(h, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, apperrors.TypeValidation, resp.Error.Type)
		assert.False(t, svc.called)
	})

	t.Run("success returns the extraction result", func(t *testing.T) {
		svc := &mockExtractService{result: &models.ExtractResult{
			ValidatedPodcast: json.RawMessage(`{"id":1,"title":"The Daily"}`),
			ValidatedEpisode: json.RawMessage(`{"guid":"abc"}`),
		}}
		h := NewExtractHandler(svc, zap.NewNop(), true)

		rec := postExtract(h, staged)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"success":true,"data":{"validatedPodcast":{"id":1,"title":"The Daily"},"validatedEpisode":{"guid":"abc"}}}`,
			rec.Body.String())
		assert.Equal(t, staged, svc.files)
	})

	t.Run("service errors are classified", func(t *testing.T) {
		svc := &mockExtractService{err: apperrors.NewNotFound("No podcast found matching the screenshot")}
		h := NewExtractHandler(svc, zap.NewNop(), true)

		rec := postExtract(h, staged)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("credentials errors map to 500 with their type", func(t *testing.T) {
		svc := &mockExtractService{err: apperrors.NewCredentials("GOOGLE_APPLICATION_CREDENTIALS is not set", nil)}
		h := NewExtractHandler(svc, zap.NewNop(), false)

		rec := postExtract(h, staged)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, apperrors.TypeCredentials, resp.Error.Type)
	})
}
