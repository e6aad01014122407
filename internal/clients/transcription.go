package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/config"
	"github.com/podsnap/backend/internal/models"
	"go.uber.org/zap"
)

// TranscriptionClient calls the external transcription API
type TranscriptionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTranscriptionClient creates a transcription client from config
func NewTranscriptionClient(cfg config.TranscriptionConfig, logger *zap.Logger) *TranscriptionClient {
	return &TranscriptionClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: collaboratorTimeout},
		logger:     logger,
	}
}

// transcriptRequest is the body sent to the transcription API
type transcriptRequest struct {
	AudioURL  string            `json:"audioUrl"`
	Timestamp float64           `json:"timestamp"`
	TimeRange *models.TimeRange `json:"timeRange,omitempty"`
}

// GetTranscript requests a transcript snippet around timestamp (or within
// timeRange) of the audio at audioURL. The API's JSON payload is returned
// verbatim so callers can forward it without mutation or loss.
func (c *TranscriptionClient) GetTranscript(ctx context.Context, audioURL string, timestamp float64, timeRange *models.TimeRange) (json.RawMessage, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:  audioURL,
		Timestamp: timestamp,
		TimeRange: timeRange,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return json.RawMessage(payload), nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Error("transcription API rejected credentials", zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewCredentials("Transcription service rejected credentials",
			fmt.Errorf("transcription API returned status %d", resp.StatusCode))
	default:
		c.logger.Error("transcription API error", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode,
			bytes.TrimSpace(payload))
	}
}
