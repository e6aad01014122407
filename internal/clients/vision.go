package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/config"
	"go.uber.org/zap"
)

// VisionClient calls the OCR service that recognizes text in screenshots
type VisionClient struct {
	baseURL         string
	credentialsPath string
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewVisionClient creates a vision client from config
func NewVisionClient(cfg config.VisionConfig, logger *zap.Logger) *VisionClient {
	return &VisionClient{
		baseURL:         cfg.BaseURL,
		credentialsPath: cfg.CredentialsPath,
		httpClient:      &http.Client{Timeout: collaboratorTimeout},
		logger:          logger,
	}
}

// recognizeRequest is the body sent to the OCR service
type recognizeRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType,omitempty"`
}

// recognizeResponse is the body returned by the OCR service
type recognizeResponse struct {
	Text string `json:"text"`
}

// RecognizeText runs OCR on the image file at path and returns the
// recognized text. The OCR service authenticates through the credentials
// file named by GOOGLE_APPLICATION_CREDENTIALS; a missing or unreadable file
// is reported as a credentials error rather than a generic failure.
func (c *VisionClient) RecognizeText(ctx context.Context, path, mimeType string) (string, error) {
	if c.credentialsPath == "" {
		return "", apperrors.NewCredentials(
			"GOOGLE_APPLICATION_CREDENTIALS is not set", nil)
	}
	if _, err := os.Stat(c.credentialsPath); err != nil {
		return "", apperrors.NewCredentials(
			"GOOGLE_APPLICATION_CREDENTIALS points to an unreadable file", err)
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read staged image: %w", err)
	}

	body, err := json.Marshal(recognizeRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		MimeType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Decoded below
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Error("vision API rejected credentials", zap.Int("status", resp.StatusCode))
		return "", apperrors.NewCredentials("Vision service rejected credentials",
			fmt.Errorf("vision API returned status %d", resp.StatusCode))
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("vision API error", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("vision API returned status %d: %s", resp.StatusCode, msg)
	}

	var recognized recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&recognized); err != nil {
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}
	return recognized.Text, nil
}
