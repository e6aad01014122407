// Package client is a thin Go wrapper around the Podsnap HTTP API. It shapes
// requests and responses and carries no other logic.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "http://localhost:3001/api"

// Envelope is the API's uniform response shape
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody carries the error message and classification type
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// TimeRange is an interval into episode audio, in seconds
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TranscriptRequest is the body of POST /transcript
type TranscriptRequest struct {
	PodcastInfo json.RawMessage `json:"podcastInfo"`
	Timestamp   float64         `json:"timestamp"`
	TimeRange   *TimeRange      `json:"timeRange,omitempty"`
}

// APIError is returned when the API responds with an error envelope
type APIError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// Client calls the Podsnap API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. baseURL falls back to the PODSNAP_API_URL environment
// variable and then to DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("PODSNAP_API_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Extract uploads screenshot files to POST /extract and returns the
// extracted podcast info payload
func (c *Client) Extract(ctx context.Context, paths []string) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		part, err := mw.CreateFormFile("images", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to form: %w", path, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// Transcript calls POST /transcript and returns the transcript payload
func (c *Client) Transcript(ctx context.Context, treq TranscriptRequest) (json.RawMessage, error) {
	body, err := json.Marshal(treq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// do sends the request and unwraps the response envelope
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !envelope.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.Message = envelope.Error.Message
			apiErr.Type = envelope.Error.Type
		}
		return nil, apiErr
	}
	return envelope.Data, nil
}
