// Package models defines the transient request/response payloads of the API
package models

import "encoding/json"

// SuccessResponse is the envelope for all successful responses
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the envelope for all failed responses
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries the error message and classification type
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// PodcastInfo carries the validated podcast/episode metadata produced by the
// extraction step. Both blobs are opaque to this layer and passed through
// unmodified; only episode identifiers are decoded out of ValidatedEpisode.
type PodcastInfo struct {
	ValidatedPodcast json.RawMessage `json:"validatedPodcast,omitempty"`
	ValidatedEpisode json.RawMessage `json:"validatedEpisode,omitempty"`
}

// EpisodeRef holds the identifiers used to resolve an episode's audio URL
type EpisodeRef struct {
	GUID string      `json:"guid,omitempty"`
	ID   json.Number `json:"id,omitempty"`
}

// TimeRange is an interval into episode audio, in seconds
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TranscriptRequest is the body of POST /api/transcript
type TranscriptRequest struct {
	PodcastInfo *PodcastInfo `json:"podcastInfo"`
	Timestamp   *float64     `json:"timestamp"`
	TimeRange   *TimeRange   `json:"timeRange,omitempty"`
}

// ExtractResult is the payload of a successful POST /api/extract
type ExtractResult struct {
	ValidatedPodcast json.RawMessage `json:"validatedPodcast"`
	ValidatedEpisode json.RawMessage `json:"validatedEpisode,omitempty"`
	RecognizedText   string          `json:"recognizedText,omitempty"`
}

// StagedFile describes an uploaded file staged on local disk
type StagedFile struct {
	Path         string `json:"-"`
	Field        string `json:"field"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}
