// Package services implements the business logic that orchestrates the
// external collaborators
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/models"
	"go.uber.org/zap"
)

// DirectoryService is the interface that wraps the podcast directory lookup
// used to resolve episode audio URLs.
type DirectoryService interface {
	// Method GetEpisodeAudioURL resolves a playable audio URL for the episode
	// identified by episodeID (GUID, or numeric directory ID as fallback).
	//
	// An empty string with a nil error means the directory knows no audio URL
	// for this episode.
	GetEpisodeAudioURL(ctx context.Context, episodeID string) (string, error)
}

// TranscriptionService is the interface that wraps the external
// transcription API.
type TranscriptionService interface {
	// Method GetTranscript fetches a transcript snippet for the given audio
	// URL around timestamp, or within timeRange when provided.
	//
	// The returned payload is the transcription API's response verbatim.
	GetTranscript(ctx context.Context, audioURL string, timestamp float64, timeRange *models.TimeRange) (json.RawMessage, error)
}

// transcriptService resolves episode audio and fetches transcript snippets
type transcriptService struct {
	directory     DirectoryService
	transcription TranscriptionService
	logger        *zap.Logger
}

// NewTranscriptService creates a new transcript service
func NewTranscriptService(directory DirectoryService, transcription TranscriptionService, logger *zap.Logger) *transcriptService {
	return &transcriptService{
		directory:     directory,
		transcription: transcription,
		logger:        logger,
	}
}

// GetSnippet resolves the episode's audio URL through the directory and
// fetches the transcript snippet for the requested position. The
// transcription payload is passed through unmodified.
func (s *transcriptService) GetSnippet(ctx context.Context, info *models.PodcastInfo, timestamp float64, timeRange *models.TimeRange) (json.RawMessage, error) {
	var ref models.EpisodeRef
	if err := json.Unmarshal(info.ValidatedEpisode, &ref); err != nil {
		return nil, apperrors.NewValidation("Podcast or episode information not found")
	}

	episodeID := ref.GUID
	if episodeID == "" {
		episodeID = ref.ID.String()
	}
	if episodeID == "" {
		// Nothing to look up; the directory cannot resolve audio for this episode
		return nil, apperrors.NewNotFound("Audio URL not found for this episode")
	}

	audioURL, err := s.directory.GetEpisodeAudioURL(ctx, episodeID)
	if err != nil {
		s.logger.Error("failed to resolve episode audio URL",
			zap.String("episode_id", episodeID), zap.Error(err))
		return nil, fmt.Errorf("failed to resolve audio URL: %w", err)
	}
	if audioURL == "" {
		return nil, apperrors.NewNotFound("Audio URL not found for this episode")
	}

	snippet, err := s.transcription.GetTranscript(ctx, audioURL, timestamp, timeRange)
	if err != nil {
		s.logger.Error("failed to fetch transcript",
			zap.String("audio_url", audioURL), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	return snippet, nil
}
