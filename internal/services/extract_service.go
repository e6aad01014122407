package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/models"
	"go.uber.org/zap"
)

// episodeSearchLimit caps how many recent episodes are fetched when matching
// a recognized episode title against a feed
const episodeSearchLimit = 100

// VisionService is the interface that wraps the OCR collaborator.
type VisionService interface {
	// Method RecognizeText runs OCR on the image file at path and returns the
	// recognized text.
	RecognizeText(ctx context.Context, path, mimeType string) (string, error)
}

// DirectorySearchService is the interface that wraps the directory search
// used to validate recognized podcast/episode titles.
type DirectorySearchService interface {
	// Method SearchPodcasts searches the directory by term, returning matching
	// feeds as raw JSON.
	SearchPodcasts(ctx context.Context, term string) ([]json.RawMessage, error)
	// Method EpisodesByFeedID lists recent episodes of a feed as raw JSON.
	EpisodesByFeedID(ctx context.Context, feedID int64, max int) ([]json.RawMessage, error)
}

// extractService turns screenshot uploads into validated podcast/episode info
type extractService struct {
	vision    VisionService
	directory DirectorySearchService
	logger    *zap.Logger
}

// NewExtractService creates a new extract service
func NewExtractService(vision VisionService, directory DirectorySearchService, logger *zap.Logger) *extractService {
	return &extractService{
		vision:    vision,
		directory: directory,
		logger:    logger,
	}
}

// ExtractPodcastInfo runs OCR over the staged screenshots, merges the
// recognized text, and validates it against the podcast directory. The
// matched feed and episode are returned as the directory provided them.
func (s *extractService) ExtractPodcastInfo(ctx context.Context, files []models.StagedFile) (*models.ExtractResult, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidation("No image files uploaded")
	}

	texts := make([]string, 0, len(files))
	for _, f := range files {
		text, err := s.vision.RecognizeText(ctx, f.Path, f.ContentType)
		if err != nil {
			s.logger.Error("OCR failed for staged file",
				zap.String("file", f.OriginalName), zap.Error(err))
			return nil, fmt.Errorf("failed to recognize text: %w", err)
		}
		texts = append(texts, text)
	}
	merged := strings.Join(texts, "\n")

	lines := candidateLines(merged)
	if len(lines) == 0 {
		return nil, apperrors.NewNotFound("No podcast information recognized in the screenshots")
	}

	feed, err := s.findPodcast(ctx, lines)
	if err != nil {
		return nil, err
	}

	result := &models.ExtractResult{
		ValidatedPodcast: feed,
		RecognizedText:   merged,
	}

	// Episode matching is best effort: a screenshot of a show page may not
	// name any particular episode
	episode, err := s.findEpisode(ctx, feed, lines)
	if err != nil {
		s.logger.Warn("episode lookup failed, returning podcast only", zap.Error(err))
	} else if episode != nil {
		result.ValidatedEpisode = episode
	}

	return result, nil
}

// findPodcast tries each candidate line as a directory search term and
// returns the first matching feed
func (s *extractService) findPodcast(ctx context.Context, lines []string) (json.RawMessage, error) {
	for _, line := range lines {
		feeds, err := s.directory.SearchPodcasts(ctx, line)
		if err != nil {
			s.logger.Error("directory search failed",
				zap.String("term", line), zap.Error(err))
			return nil, fmt.Errorf("failed to search podcast directory: %w", err)
		}
		if len(feeds) > 0 {
			return feeds[0], nil
		}
	}
	return nil, apperrors.NewNotFound("No podcast found matching the screenshot")
}

// findEpisode looks for an episode of the feed whose title appears in the
// recognized lines. Returns nil without error when no episode matches.
func (s *extractService) findEpisode(ctx context.Context, feed json.RawMessage, lines []string) (json.RawMessage, error) {
	var feedRef struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(feed, &feedRef); err != nil || feedRef.ID == 0 {
		return nil, nil
	}

	episodes, err := s.directory.EpisodesByFeedID(ctx, feedRef.ID, episodeSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed episodes: %w", err)
	}

	for _, episode := range episodes {
		var ref struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(episode, &ref); err != nil || ref.Title == "" {
			continue
		}
		title := normalize(ref.Title)
		for _, line := range lines {
			candidate := normalize(line)
			if strings.Contains(candidate, title) || strings.Contains(title, candidate) {
				return episode, nil
			}
		}
	}
	return nil, nil
}

// candidateLines splits recognized text into trimmed non-trivial lines,
// longest first, since titles tend to be the longest text on an episode screen
func candidateLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		// Short fragments are timestamps, button labels and similar UI noise
		if len(line) >= 4 {
			lines = append(lines, line)
		}
	}
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && len(lines[j]) > len(lines[j-1]); j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
	return lines
}

// normalize lowercases and collapses whitespace for fuzzy title comparison
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
