// Package clients implements the HTTP clients for the external collaborators:
// the podcast directory, the transcription API, and the vision OCR service.
package clients

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/podsnap/backend/internal/config"
	"go.uber.org/zap"
)

// collaboratorTimeout bounds every collaborator round trip so a hung upstream
// cannot hang a handler indefinitely
const collaboratorTimeout = 30 * time.Second

// DirectoryClient calls a Podcast Index compatible directory API
type DirectoryClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDirectoryClient creates a directory client from config
func NewDirectoryClient(cfg config.DirectoryConfig, logger *zap.Logger) *DirectoryClient {
	return &DirectoryClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: collaboratorTimeout},
		logger:     logger,
	}
}

type episodeResponse struct {
	Episode json.RawMessage `json:"episode"`
}

type episodeEnclosure struct {
	EnclosureURL string `json:"enclosureUrl"`
}

type searchResponse struct {
	Feeds []json.RawMessage `json:"feeds"`
}

type episodesResponse struct {
	Items []json.RawMessage `json:"items"`
}

// GetEpisodeAudioURL resolves a playable audio URL for the episode identified
// by episodeID (a GUID, or a numeric directory ID as fallback). Returns an
// empty string when the directory has no audio URL for the episode.
func (c *DirectoryClient) GetEpisodeAudioURL(ctx context.Context, episodeID string) (string, error) {
	path := "/episodes/byguid"
	query := url.Values{"guid": {episodeID}}
	if _, err := strconv.ParseInt(episodeID, 10, 64); err == nil {
		path = "/episodes/byid"
		query = url.Values{"id": {episodeID}}
	}

	var resp episodeResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return "", err
	}
	if len(resp.Episode) == 0 {
		return "", nil
	}

	var enclosure episodeEnclosure
	if err := json.Unmarshal(resp.Episode, &enclosure); err != nil {
		return "", fmt.Errorf("failed to decode episode: %w", err)
	}
	return enclosure.EnclosureURL, nil
}

// SearchPodcasts searches the directory by term and returns the matching
// feeds as raw JSON, preserving whatever fields the directory provides
func (c *DirectoryClient) SearchPodcasts(ctx context.Context, term string) ([]json.RawMessage, error) {
	var resp searchResponse
	if err := c.get(ctx, "/search/byterm", url.Values{"q": {term}}, &resp); err != nil {
		return nil, err
	}
	return resp.Feeds, nil
}

// EpisodesByFeedID lists recent episodes of a feed as raw JSON
func (c *DirectoryClient) EpisodesByFeedID(ctx context.Context, feedID int64, max int) ([]json.RawMessage, error) {
	query := url.Values{
		"id":  {strconv.FormatInt(feedID, 10)},
		"max": {strconv.Itoa(max)},
	}
	var resp episodesResponse
	if err := c.get(ctx, "/episodes/byfeedid", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// get performs an authenticated GET against the directory API and decodes
// the JSON response into out
func (c *DirectoryClient) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create directory request: %w", err)
	}

	// Podcast Index auth: sha1(key + secret + unix time) with the key and
	// time echoed in headers
	authDate := strconv.FormatInt(time.Now().Unix(), 10)
	hash := sha1.Sum([]byte(c.apiKey + c.apiSecret + authDate))
	req.Header.Set("User-Agent", "podsnap-backend")
	req.Header.Set("X-Auth-Key", c.apiKey)
	req.Header.Set("X-Auth-Date", authDate)
	req.Header.Set("Authorization", fmt.Sprintf("%x", hash))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("directory API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("directory API returned status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode directory response: %w", err)
	}
	return nil
}
