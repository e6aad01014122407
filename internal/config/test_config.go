package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration from the .env file or environment variables for tests
// If .env file doesn't exist or environment variables are not set, returns a Config with
// development defaults so tests never require real collaborator credentials
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		Env: "development",
	}
	cfg.Server.Port = 3001
	cfg.Logging.Level = "debug"
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.Upload.Dir = os.TempDir()
	cfg.Upload.MaxAge = time.Hour
	cfg.Upload.SweepInterval = 10 * time.Minute

	cfg.Directory.BaseURL = os.Getenv("TEST_PODCAST_INDEX_API_URL")
	cfg.Directory.APIKey = os.Getenv("TEST_PODCAST_INDEX_API_KEY")
	if cfg.Directory.APIKey == "" {
		cfg.Directory.APIKey = "test-key"
	}
	cfg.Directory.APISecret = os.Getenv("TEST_PODCAST_INDEX_API_SECRET")
	if cfg.Directory.APISecret == "" {
		cfg.Directory.APISecret = "test-secret"
	}

	cfg.Transcription.BaseURL = os.Getenv("TEST_TRANSCRIPTION_API_URL")
	cfg.Transcription.APIKey = os.Getenv("TEST_TRANSCRIPTION_API_KEY")

	cfg.Vision.BaseURL = os.Getenv("TEST_VISION_API_URL")
	cfg.Vision.CredentialsPath = os.Getenv("TEST_GOOGLE_APPLICATION_CREDENTIALS")

	maxAgeStr := os.Getenv("TEST_UPLOAD_MAX_AGE")
	if maxAgeStr != "" {
		maxAge, err := time.ParseDuration(maxAgeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TEST_UPLOAD_MAX_AGE: %w", err)
		}
		cfg.Upload.MaxAge = maxAge
	}

	return cfg, nil
}
