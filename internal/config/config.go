// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Env           string
	Server        ServerConfig
	Logging       LoggingConfig
	CORS          CORSConfig
	Upload        UploadConfig
	Directory     DirectoryConfig
	Transcription TranscriptionConfig
	Vision        VisionConfig
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// UploadConfig holds upload staging settings
type UploadConfig struct {
	Dir           string
	MaxAge        time.Duration
	SweepInterval time.Duration
}

// DirectoryConfig holds podcast directory API settings
type DirectoryConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// TranscriptionConfig holds transcription API settings
type TranscriptionConfig struct {
	BaseURL string
	APIKey  string
}

// VisionConfig holds OCR service settings
type VisionConfig struct {
	BaseURL         string
	CredentialsPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Environment: "development" enables debug logs and unredacted errors
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	cfg.Env = env

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "3001" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		// Parse comma-separated origins
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		// If no valid origins found, default to allow all
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// Upload staging configuration
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads" // default staging directory
	}
	cfg.Upload.Dir = uploadDir

	// Staged files older than this are removed by the janitor (default: 1 hour)
	maxAgeStr := os.Getenv("UPLOAD_MAX_AGE")
	if maxAgeStr == "" {
		maxAgeStr = "1h"
	}
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_AGE: %w", err)
	}
	cfg.Upload.MaxAge = maxAge

	sweepStr := os.Getenv("UPLOAD_SWEEP_INTERVAL")
	if sweepStr == "" {
		sweepStr = "10m"
	}
	sweepInterval, err := time.ParseDuration(sweepStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_SWEEP_INTERVAL: %w", err)
	}
	cfg.Upload.SweepInterval = sweepInterval

	// Podcast directory API configuration
	directoryURL := os.Getenv("PODCAST_INDEX_API_URL")
	if directoryURL == "" {
		directoryURL = "https://api.podcastindex.org/api/1.0"
	}
	cfg.Directory.BaseURL = directoryURL

	directoryKey := os.Getenv("PODCAST_INDEX_API_KEY")
	if directoryKey == "" {
		return nil, fmt.Errorf("PODCAST_INDEX_API_KEY is required")
	}
	cfg.Directory.APIKey = directoryKey

	directorySecret := os.Getenv("PODCAST_INDEX_API_SECRET")
	if directorySecret == "" {
		return nil, fmt.Errorf("PODCAST_INDEX_API_SECRET is required")
	}
	cfg.Directory.APISecret = directorySecret

	// Transcription API configuration
	transcriptionURL := os.Getenv("TRANSCRIPTION_API_URL")
	if transcriptionURL == "" {
		return nil, fmt.Errorf("TRANSCRIPTION_API_URL is required")
	}
	cfg.Transcription.BaseURL = transcriptionURL

	cfg.Transcription.APIKey = os.Getenv("TRANSCRIPTION_API_KEY") // optional

	// Vision OCR configuration
	visionURL := os.Getenv("VISION_API_URL")
	if visionURL == "" {
		return nil, fmt.Errorf("VISION_API_URL is required")
	}
	cfg.Vision.BaseURL = visionURL

	// Optional here: the vision client reports a credentials error at call
	// time when the path is empty or unreadable
	cfg.Vision.CredentialsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	return cfg, nil
}

// IsDevelopment reports whether the application runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
