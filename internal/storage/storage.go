// Package storage implements the local staging area for uploaded files
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StagingStore stages uploaded files on the local filesystem
type StagingStore struct {
	baseDir string
}

// NewStagingStore creates a staging store rooted at baseDir, creating the
// directory if needed
func NewStagingStore(baseDir string) (*StagingStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &StagingStore{baseDir: baseDir}, nil
}

// BaseDir returns the staging directory path
func (s *StagingStore) BaseDir() string {
	return s.baseDir
}

// Stage writes the reader's content to a new staged file named after the
// form field and the original filename's extension. Returns the staged path
// and the number of bytes written.
func (s *StagingStore) Stage(field, originalName string, r io.Reader) (string, int64, error) {
	name := StagedFileName(field, filepath.Ext(originalName))
	path := filepath.Join(s.baseDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create staged file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		// Never leave a partial file behind
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write staged file: %w", err)
	}

	return path, size, nil
}

// Remove deletes a staged file. Paths outside the staging directory are
// refused.
func (s *StagingStore) Remove(path string) error {
	if !s.contains(path) {
		return fmt.Errorf("path %q is outside the staging directory", path)
	}
	return os.Remove(path)
}

// Sweep removes staged files older than maxAge and returns how many were
// deleted. Staged uploads are per-request scratch space, so anything old
// enough is an orphan from a crashed or interrupted request.
func (s *StagingStore) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read staging directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// RunJanitor sweeps the staging directory immediately and then on every tick
// until the context is cancelled
func (s *StagingStore) RunJanitor(ctx context.Context, interval, maxAge time.Duration, logger *zap.Logger) {
	sweep := func() {
		removed, err := s.Sweep(maxAge)
		if err != nil {
			logger.Error("staging sweep failed", zap.Error(err))
			return
		}
		if removed > 0 {
			logger.Info("swept stale staged uploads", zap.Int("removed", removed))
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

// contains reports whether path is inside the staging directory
func (s *StagingStore) contains(path string) bool {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
