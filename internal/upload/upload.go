// Package upload implements the multipart validation and staging middleware.
// Accepted files are staged on disk for the duration of the request and
// removed on every exit path once the wrapped handler returns.
package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/middleware"
	"github.com/podsnap/backend/internal/models"
	"github.com/podsnap/backend/internal/storage"
	"go.uber.org/zap"
)

// redactedMessage replaces 500 error detail outside development mode
const redactedMessage = "Internal server error"

// Limits bounds a single multipart upload request
type Limits struct {
	MaxFileSize int64
	MaxFiles    int
}

// DefaultLimits matches the API contract: at most 5 image files of 10 MiB each
var DefaultLimits = Limits{
	MaxFileSize: 10 << 20,
	MaxFiles:    5,
}

type contextKey string

const stagedFilesKey contextKey = "stagedFiles"

// NewContext returns a context carrying the given staged files
func NewContext(ctx context.Context, files []models.StagedFile) context.Context {
	return context.WithValue(ctx, stagedFilesKey, files)
}

// FromContext retrieves the staged files attached by the middleware
func FromContext(ctx context.Context) []models.StagedFile {
	if files, ok := ctx.Value(stagedFilesKey).([]models.StagedFile); ok {
		return files
	}
	return nil
}

// Middleware validates and stages incoming multipart image uploads before
// handler invocation. Parts that are not image/*, exceed the per-file size
// limit, or push the request over the file count limit reject the whole
// request; nothing rejected is ever left on disk.
func Middleware(store *storage.StagingStore, limits Limits, logger *zap.Logger, development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reader, err := r.MultipartReader()
			if err != nil {
				respondError(w, r, logger, development, apperrors.NewValidation("Multipart form data is required"))
				return
			}

			var staged []models.StagedFile
			cleanup := func() {
				for _, f := range staged {
					if err := store.Remove(f.Path); err != nil {
						logger.Warn("failed to remove staged file",
							zap.String("path", f.Path), zap.Error(err))
					}
				}
			}

			for {
				part, err := reader.NextPart()
				if err == io.EOF {
					break
				}
				if err != nil {
					cleanup()
					respondError(w, r, logger, development, apperrors.NewValidation("Malformed multipart form data"))
					return
				}

				// Skip non-file form fields
				if part.FileName() == "" {
					io.Copy(io.Discard, part)
					part.Close()
					continue
				}

				if len(staged) >= limits.MaxFiles {
					part.Close()
					cleanup()
					respondError(w, r, logger, development, &apperrors.FileCountError{Limit: limits.MaxFiles})
					return
				}

				contentType := part.Header.Get("Content-Type")
				if !strings.HasPrefix(contentType, "image/") {
					part.Close()
					cleanup()
					respondError(w, r, logger, development, &apperrors.FileTypeError{
						Filename:    part.FileName(),
						ContentType: contentType,
					})
					return
				}

				// Read one byte past the limit so oversize files are detected
				// without buffering the whole part in memory
				path, size, err := store.Stage(part.FormName(), part.FileName(), io.LimitReader(part, limits.MaxFileSize+1))
				part.Close()
				if err != nil {
					cleanup()
					respondError(w, r, logger, development, err)
					return
				}
				if size > limits.MaxFileSize {
					store.Remove(path)
					cleanup()
					respondError(w, r, logger, development, &apperrors.FileSizeError{
						Filename: part.FileName(),
						Limit:    limits.MaxFileSize,
					})
					return
				}

				staged = append(staged, models.StagedFile{
					Path:         path,
					Field:        part.FormName(),
					OriginalName: part.FileName(),
					ContentType:  contentType,
					Size:         size,
				})
			}

			// Staged files live only for the duration of the request
			defer cleanup()

			ctx := NewContext(r.Context(), staged)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// respondError writes the error envelope for upload rejections. Messages of
// unclassified 500s are redacted outside development mode so staging paths
// and raw os errors never reach clients.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, development bool, err error) {
	status, errType := apperrors.Classify(err)

	logger.Error("upload rejected",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("user_agent", r.UserAgent()),
		zap.String("type", errType),
		zap.Error(err),
	)

	message := err.Error()
	if status == http.StatusInternalServerError && errType == apperrors.TypeServer && !development {
		message = redactedMessage
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Success: false,
		Error:   models.ErrorBody{Message: message, Type: errType},
	})
}
