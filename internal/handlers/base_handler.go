// Package handlers contains the HTTP handlers of the API
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/middleware"
	"github.com/podsnap/backend/internal/models"
	"go.uber.org/zap"
)

// redactedMessage replaces 500 error detail outside development mode
const redactedMessage = "Internal server error"

// maxLoggedBody bounds the request body excerpt kept for the audit log
const maxLoggedBody = 2048

type contextKey string

const loggedBodyKey contextKey = "loggedBody"

// withLoggedBody attaches a bounded copy of the request body so respondError
// can include it in the audit log. Multipart bodies are never attached.
func withLoggedBody(r *http.Request, body []byte) *http.Request {
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	return r.WithContext(context.WithValue(r.Context(), loggedBodyKey, body))
}

func loggedBody(ctx context.Context) []byte {
	b, _ := ctx.Value(loggedBodyKey).([]byte)
	return b
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	logger      *zap.Logger
	development bool
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondSuccess sends a success envelope
func (h *BaseHandler) respondSuccess(w http.ResponseWriter, data any) {
	h.respondJSON(w, http.StatusOK, models.SuccessResponse{Success: true, Data: data})
}

// respondError classifies err, logs the full error with request context, and
// sends the matching error envelope. Messages of unclassified 500s are
// redacted outside development mode.
func (h *BaseHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := apperrors.Classify(err)

	// Unconditional audit trail before responding
	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("user_agent", r.UserAgent()),
		zap.String("type", errType),
		zap.Error(err),
	}
	if body := loggedBody(r.Context()); len(body) > 0 {
		fields = append(fields, zap.ByteString("body", body))
	}
	h.logger.Error("request failed", fields...)

	message := err.Error()
	if status == http.StatusInternalServerError && errType == apperrors.TypeServer && !h.development {
		message = redactedMessage
	}

	h.respondJSON(w, status, models.ErrorResponse{
		Success: false,
		Error:   models.ErrorBody{Message: message, Type: errType},
	})
}

// MethodNotAllowed is the router-level handler for unsupported methods
func (h *BaseHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, &apperrors.MethodNotAllowedError{})
}

// NotFound is the router-level handler for unknown routes
func (h *BaseHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, apperrors.NewNotFound("Route not found"))
}

// NewBaseHandler creates a base handler for router-level responses
func NewBaseHandler(logger *zap.Logger, development bool) *BaseHandler {
	return &BaseHandler{logger: logger, development: development}
}
