package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/models"
)

// RateLimitHandler answers requests rejected by the rate limiter with the
// JSON error envelope instead of the limiter's plain-text default
func RateLimitHandler(w http.ResponseWriter, r *http.Request) {
	rateErr := &apperrors.RateLimitError{}
	status, errType := apperrors.Classify(rateErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Success: false,
		Error:   models.ErrorBody{Message: rateErr.Error(), Type: errType},
	})
}
