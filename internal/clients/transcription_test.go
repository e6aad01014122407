package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/podsnap/backend/internal/apperrors"
	"github.com/podsnap/backend/internal/config"
	"github.com/podsnap/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTranscriptionClient(t *testing.T, handler http.Handler) *TranscriptionClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewTranscriptionClient(config.TranscriptionConfig{
		BaseURL: server.URL,
		APIKey:  "secret",
	}, zap.NewNop())
}

func TestTranscriptionClient_GetTranscript(t *testing.T) {
	t.Run("sends position and returns the payload verbatim", func(t *testing.T) {
		payload := `{"text":"hello","language":"en","segments":[{"start":118.2,"text":"hello"}]}`
		client := newTranscriptionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/transcript", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "http://audio/ep.mp3", req["audioUrl"])
			assert.Equal(t, 120.0, req["timestamp"])
			assert.Equal(t, map[string]any{"start": 100.0, "end": 140.0}, req["timeRange"])

			w.Write([]byte(payload))
		}))

		got, err := client.GetTranscript(context.Background(), "http://audio/ep.mp3", 120,
			&models.TimeRange{Start: 100, End: 140})

		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	})

	t.Run("omits the time range when absent", func(t *testing.T) {
		client := newTranscriptionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			_, hasRange := req["timeRange"]
			assert.False(t, hasRange)
			w.Write([]byte(`{}`))
		}))

		_, err := client.GetTranscript(context.Background(), "http://audio/ep.mp3", 120, nil)
		require.NoError(t, err)
	})

	t.Run("maps auth failures to a credentials error", func(t *testing.T) {
		client := newTranscriptionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.GetTranscript(context.Background(), "http://audio/ep.mp3", 120, nil)

		var credentials *apperrors.CredentialsError
		require.ErrorAs(t, err, &credentials)
	})

	t.Run("reports other upstream failures", func(t *testing.T) {
		client := newTranscriptionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "audio fetch failed", http.StatusBadGateway)
		}))

		_, err := client.GetTranscript(context.Background(), "http://audio/ep.mp3", 120, nil)
		require.Error(t, err)
		assert.ErrorContains(t, err, "502")
	})
}
