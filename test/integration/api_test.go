package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/podsnap/backend/internal/clients"
	"github.com/podsnap/backend/internal/config"
	"github.com/podsnap/backend/internal/handlers"
	"github.com/podsnap/backend/internal/middleware"
	"github.com/podsnap/backend/internal/services"
	"github.com/podsnap/backend/internal/storage"
	"github.com/podsnap/backend/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCollaborators hosts fake directory, transcription and vision services
type stubCollaborators struct {
	directory     *httptest.Server
	transcription *httptest.Server

	audioURLByGUID map[string]string
	transcript     string
	directoryHits  int
}

func newStubCollaborators(t *testing.T) *stubCollaborators {
	t.Helper()
	s := &stubCollaborators{
		audioURLByGUID: map[string]string{},
		transcript:     `{"text":"hello"}`,
	}

	s.directory = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.directoryHits++
		switch r.URL.Path {
		case "/episodes/byguid":
			url := s.audioURLByGUID[r.URL.Query().Get("guid")]
			if url == "" {
				w.Write([]byte(`{"episode":null}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"episode": map[string]any{"enclosureUrl": url},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.directory.Close)

	s.transcription = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(s.transcript))
	}))
	t.Cleanup(s.transcription.Close)

	return s
}

// newTestRouter builds the router exactly as cmd/main.go wires it
func newTestRouter(t *testing.T, stubs *stubCollaborators) chi.Router {
	t.Helper()

	cfg, err := config.LoadTestConfig()
	require.NoError(t, err)
	cfg.Directory.BaseURL = stubs.directory.URL
	cfg.Transcription.BaseURL = stubs.transcription.URL
	cfg.Vision.BaseURL = stubs.transcription.URL
	cfg.Vision.CredentialsPath = ""

	logger := zap.NewNop()

	store, err := storage.NewStagingStore(t.TempDir())
	require.NoError(t, err)

	directoryClient := clients.NewDirectoryClient(cfg.Directory, logger)
	transcriptionClient := clients.NewTranscriptionClient(cfg.Transcription, logger)
	visionClient := clients.NewVisionClient(cfg.Vision, logger)

	transcriptService := services.NewTranscriptService(directoryClient, transcriptionClient, logger)
	extractService := services.NewExtractService(visionClient, directoryClient, logger)

	baseHandler := handlers.NewBaseHandler(logger, true)
	transcriptHandler := handlers.NewTranscriptHandler(transcriptService, logger, true)
	extractHandler := handlers.NewExtractHandler(extractService, logger, true)
	uploadMw := upload.Middleware(store, upload.DefaultLimits, logger, true)

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.MethodNotAllowed(baseHandler.MethodNotAllowed)
	r.NotFound(baseHandler.NotFound)
	r.Route("/api", func(r chi.Router) {
		transcriptHandler.RegisterRoutes(r)
		extractHandler.RegisterRoutes(r, uploadMw)
	})
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTranscriptEndpoint(t *testing.T) {
	body := `{"podcastInfo":{"validatedPodcast":{},"validatedEpisode":{"guid":"abc"}},"timestamp":120}`

	t.Run("returns 404 when the directory has no audio URL", func(t *testing.T) {
		stubs := newStubCollaborators(t)
		router := newTestRouter(t, stubs)

		rec := doJSON(t, router, http.MethodPost, "/api/transcript", body)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var resp struct {
			Success bool `json:"success"`
			Error   struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "Audio URL not found for this episode", resp.Error.Message)
	})

	t.Run("returns the transcript verbatim when everything resolves", func(t *testing.T) {
		stubs := newStubCollaborators(t)
		stubs.audioURLByGUID["abc"] = "http://audio/ep.mp3"
		router := newTestRouter(t, stubs)

		rec := doJSON(t, router, http.MethodPost, "/api/transcript", body)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"data":{"text":"hello"}}`, rec.Body.String())
	})

	t.Run("rejects non-POST methods with a 405 envelope", func(t *testing.T) {
		stubs := newStubCollaborators(t)
		router := newTestRouter(t, stubs)

		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rec := doJSON(t, router, method, "/api/transcript", "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
			assert.Contains(t, rec.Body.String(), `"Method not allowed"`)
		}
	})

	t.Run("answers CORS preflight", func(t *testing.T) {
		stubs := newStubCollaborators(t)
		router := newTestRouter(t, stubs)

		req := httptest.NewRequest(http.MethodOptions, "/api/transcript", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "OPTIONS")
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	})

	t.Run("missing fields never reach the collaborators", func(t *testing.T) {
		stubs := newStubCollaborators(t)
		router := newTestRouter(t, stubs)

		rec := doJSON(t, router, http.MethodPost, "/api/transcript", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, stubs.directoryHits)
	})
}

func TestExtractEndpointUploadLimits(t *testing.T) {
	buildMultipart := func(t *testing.T, n int) (*bytes.Buffer, string) {
		t.Helper()
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for i := 0; i < n; i++ {
			header := textproto.MIMEHeader{}
			header.Set("Content-Disposition",
				fmt.Sprintf(`form-data; name="images"; filename="screen%d.png"`, i))
			header.Set("Content-Type", "image/png")
			part, err := mw.CreatePart(header)
			require.NoError(t, err)
			_, err = part.Write([]byte("png bytes"))
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())
		return buf, mw.FormDataContentType()
	}

	t.Run("six files are rejected with FILE_COUNT_ERROR", func(t *testing.T) {
		stubs := newStubCollaborators(t)
		router := newTestRouter(t, stubs)

		body, contentType := buildMultipart(t, 6)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), `"FILE_COUNT_ERROR"`)
	})

	t.Run("missing vision credentials surface as CREDENTIALS_ERROR", func(t *testing.T) {
		stubs := newStubCollaborators(t)
		router := newTestRouter(t, stubs)

		body, contentType := buildMultipart(t, 1)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"CREDENTIALS_ERROR"`)
		assert.Contains(t, rec.Body.String(), "GOOGLE_APPLICATION_CREDENTIALS")
	})
}

func TestEnvelopeShape(t *testing.T) {
	// Every response body is exactly one of the two envelope shapes and
	// success is always a boolean
	stubs := newStubCollaborators(t)
	router := newTestRouter(t, stubs)

	for _, tc := range []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/transcript", `{}`},
		{http.MethodGet, "/api/transcript", ""},
		{http.MethodGet, "/nope", ""},
	} {
		rec := doJSON(t, router, tc.method, tc.path, tc.body)

		var envelope map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), "%s %s", tc.method, tc.path)
		success, ok := envelope["success"].(bool)
		require.True(t, ok, "success must be boolean for %s %s", tc.method, tc.path)
		if success {
			assert.Contains(t, envelope, "data")
		} else {
			assert.Contains(t, envelope, "error")
		}
	}
}
