package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/podsnap/backend/docs"
	"github.com/podsnap/backend/internal/clients"
	"github.com/podsnap/backend/internal/config"
	"github.com/podsnap/backend/internal/handlers"
	"github.com/podsnap/backend/internal/logger"
	"github.com/podsnap/backend/internal/middleware"
	"github.com/podsnap/backend/internal/services"
	"github.com/podsnap/backend/internal/storage"
	"github.com/podsnap/backend/internal/upload"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const maxRequestSize = 64 * 1024 * 1024 // 64MB, room for 5 staged images plus form overhead

// @title Podsnap API
// @version 1.0
// @description Extracts podcast metadata from episode screenshots and fetches transcript snippets

// @host localhost:3001
// @BasePath /api
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	logLevel := cfg.Logging.Level
	if cfg.IsDevelopment() {
		logLevel = "debug"
	}
	if err := logger.Init(logLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Podsnap backend", zap.String("env", cfg.Env))

	// Initialize upload staging
	store, err := storage.NewStagingStore(cfg.Upload.Dir)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize staging store", zap.Error(err))
		os.Exit(1)
	}

	// Janitor sweeps staged uploads orphaned by crashed requests
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go store.RunJanitor(janitorCtx, cfg.Upload.SweepInterval, cfg.Upload.MaxAge, logger.Logger)

	// Initialize collaborator clients
	directoryClient := clients.NewDirectoryClient(cfg.Directory, logger.Logger)
	transcriptionClient := clients.NewTranscriptionClient(cfg.Transcription, logger.Logger)
	visionClient := clients.NewVisionClient(cfg.Vision, logger.Logger)

	// Initialize services
	transcriptService := services.NewTranscriptService(directoryClient, transcriptionClient, logger.Logger)
	extractService := services.NewExtractService(visionClient, directoryClient, logger.Logger)

	// Initialize handlers
	baseHandler := handlers.NewBaseHandler(logger.Logger, cfg.IsDevelopment())
	transcriptHandler := handlers.NewTranscriptHandler(transcriptService, logger.Logger, cfg.IsDevelopment())
	extractHandler := handlers.NewExtractHandler(extractService, logger.Logger, cfg.IsDevelopment())

	// Upload staging middleware
	uploadMw := upload.Middleware(store, upload.DefaultLimits, logger.Logger, cfg.IsDevelopment())

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.Limit(100, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(middleware.RateLimitHandler),
	))
	r.Use(middleware.RequestSizeLimitMiddleware(maxRequestSize))

	// Every response, including router-level misses, uses the JSON envelope
	r.MethodNotAllowed(baseHandler.MethodNotAllowed)
	r.NotFound(baseHandler.NotFound)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Liveness endpoint
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"status":"ok"}}`))
	})

	// Scope router to /api
	r.Route("/api", func(r chi.Router) {
		transcriptHandler.RegisterRoutes(r)
		extractHandler.RegisterRoutes(r, uploadMw)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second, // Longer timeout for file uploads
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
