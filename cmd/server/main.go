// Mockview - AI Mock Interview Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akravets/mockview/internal/api"
	"github.com/akravets/mockview/internal/config"
	"github.com/akravets/mockview/internal/domain"
	"github.com/akravets/mockview/internal/emotion"
	"github.com/akravets/mockview/internal/events"
	"github.com/akravets/mockview/internal/identity"
	"github.com/akravets/mockview/internal/interview"
	"github.com/akravets/mockview/internal/media"
	"github.com/akravets/mockview/internal/middleware"
	"github.com/akravets/mockview/internal/novelty"
	"github.com/akravets/mockview/internal/question"
	"github.com/akravets/mockview/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

// disabledInference stands in when no inference service is configured; any
// capture that still fires resolves to the neutral fallback.
type disabledInference struct{}

func (disabledInference) SubmitImage(context.Context, []byte) (string, error) {
	return "", errors.New("emotion capture disabled")
}

func (disabledInference) JobStatus(context.Context, string) (string, error) {
	return "", errors.New("emotion capture disabled")
}

func (disabledInference) Predictions(context.Context, string) ([]domain.EmotionScore, error) {
	return nil, errors.New("emotion capture disabled")
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Question generation chain: remote service, then local model, then the
	// built-in canned questions.
	var providers []question.Provider
	if cfg.Generate.RemoteURL != "" {
		providers = append(providers, question.NewRemoteProvider(cfg.Generate.RemoteURL))
		slog.Info("Remote question generation enabled", "url", cfg.Generate.RemoteURL)
	}
	if cfg.Generate.LocalURL != "" {
		providers = append(providers, question.NewLocalProvider(cfg.Generate.LocalURL, cfg.Generate.LocalModel))
		slog.Info("Local question generation enabled", "url", cfg.Generate.LocalURL, "model", cfg.Generate.LocalModel)
	}
	if len(providers) == 0 {
		slog.Warn("No generation service configured, serving canned questions only")
	}
	gen := question.NewGenerator(
		novelty.NewStoreWithCapacity(cfg.Generate.NoveltyCapacity),
		providers,
		question.WithLogger(logger),
	)

	// Emotion capture.
	var inference emotion.InferenceClient = disabledInference{}
	if cfg.Capture.URL != "" {
		inference = emotion.NewHTTPInferenceClient(cfg.Capture.URL, cfg.Capture.APIKey)
		slog.Info("Emotion capture enabled", "url", cfg.Capture.URL)
	} else {
		slog.Info("Emotion capture disabled (INFERENCE_URL not set)")
	}
	capCfg := emotion.DefaultConfig()
	capCfg.PollInterval = cfg.Capture.PollInterval
	capCfg.MaxPollAttempts = cfg.Capture.PollAttempts

	// Optional speech collaborators.
	var speech *media.SpeechRenderer
	if cfg.Media.SpeechURL != "" {
		speech = media.NewSpeechRenderer(cfg.Media.SpeechURL, cfg.Media.SpeechVoice)
		slog.Info("Speech rendering enabled", "url", cfg.Media.SpeechURL)
	}
	var transcriber *media.Transcriber
	if cfg.Media.TranscribeURL != "" {
		transcriber = media.NewTranscriber(cfg.Media.TranscribeURL)
		slog.Info("Answer transcription enabled", "url", cfg.Media.TranscribeURL)
	}

	hub := events.NewHub(logger)

	orch := interview.New(interview.Config{
		TotalDuration: cfg.Interview.TotalDuration,
		BreakDuration: cfg.Interview.BreakDuration,
		CaptureDelay:  cfg.Interview.CaptureDelay,
	}, gen, inference, repo, hub,
		interview.WithLogger(logger),
		interview.WithSpeech(speech),
		interview.WithCaptureConfig(capCfg),
	)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, orch, transcriber)
	interviewHandler := api.NewInterviewHandler(baseHandler)
	eventsHandler := events.NewHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// All routes use identity middleware (no auth needed).
	interviewHandler.RegisterRoutes(r)

	// WebSocket event stream.
	r.Get("/ws/interview", eventsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // push streams stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reap sessions whose candidate walked away.
	store.StartSweeper(ctx, repo, cfg.SessionTTL, orch.Abandon)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orch.Shutdown(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
