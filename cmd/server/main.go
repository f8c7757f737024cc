// CallCue - real-time call assistant server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/mkorolev/callcue/internal/api"
	"github.com/mkorolev/callcue/internal/call"
	"github.com/mkorolev/callcue/internal/config"
	"github.com/mkorolev/callcue/internal/middleware"
	"github.com/mkorolev/callcue/internal/speech"
	"github.com/mkorolev/callcue/internal/store"
	"github.com/mkorolev/callcue/web"
)

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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "speech_source", cfg.SpeechSource)

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

	settings, err := repo.GetSettings(context.Background())
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		os.Exit(1)
	}
	slog.Info("Settings loaded", "mode", settings.Mode, "topics", len(settings.Topics))

	hub := call.NewHub(logger)

	// Speech source selection. The relay is fed by the browser over the
	// call socket; the simulated source generates transcript lines itself.
	// sched is declared before the source so the simulated topic supplier
	// can read live settings; it only runs once a call has started.
	var sched *call.Scheduler
	var relay *speech.Relay
	var source speech.Source
	if cfg.SpeechSource == config.SpeechSourceRelay {
		relay = speech.NewRelay(logger)
		source = relay
	} else {
		source = speech.NewSimulated(cfg.SimCadence, func() []string {
			s := sched.Settings()
			titles := make([]string, 0, len(s.Topics)+len(s.AvoidTopics))
			for _, t := range s.Topics {
				titles = append(titles, t.Title)
			}
			titles = append(titles, s.AvoidTopics...)
			return titles
		}, nil, logger)
	}

	sched = call.New(source, settings, call.DefaultTimings(), hub, nil, logger)
	defer sched.Shutdown()

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, sched)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := api.NewWebSocketHandler(hub, sched, relay, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Public routes.
	healthHandler.RegisterHealth(r)
	baseHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/call", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	// Note: the call WebSocket stays open for the whole call, so no
	// WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
