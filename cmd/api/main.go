package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ragchat/internal/api"
	"ragchat/internal/config"
	"ragchat/internal/database"
	"ragchat/internal/llm"
	"ragchat/internal/storage"
	"ragchat/internal/vectorstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	uploads, err := storage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		slog.Error("failed to prepare upload dir", "error", err)
		os.Exit(1)
	}

	chroma := vectorstore.NewChromaStore(cfg.Chroma.URL, cfg.Chroma.Collection, cfg.Chroma.Timeout)
	ollama := llm.NewOllamaClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.Timeout)

	// The collection is created lazily on first use as well; an early
	// attempt just surfaces a misconfigured vector store at startup.
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := chroma.EnsureCollection(startupCtx); err != nil {
		slog.Warn("vector store unavailable at startup", "error", err)
	}
	cancel()

	router := api.NewRouter(cfg, db, chroma, ollama, uploads)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
