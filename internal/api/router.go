package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"ragchat/internal/api/handlers"
	"ragchat/internal/api/middleware"
	"ragchat/internal/config"
	"ragchat/internal/history"
	"ragchat/internal/llm"
	"ragchat/internal/rag"
	"ragchat/internal/storage"
	"ragchat/internal/vectorstore"
)

type Router struct {
	mux     *chi.Mux
	cfg     *config.Config
	db      *sqlx.DB
	chroma  *vectorstore.ChromaStore
	ollama  *llm.OllamaClient
	uploads *storage.LocalStorage
}

func NewRouter(cfg *config.Config, db *sqlx.DB, chroma *vectorstore.ChromaStore, ollama *llm.OllamaClient, uploads *storage.LocalStorage) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		cfg:     cfg,
		db:      db,
		chroma:  chroma,
		ollama:  ollama,
		uploads: uploads,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"http://localhost:3000", "http://127.0.0.1:3000"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db,
		handlers.PingerFunc(rt.chroma.Heartbeat),
		handlers.PingerFunc(rt.ollama.Ping))
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Core pipeline wiring: everything is constructed here and injected,
	// lifecycle tied to the server.
	ingestor := rag.NewIngestor(rt.chroma, rt.cfg.Retrieval.ChunkSize)
	retriever := rag.NewRetriever(rt.chroma, rt.cfg.Retrieval.TopK, rt.cfg.Retrieval.SimilarityThreshold)
	ragSvc := rag.NewService(retriever, rt.ollama, llm.GenerateOptions{
		Temperature:   rt.cfg.Generate.Temperature,
		TopP:          rt.cfg.Generate.TopP,
		MaxTokens:     rt.cfg.Generate.MaxTokens,
		ContextWindow: rt.cfg.Generate.ContextWindow,
	})
	historySvc := history.NewService(rt.db)

	r.Route("/api/v1", func(r chi.Router) {
		docH := handlers.NewDocumentHandler(rt.uploads, ingestor, rt.cfg.Upload.MaxFileSizeMB)
		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", docH.Upload)
			r.Get("/", docH.List)
			r.Delete("/{filename}", docH.Delete)
			r.Get("/view/{filename}", docH.View)
		})

		chatH := handlers.NewChatHandler(historySvc, ragSvc)
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", chatH.CreateSession)
			r.Get("/", chatH.ListSessions)
			r.Delete("/{id}", chatH.DeleteSession)
			r.Get("/{id}/messages", chatH.ListMessages)
			r.Post("/{id}/messages", chatH.SendMessage)
		})
	})

	return r
}
