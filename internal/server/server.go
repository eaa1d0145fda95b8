// Package server exposes the ingestion and query pipelines over HTTP: upload
// a document into a session, then chat against it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"pdfchat/internal/config"
	"pdfchat/internal/rag"
	"pdfchat/internal/session"
)

// Server is the HTTP front end.
type Server struct {
	rag      *rag.RAG
	store    rag.VectorStore
	sessions *session.Manager
	cfg      *config.Config
	server   *http.Server
}

func NewServer(r *rag.RAG, store rag.VectorStore, sessions *session.Manager, cfg *config.Config) *Server {
	return &Server{
		rag:      r,
		store:    store,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Post("/sessions/{id}/documents", s.handleUploadDocument)
		r.Post("/sessions/{id}/chat", s.handleChat)
	})
	return r
}

// Start listens and serves until the server is stopped.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	log.Info().Str("addr", addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
