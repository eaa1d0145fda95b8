package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"pdfchat/internal/models"
	"pdfchat/internal/parser"
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer    string        `json:"answer"`
	NoContext bool          `json:"no_context"`
	Sources   []sourceChunk `json:"sources"`
}

type sourceChunk struct {
	ID      string  `json:"id"`
	Score   float32 `json:"score"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	ChunkID string  `json:"chunk_id"`
}

type uploadResponse struct {
	SessionID   string `json:"session_id"`
	Filename    string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err := s.store.Reset(r.Context(), sess.Namespace); err != nil {
		writeError(w, err)
		return
	}
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadDocument runs the ingestion pipeline: extract, split, embed,
// upsert. A new upload replaces the session's previous document entirely, so
// stale chunks can never answer later questions.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	maxBytes := int64(s.cfg.RAG.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	text, err := parser.ExtractBytes(content, strings.ToLower(filepath.Ext(header.Filename)))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.Reset(r.Context(), sess.Namespace); err != nil {
		writeError(w, err)
		return
	}
	count, err := s.rag.Ingest(r.Context(), sess.Namespace, header.Filename, text)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, ok := s.sessions.BindDocument(sess.ID, header.Filename); !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		SessionID:   sess.ID,
		Filename:    header.Filename,
		ChunksAdded: count,
	})
}

// handleChat runs the query pipeline for one turn and appends it to the
// session history.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	response, err := s.rag.Query(r.Context(), sess.Namespace, req.Question)
	if err != nil {
		writeError(w, err)
		return
	}

	s.sessions.AppendTurn(sess.ID, models.RoleUser, response.Query)
	s.sessions.AppendTurn(sess.ID, models.RoleAssistant, response.Content)

	sources := make([]sourceChunk, len(response.Matches))
	for i, m := range response.Matches {
		sources[i] = sourceChunk{
			ID:      m.ID,
			Score:   m.Score,
			Content: m.Content,
			Source:  m.Metadata[models.MetaSource],
			ChunkID: m.Metadata[models.MetaChunkID],
		}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    response.Content,
		NoContext: response.NoContext,
		Sources:   sources,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps pipeline failure kinds to HTTP statuses, keeping the
// user-facing message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrDocumentUnreadable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDeadline):
		status = http.StatusGatewayTimeout
	case errors.Is(err, models.ErrGenerationUnavailable),
		errors.Is(err, models.ErrEmbeddingFailure):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrIndexUnavailable):
		status = http.StatusServiceUnavailable
	}
	log.Error().Err(err).Int("status", status).Msg("request failed")
	http.Error(w, err.Error(), status)
}
