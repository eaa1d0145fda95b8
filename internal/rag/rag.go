// Package rag implements the two pipelines of the system: ingestion (split,
// embed, upsert) and query (embed, retrieve, generate). Both are single
// forward passes; any failing step terminates the pipeline with its error.
package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"pdfchat/internal/config"
	"pdfchat/internal/embedding"
	"pdfchat/internal/models"
	"pdfchat/internal/parser"
)

// VectorStore is the contract the pipelines need from a vector index backend.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, entries []models.Entry) error
	Search(ctx context.Context, namespace string, vector []float32, k int) ([]models.Match, error)
	Reset(ctx context.Context, namespace string) error
}

// Generator produces an answer from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// RAG bundles the store, the shared embedding function and the generator.
type RAG struct {
	store     VectorStore
	embedder  embeddings.Embedder
	generator Generator
	cfg       *config.Config
}

func NewRAG(store VectorStore, embedder embeddings.Embedder, generator Generator, cfg *config.Config) *RAG {
	return &RAG{store: store, embedder: embedder, generator: generator, cfg: cfg}
}

// Ingest splits text into overlapping chunks, embeds them and upserts them
// into the namespace. All-or-nothing: a failure to embed or upsert any chunk
// fails the whole document. Returns the number of chunks stored.
func (r *RAG) Ingest(ctx context.Context, namespace, source, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: document contains no text", models.ErrDocumentUnreadable)
	}

	chunks, err := parser.Split(text, source, r.cfg.RAG.ChunkSize, r.cfg.RAG.ChunkOverlap)
	if err != nil {
		return 0, err
	}

	embedCtx, cancel := r.callContext(ctx)
	defer cancel()
	vectors, err := embedding.EmbedChunks(embedCtx, r.embedder, chunks)
	if err != nil {
		return 0, r.deadlineOr(embedCtx, err)
	}

	entries := make([]models.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = models.Entry{
			ID:        fmt.Sprintf("%s-%d", source, chunk.ChunkID),
			Embedding: vectors[i],
			Metadata: map[string]string{
				models.MetaContent: chunk.Content,
				models.MetaSource:  chunk.Source,
				models.MetaChunkID: strconv.Itoa(chunk.ChunkID),
			},
		}
	}

	upsertCtx, cancel := r.callContext(ctx)
	defer cancel()
	if err := r.store.Upsert(upsertCtx, namespace, entries); err != nil {
		return 0, r.deadlineOr(upsertCtx, err)
	}

	log.Info().Str("namespace", namespace).Str("source", source).
		Int("chunks", len(entries)).Msg("document ingested")
	return len(entries), nil
}

// Query embeds the question with the same model used for ingestion, retrieves
// the top-k nearest chunks and asks the generative model for an answer
// grounded in them. Zero retrieved chunks is a recognized outcome: the
// response carries the fixed no-context answer instead of a fabricated one.
func (r *RAG) Query(ctx context.Context, namespace, question string) (*models.PromptResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	embedCtx, cancel := r.callContext(ctx)
	defer cancel()
	vector, err := r.embedder.EmbedQuery(embedCtx, question)
	if err != nil {
		return nil, r.deadlineOr(embedCtx, fmt.Errorf("%w: %v", models.ErrEmbeddingFailure, err))
	}

	searchCtx, cancel := r.callContext(ctx)
	defer cancel()
	matches, err := r.store.Search(searchCtx, namespace, vector, r.cfg.RAG.TopK)
	if err != nil {
		return nil, r.deadlineOr(searchCtx, err)
	}

	if len(matches) == 0 {
		log.Debug().Str("namespace", namespace).Msg("no relevant context for question")
		return &models.PromptResponse{
			Query:     question,
			Content:   models.NoContextAnswer,
			NoContext: true,
		}, nil
	}

	prompt := fmt.Sprintf(models.RAGPromptTemplate, buildContext(matches), question)

	genCtx, cancel := r.callContext(ctx)
	defer cancel()
	answer, err := r.generator.Generate(genCtx, models.SystemPromptTemplate, prompt)
	if err != nil {
		return nil, r.deadlineOr(genCtx, err)
	}

	return &models.PromptResponse{
		Query:   question,
		Content: answer,
		Source:  formatSources(matches),
		Matches: matches,
	}, nil
}

// buildContext concatenates the retrieved chunk texts, each labeled with its
// origin so the model can cite it.
func buildContext(matches []models.Match) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("[Source: %s, chunk %s]\n%s",
			m.Metadata[models.MetaSource], m.Metadata[models.MetaChunkID], m.Content)
	}
	return strings.Join(parts, models.ContextSeparator)
}

// formatSources lists the distinct origins of the retrieved chunks, in
// retrieval order, for display next to the answer.
func formatSources(matches []models.Match) string {
	seen := make(map[string]bool)
	var lines []string
	for _, m := range matches {
		key := fmt.Sprintf("%s (chunk %s)", m.Metadata[models.MetaSource], m.Metadata[models.MetaChunkID])
		if seen[key] {
			continue
		}
		seen[key] = true
		lines = append(lines, "- "+key)
	}
	return strings.Join(lines, "\n")
}

// callContext derives a per-call deadline for one external call.
func (r *RAG) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.RAG.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.cfg.RAG.CallTimeout.Std())
}

// deadlineOr surfaces an exceeded per-call deadline as its own failure kind,
// keeping the step's error as detail.
func (r *RAG) deadlineOr(callCtx context.Context, err error) error {
	if callCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", models.ErrDeadline, err)
	}
	return err
}
