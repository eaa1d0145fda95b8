// Package vectordb is the embedded chromem-go vector index backend. Each
// namespace maps to one chromem collection, isolating one document's chunks
// from another's. Similarity is cosine, matching the embedding model.
package vectordb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdfchat/internal/models"
)

const compress = false

// ChromemStore wraps a chromem-go database, in-memory or persisted on disk.
type ChromemStore struct {
	db *chromem.DB
}

// NewChromemStore opens the store. An empty path means in-memory only.
func NewChromemStore(path string) (*ChromemStore, error) {
	if path == "" {
		return &ChromemStore{db: chromem.NewDB()}, nil
	}
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("%w: open store at %s: %v", models.ErrIndexUnavailable, path, err)
	}
	return &ChromemStore{db: db}, nil
}

// Upsert adds all entries to the namespace's collection in one batch.
// Duplicate IDs overwrite prior entries, so re-ingesting a document is safe.
func (s *ChromemStore) Upsert(ctx context.Context, namespace string, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	collection, err := s.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: collection %s: %v", models.ErrIndexUnavailable, namespace, err)
	}

	docs := make([]chromem.Document, len(entries))
	for i, entry := range entries {
		docs[i] = chromem.Document{
			ID:        entry.ID,
			Content:   entry.Metadata[models.MetaContent],
			Metadata:  entry.Metadata,
			Embedding: entry.Embedding,
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: upsert %d entries: %v", models.ErrIndexUnavailable, len(docs), err)
	}
	log.Debug().Str("namespace", namespace).Int("entries", len(docs)).Msg("upserted entries")
	return nil
}

// Search returns up to k nearest entries in the namespace, best first. A
// missing or empty namespace yields zero matches, never an error.
func (s *ChromemStore) Search(ctx context.Context, namespace string, vector []float32, k int) ([]models.Match, error) {
	collection := s.db.GetCollection(namespace, nil)
	if collection == nil {
		return nil, nil
	}
	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", models.ErrIndexUnavailable, namespace, err)
	}

	matches := make([]models.Match, len(results))
	for i, r := range results {
		matches[i] = models.Match{
			ID:       r.ID,
			Score:    r.Similarity,
			Content:  r.Content,
			Metadata: r.Metadata,
		}
	}
	return matches, nil
}

// Reset removes the namespace's collection entirely. Used when a session
// replaces its document, so stale chunks cannot leak into later queries.
func (s *ChromemStore) Reset(ctx context.Context, namespace string) error {
	if s.db.GetCollection(namespace, nil) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(namespace); err != nil {
		return fmt.Errorf("%w: reset %s: %v", models.ErrIndexUnavailable, namespace, err)
	}
	return nil
}
