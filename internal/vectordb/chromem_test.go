package vectordb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"pdfchat/internal/models"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore("")
	require.NoError(t, err)
	return store
}

func entry(id, content string, embedding []float32) models.Entry {
	return models.Entry{
		ID:        id,
		Embedding: embedding,
		Metadata: map[string]string{
			models.MetaContent: content,
			models.MetaSource:  "test.txt",
			models.MetaChunkID: id,
		},
	}
}

func TestChromemStore_UpsertAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, "ns", []models.Entry{
		entry("1", "alpha", []float32{1, 0, 0}),
		entry("2", "beta", []float32{0, 1, 0}),
		entry("3", "gamma", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	// query vector closest to entry 1, then 2, then 3
	matches, err := store.Search(ctx, "ns", []float32{0.8, 0.6, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, "1", matches[0].ID)
	require.Equal(t, "2", matches[1].ID)
	require.Equal(t, "alpha", matches[0].Content)
	require.Equal(t, "test.txt", matches[0].Metadata[models.MetaSource])
	require.Greater(t, matches[0].Score, matches[1].Score)
}

func TestChromemStore_SearchClampsK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, "ns", []models.Entry{
		entry("1", "alpha", []float32{1, 0, 0}),
		entry("2", "beta", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	matches, err := store.Search(ctx, "ns", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestChromemStore_EmptyNamespace(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Search(context.Background(), "missing", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestChromemStore_NamespaceIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "doc-a", []models.Entry{
		entry("a1", "from document a", []float32{1, 0, 0}),
	}))
	require.NoError(t, store.Upsert(ctx, "doc-b", []models.Entry{
		entry("b1", "from document b", []float32{1, 0, 0}),
	}))

	matches, err := store.Search(ctx, "doc-a", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a1", matches[0].ID)
}

func TestChromemStore_UpsertTwiceIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []models.Entry{
		entry("1", "alpha", []float32{1, 0, 0}),
		entry("2", "beta", []float32{0, 1, 0}),
	}
	require.NoError(t, store.Upsert(ctx, "ns", entries))
	require.NoError(t, store.Upsert(ctx, "ns", entries))

	matches, err := store.Search(ctx, "ns", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestChromemStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "ns", []models.Entry{
		entry("1", "alpha", []float32{1, 0, 0}),
	}))
	require.NoError(t, store.Reset(ctx, "ns"))

	matches, err := store.Search(ctx, "ns", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Empty(t, matches)

	// resetting an already absent namespace is a no-op
	require.NoError(t, store.Reset(ctx, "ns"))
}

func TestChromemStore_ManyEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var entries []models.Entry
	for i := 0; i < 50; i++ {
		v := []float32{float32(i) + 1, 1, 0}
		entries = append(entries, entry(fmt.Sprintf("%d", i), fmt.Sprintf("chunk %d", i), v))
	}
	require.NoError(t, store.Upsert(ctx, "ns", entries))

	matches, err := store.Search(ctx, "ns", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 5)
}
