// Package db is the Postgres/pgvector vector index backend, an alternative to
// the embedded chromem store for deployments that already run Postgres.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdfchat/internal/config"
	"pdfchat/internal/models"
)

// entryRow is one vector index entry. The embedding column is a pgvector
// value; the table is created with the dimension fixed at 384 (all-MiniLM
// family), so a different embedding model needs a migration.
type entryRow struct {
	bun.BaseModel `bun:"table:entries,alias:e"`
	ID            int64   `bun:"id,pk,autoincrement"`
	EntryID       string  `bun:"entry_id,notnull,unique"`
	Namespace     string  `bun:"namespace,notnull"`
	Content       string  `bun:"content,notnull"`
	Source        string  `bun:"source"`
	ChunkID       string  `bun:"chunk_id"`
	Embedding     string  `bun:"embedding,notnull,type:vector(384)"`
	Distance      float64 `bun:"distance,scanonly"`
}

// Store is the bun-backed vector index.
type Store struct {
	db *bun.DB
}

// Connect opens the Postgres connection and prepares the entries table.
func Connect(ctx context.Context, cfg *config.StoreConfig) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	))
	bundb := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		bundb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	store := &Store{db: bundb}
	if err := store.init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: create vector extension: %v", models.ErrIndexUnavailable, err)
	}
	if _, err := s.db.NewCreateTable().Model((*entryRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create entries table: %v", models.ErrIndexUnavailable, err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes all entries in one transaction so a failed ingestion leaves no
// partial state behind. Conflicting entry IDs are overwritten.
func (s *Store) Upsert(ctx context.Context, namespace string, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, len(entries))
	for i, entry := range entries {
		rows[i] = entryRow{
			EntryID:   entry.ID,
			Namespace: namespace,
			Content:   entry.Metadata[models.MetaContent],
			Source:    entry.Metadata[models.MetaSource],
			ChunkID:   entry.Metadata[models.MetaChunkID],
			Embedding: vectorLiteral(entry.Embedding),
		}
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (entry_id) DO UPDATE").
			Set("namespace = EXCLUDED.namespace").
			Set("content = EXCLUDED.content").
			Set("source = EXCLUDED.source").
			Set("chunk_id = EXCLUDED.chunk_id").
			Set("embedding = EXCLUDED.embedding").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %d entries: %v", models.ErrIndexUnavailable, len(rows), err)
	}
	return nil
}

// Search returns up to k nearest entries in the namespace by cosine distance,
// best first. An empty namespace yields zero matches.
func (s *Store) Search(ctx context.Context, namespace string, vector []float32, k int) ([]models.Match, error) {
	lit := vectorLiteral(vector)
	var rows []entryRow
	err := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("e.*").
		ColumnExpr("e.embedding <=> ?::vector AS distance", lit).
		Where("e.namespace = ?", namespace).
		OrderExpr("e.embedding <=> ?::vector", lit).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", models.ErrIndexUnavailable, namespace, err)
	}

	matches := make([]models.Match, len(rows))
	for i, row := range rows {
		matches[i] = models.Match{
			ID:      row.EntryID,
			Score:   float32(1 - row.Distance),
			Content: row.Content,
			Metadata: map[string]string{
				models.MetaContent: row.Content,
				models.MetaSource:  row.Source,
				models.MetaChunkID: row.ChunkID,
			},
		}
	}
	return matches, nil
}

// Reset deletes every entry in the namespace.
func (s *Store) Reset(ctx context.Context, namespace string) error {
	_, err := s.db.NewDelete().
		Model((*entryRow)(nil)).
		Where("namespace = ?", namespace).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: reset %s: %v", models.ErrIndexUnavailable, namespace, err)
	}
	return nil
}

// vectorLiteral renders a pgvector input literal, e.g. [0.1,0.2,0.3].
func vectorLiteral(vector []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
