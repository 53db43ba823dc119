package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/pgvector"
)

// Retriever is the external similarity-search collaborator. Results come back
// most-relevant-first.
type Retriever interface {
	AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error)
	Search(ctx context.Context, query string, k int, filter map[string]any) ([]schema.Document, error)
	DeleteIDs(ctx context.Context, ids []string) error
	RemoveCollection(ctx context.Context) error
}

// PGVectorRetriever stores and searches embeddings in a pgvector collection.
// It keeps a pgx pool alongside the langchaingo store for the operations the
// store does not expose (deleting individual embedding rows).
type PGVectorRetriever struct {
	store      pgvector.Store
	pool       *pgxpool.Pool
	collection string
}

// NewPGVectorRetriever connects to the pgvector-enabled database and binds the
// named collection.
func NewPGVectorRetriever(ctx context.Context, connectionURL, collection string, embedder embeddings.Embedder) (*PGVectorRetriever, error) {
	pool, err := pgxpool.New(ctx, connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	store, err := pgvector.New(ctx,
		pgvector.WithConn(pool),
		pgvector.WithEmbedder(embedder),
		pgvector.WithCollectionName(collection),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create pgvector store: %w", err)
	}

	return &PGVectorRetriever{store: store, pool: pool, collection: collection}, nil
}

// AddDocuments embeds and upserts the documents, returning the generated
// vector IDs in document order.
func (r *PGVectorRetriever) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	ids, err := r.store.AddDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to add documents to collection %s: %w", r.collection, err)
	}
	return ids, nil
}

// Search runs a similarity query and returns up to k passages, most relevant
// first. A nil filter matches everything.
func (r *PGVectorRetriever) Search(ctx context.Context, query string, k int, filter map[string]any) ([]schema.Document, error) {
	var opts []vectorstores.Option
	if len(filter) > 0 {
		opts = append(opts, vectorstores.WithFilters(filter))
	}

	docs, err := r.store.SimilaritySearch(ctx, query, k, opts...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed in collection %s: %w", r.collection, err)
	}
	return docs, nil
}

// DeleteIDs removes individual embedding rows. langchaingo's pgvector store
// has no per-ID delete, so this goes straight at its embedding table.
func (r *PGVectorRetriever) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM langchain_pg_embedding WHERE uuid = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		log.Warn().
			Int64("deleted", tag.RowsAffected()).
			Int("requested", len(ids)).
			Str("collection", r.collection).
			Msg("Some vector IDs were already gone")
	}
	return nil
}

// RemoveCollection drops the whole collection and its embeddings.
func (r *PGVectorRetriever) RemoveCollection(ctx context.Context) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove collection %s: %w", r.collection, err)
	}
	if err := r.store.RemoveCollection(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to remove collection %s: %w", r.collection, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to remove collection %s: %w", r.collection, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *PGVectorRetriever) Close() {
	r.pool.Close()
}
