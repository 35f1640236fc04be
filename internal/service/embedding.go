package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
	"golang.org/x/sync/errgroup"
)

const defaultLookupConcurrency = 8

// ConnectorStore is the configuration store the resolver reads from.
// Absent rows are reported as (nil, nil) and (0, false, nil); any
// non-nil error is a store failure.
type ConnectorStore interface {
	ConnectorEmbeddingConfig(ctx context.Context, connectorID int64) (*model.EmbeddingChunkConfig, error)
	ConnectorIDForDocument(ctx context.Context, documentID string) (int64, bool, error)
}

// EmbeddingResolver resolves the embedding chunk configuration a document
// or connector was indexed with.
type EmbeddingResolver struct {
	store       ConnectorStore
	defaults    model.EmbeddingChunkConfig
	enabled     bool
	concurrency int
}

// NewEmbeddingResolver creates a resolver. When enabled is false every
// lookup returns defaults without touching the store.
func NewEmbeddingResolver(store ConnectorStore, defaults model.EmbeddingChunkConfig, enabled bool, concurrency int) *EmbeddingResolver {
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}
	return &EmbeddingResolver{
		store:       store,
		defaults:    defaults,
		enabled:     enabled,
		concurrency: concurrency,
	}
}

// Default returns the system default chunk configuration.
func (r *EmbeddingResolver) Default() model.EmbeddingChunkConfig {
	return r.defaults
}

// ForConnector returns the connector's chunk configuration. A nil or zero
// id, or a connector that does not exist, yields the default.
func (r *EmbeddingResolver) ForConnector(ctx context.Context, connectorID *int64) (model.EmbeddingChunkConfig, error) {
	if !r.enabled || connectorID == nil || *connectorID == 0 {
		return r.defaults, nil
	}
	return r.connectorConfig(ctx, *connectorID)
}

// ForDocument returns the chunk configuration of the connector that owns
// documentID, or the default when the document has no owning connector.
func (r *EmbeddingResolver) ForDocument(ctx context.Context, documentID string) (model.EmbeddingChunkConfig, error) {
	if !r.enabled {
		return r.defaults, nil
	}

	connectorID, ok, err := r.store.ConnectorIDForDocument(ctx, documentID)
	if err != nil {
		slog.Error("failed to fetch owning connector for document",
			"document_id", documentID,
			"error", err,
		)
		return model.EmbeddingChunkConfig{}, &ConfigLookupError{Op: "document", Key: documentID, Err: err}
	}
	if !ok {
		return r.defaults, nil
	}
	return r.connectorConfig(ctx, connectorID)
}

// HighestForDocuments returns the configuration with the largest embedding
// size across documentIDs, starting from the default. Lookups run
// concurrently; the first store failure cancels the rest and is returned.
func (r *EmbeddingResolver) HighestForDocuments(ctx context.Context, documentIDs []string) (model.EmbeddingChunkConfig, error) {
	if !r.enabled {
		return r.defaults, nil
	}

	results := make([]model.EmbeddingChunkConfig, len(documentIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range documentIDs {
		g.Go(func() error {
			cfg, err := r.ForDocument(gctx, id)
			if err != nil {
				return err
			}
			results[i] = cfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.EmbeddingChunkConfig{}, err
	}

	// Reduce in input order so ties keep the earliest document's config.
	highest := r.defaults
	for _, cfg := range results {
		if cfg.EmbeddingSize > highest.EmbeddingSize {
			highest = cfg
		}
	}
	return highest, nil
}

func (r *EmbeddingResolver) connectorConfig(ctx context.Context, connectorID int64) (model.EmbeddingChunkConfig, error) {
	cfg, err := r.store.ConnectorEmbeddingConfig(ctx, connectorID)
	if err != nil {
		key := strconv.FormatInt(connectorID, 10)
		slog.Error("failed to fetch embedding config for connector",
			"connector_id", connectorID,
			"error", err,
		)
		return model.EmbeddingChunkConfig{}, &ConfigLookupError{Op: "connector", Key: key, Err: err}
	}
	if cfg == nil {
		return r.defaults, nil
	}
	return *cfg, nil
}
