package db

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
)

// connectorSource is what CachedConnectorStore wraps.
type connectorSource interface {
	ConnectorEmbeddingConfig(ctx context.Context, connectorID int64) (*model.EmbeddingChunkConfig, error)
	ConnectorIDForDocument(ctx context.Context, documentID string) (int64, bool, error)
}

type ownerEntry struct {
	connectorID int64
	found       bool
}

// CachedConnectorStore keeps recent lookups in expiring LRU caches.
// Misses are cached as well; errors are not.
type CachedConnectorStore struct {
	next    connectorSource
	configs *expirable.LRU[int64, *model.EmbeddingChunkConfig]
	owners  *expirable.LRU[string, ownerEntry]
}

// NewCachedConnectorStore wraps next with caches of the given size and TTL.
func NewCachedConnectorStore(next connectorSource, size int, ttl time.Duration) *CachedConnectorStore {
	return &CachedConnectorStore{
		next:    next,
		configs: expirable.NewLRU[int64, *model.EmbeddingChunkConfig](size, nil, ttl),
		owners:  expirable.NewLRU[string, ownerEntry](size, nil, ttl),
	}
}

// ConnectorEmbeddingConfig implements the store lookup with caching.
func (c *CachedConnectorStore) ConnectorEmbeddingConfig(ctx context.Context, connectorID int64) (*model.EmbeddingChunkConfig, error) {
	if cfg, ok := c.configs.Get(connectorID); ok {
		return copyConfig(cfg), nil
	}
	cfg, err := c.next.ConnectorEmbeddingConfig(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	c.configs.Add(connectorID, copyConfig(cfg))
	return cfg, nil
}

// ConnectorIDForDocument implements the ownership lookup with caching.
func (c *CachedConnectorStore) ConnectorIDForDocument(ctx context.Context, documentID string) (int64, bool, error) {
	if e, ok := c.owners.Get(documentID); ok {
		return e.connectorID, e.found, nil
	}
	id, found, err := c.next.ConnectorIDForDocument(ctx, documentID)
	if err != nil {
		return 0, false, err
	}
	c.owners.Add(documentID, ownerEntry{connectorID: id, found: found})
	return id, found, nil
}

func copyConfig(cfg *model.EmbeddingChunkConfig) *model.EmbeddingChunkConfig {
	if cfg == nil {
		return nil
	}
	out := *cfg
	return &out
}
