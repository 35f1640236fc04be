package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
)

// ConnectorStore reads connector embedding settings and document ownership
// from Postgres.
type ConnectorStore struct {
	db Querier
}

// NewConnectorStore creates a new ConnectorStore.
func NewConnectorStore(db Querier) *ConnectorStore {
	return &ConnectorStore{db: db}
}

// ConnectorEmbeddingConfig returns the chunk settings of a connector, or
// nil if the connector does not exist.
func (s *ConnectorStore) ConnectorEmbeddingConfig(ctx context.Context, connectorID int64) (*model.EmbeddingChunkConfig, error) {
	var cfg model.EmbeddingChunkConfig
	err := s.db.QueryRow(ctx,
		`SELECT embedding_size, chunk_overlap
		 FROM connector
		 WHERE id = $1`,
		connectorID,
	).Scan(&cfg.EmbeddingSize, &cfg.ChunkOverlap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query connector %d: %w", connectorID, err)
	}
	return &cfg, nil
}

// ConnectorIDForDocument returns the connector of the first
// connector-credential pair that indexed documentID.
func (s *ConnectorStore) ConnectorIDForDocument(ctx context.Context, documentID string) (int64, bool, error) {
	var connectorID int64
	err := s.db.QueryRow(ctx,
		`SELECT connector_id
		 FROM document_by_connector_credential_pair
		 WHERE id = $1
		 LIMIT 1`,
		documentID,
	).Scan(&connectorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query cc pair for document %q: %w", documentID, err)
	}
	return connectorID, true, nil
}
