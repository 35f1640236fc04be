package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectorStore_ConnectorEmbeddingConfig(t *testing.T) {
	t.Run("Should return the connector chunk settings", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		rows := mockPool.NewRows([]string{"embedding_size", "chunk_overlap"}).AddRow(1024, 64)
		mockPool.ExpectQuery("SELECT embedding_size, chunk_overlap").
			WithArgs(int64(7)).
			WillReturnRows(rows)

		cfg, err := NewConnectorStore(mockPool).ConnectorEmbeddingConfig(context.Background(), 7)

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, 1024, cfg.EmbeddingSize)
		assert.Equal(t, 64, cfg.ChunkOverlap)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should return nil for an unknown connector", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		mockPool.ExpectQuery("SELECT embedding_size, chunk_overlap").
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)

		cfg, err := NewConnectorStore(mockPool).ConnectorEmbeddingConfig(context.Background(), 99)

		require.NoError(t, err)
		assert.Nil(t, cfg)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should wrap query failures", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		boom := errors.New("connection reset")
		mockPool.ExpectQuery("SELECT embedding_size, chunk_overlap").
			WithArgs(int64(3)).
			WillReturnError(boom)

		cfg, err := NewConnectorStore(mockPool).ConnectorEmbeddingConfig(context.Background(), 3)

		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "query connector 3")
	})
}

func TestConnectorStore_ConnectorIDForDocument(t *testing.T) {
	t.Run("Should return the owning connector", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		rows := mockPool.NewRows([]string{"connector_id"}).AddRow(int64(2))
		mockPool.ExpectQuery("FROM document_by_connector_credential_pair").
			WithArgs("doc-a").
			WillReturnRows(rows)

		id, found, err := NewConnectorStore(mockPool).ConnectorIDForDocument(context.Background(), "doc-a")

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(2), id)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should report not found without error", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		mockPool.ExpectQuery("FROM document_by_connector_credential_pair").
			WithArgs("doc-missing").
			WillReturnError(pgx.ErrNoRows)

		id, found, err := NewConnectorStore(mockPool).ConnectorIDForDocument(context.Background(), "doc-missing")

		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, id)
	})
}

func TestStartupChecks(t *testing.T) {
	t.Run("Should pass when all tables exist", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		for _, table := range requiredTables {
			mockPool.ExpectQuery("information_schema.tables").
				WithArgs(table).
				WillReturnRows(mockPool.NewRows([]string{"exists"}).AddRow(true))
		}

		require.NoError(t, StartupChecks(context.Background(), mockPool))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should fail on a missing table", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		mockPool.ExpectQuery("information_schema.tables").
			WithArgs("connector").
			WillReturnRows(mockPool.NewRows([]string{"exists"}).AddRow(false))

		err = StartupChecks(context.Background(), mockPool)

		require.Error(t, err)
		assert.Contains(t, err.Error(), `required table "connector" does not exist`)
	})
}
