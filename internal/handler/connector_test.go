package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
	"github.com/jharjadi/pro-rag/context-api-go/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	configs map[int64]model.EmbeddingChunkConfig
	err     error
}

func (f *fakeLookup) ForConnector(_ context.Context, id *int64) (model.EmbeddingChunkConfig, error) {
	if f.err != nil {
		return model.EmbeddingChunkConfig{}, f.err
	}
	if cfg, ok := f.configs[*id]; ok {
		return cfg, nil
	}
	return model.EmbeddingChunkConfig{EmbeddingSize: 512}, nil
}

func getConnectorConfig(lookup EmbeddingLookup, id string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/v1/connectors/{id}/embedding-config", NewConnectorHandler(lookup).EmbeddingConfig)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/connectors/"+id+"/embedding-config", nil))
	return rr
}

func TestConnectorHandler_EmbeddingConfig(t *testing.T) {
	lookup := &fakeLookup{configs: map[int64]model.EmbeddingChunkConfig{7: {EmbeddingSize: 2048, ChunkOverlap: 128}}}

	t.Run("known connector", func(t *testing.T) {
		rr := getConnectorConfig(lookup, "7")

		require.Equal(t, http.StatusOK, rr.Code)
		var resp model.ConnectorEmbeddingResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, model.ConnectorEmbeddingResponse{ConnectorID: 7, EmbeddingSize: 2048, ChunkOverlap: 128}, resp)
	})

	t.Run("unknown connector falls back to default", func(t *testing.T) {
		rr := getConnectorConfig(lookup, "8")

		require.Equal(t, http.StatusOK, rr.Code)
		var resp model.ConnectorEmbeddingResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 512, resp.EmbeddingSize)
	})

	t.Run("invalid id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, getConnectorConfig(lookup, "abc").Code)
		assert.Equal(t, http.StatusBadRequest, getConnectorConfig(lookup, "-3").Code)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := &fakeLookup{err: &service.ConfigLookupError{Op: "connector", Key: "7", Err: errors.New("db down")}}
		rr := getConnectorConfig(failing, "7")

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
