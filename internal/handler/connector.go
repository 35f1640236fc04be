package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
)

// EmbeddingLookup resolves the chunk settings of a connector.
type EmbeddingLookup interface {
	ForConnector(ctx context.Context, connectorID *int64) (model.EmbeddingChunkConfig, error)
}

// ConnectorHandler serves connector embedding settings.
type ConnectorHandler struct {
	lookup EmbeddingLookup
}

// NewConnectorHandler creates a new ConnectorHandler.
func NewConnectorHandler(lookup EmbeddingLookup) *ConnectorHandler {
	return &ConnectorHandler{lookup: lookup}
}

// EmbeddingConfig handles GET /v1/connectors/{id}/embedding-config.
// The result is what pruning would use for that connector, including the
// system default when per-connector settings are disabled.
func (h *ConnectorHandler) EmbeddingConfig(w http.ResponseWriter, r *http.Request) {
	connectorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || connectorID < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid connector id")
		return
	}

	cfg, err := h.lookup.ForConnector(r.Context(), &connectorID)
	if err != nil {
		status, code := classifyError(err)
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.ConnectorEmbeddingResponse{
		ConnectorID:   connectorID,
		EmbeddingSize: cfg.EmbeddingSize,
		ChunkOverlap:  cfg.ChunkOverlap,
	})
}
