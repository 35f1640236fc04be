// Package handler implements HTTP handlers for the context API.
package handler

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	authmw "github.com/jharjadi/pro-rag/context-api-go/internal/middleware"
	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
	"github.com/jharjadi/pro-rag/context-api-go/internal/service"
	"golang.org/x/crypto/blake2b"
)

// DocumentPruner fits documents into a model's context window.
type DocumentPruner interface {
	Prune(
		ctx context.Context,
		docs []model.Document,
		relevance []bool,
		prompt model.PromptConfig,
		llm model.LLMConfig,
		question string,
		cfg model.PruningConfig,
	) (*service.PruneResult, error)
}

// PruneHandler handles POST /v1/prune requests.
type PruneHandler struct {
	pruner       DocumentPruner
	prompt       model.PromptConfig
	llm          model.LLMConfig
	maxBodyBytes int64
}

// NewPruneHandler creates a new PruneHandler. prompt and llm are used when
// a request does not carry its own.
func NewPruneHandler(pruner DocumentPruner, prompt model.PromptConfig, llm model.LLMConfig, maxBodyBytes int64) *PruneHandler {
	return &PruneHandler{
		pruner:       pruner,
		prompt:       prompt,
		llm:          llm,
		maxBodyBytes: maxBodyBytes,
	}
}

// Handle decodes the request, prunes the documents and writes the
// surviving documents back in prompt order.
func (h *PruneHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totalStart := time.Now()

	requestID := chimw.GetReqID(ctx)
	tenantID := authmw.TenantIDFromContext(ctx)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "tenant_id is required")
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req model.PruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}

	prompt := h.prompt
	if req.Prompt != nil {
		prompt = *req.Prompt
	}
	llm := h.llm
	if req.LLM != nil {
		llm = *req.LLM
	}
	if llm.ContextWindow <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "llm.context_window must be positive")
		return
	}

	plog := &model.PruneLog{
		Timestamp:       time.Now().UTC(),
		TenantID:        tenantID,
		RequestID:       requestID,
		QuestionHash:    hashQuestion(req.Question),
		InputDocuments:  len(req.Documents),
		CutoffIndex:     -1,
		ManualSelection: req.Pruning.IsManuallySelectedDocs,
		UseSections:     req.Pruning.UseSections,
		ToolMessage:     req.Pruning.UsingToolMessage,
	}

	res, err := h.pruner.Prune(ctx, req.Documents, req.Relevance, prompt, llm, req.Question, req.Pruning)
	if err != nil {
		status, code := classifyError(err)
		slog.Error("prune failed", "error", err, "request_id", requestID)
		writeError(w, status, code, err.Error())
		h.emitPruneLog(plog, status, totalStart)
		return
	}

	plog.PruneID = res.PruneID
	plog.OutputDocuments = len(res.Documents)
	plog.TokenLimit = res.TokenLimit
	plog.EmbeddingSize = res.EmbeddingConfig.EmbeddingSize
	plog.CutoffIndex = res.CutoffIndex

	resp := &model.PruneResponse{
		PruneID:   res.PruneID,
		Documents: res.Documents,
	}
	if req.Debug {
		resp.Debug = debugInfo(len(req.Documents), res)
	}

	writeJSON(w, http.StatusOK, resp)
	h.emitPruneLog(plog, http.StatusOK, totalStart)
}

func debugInfo(inputDocs int, res *service.PruneResult) *model.DebugInfo {
	info := &model.DebugInfo{
		TokenLimit:      res.TokenLimit,
		EmbeddingSize:   res.EmbeddingConfig.EmbeddingSize,
		ChunkOverlap:    res.EmbeddingConfig.ChunkOverlap,
		InputDocuments:  inputDocs,
		OutputDocuments: len(res.Documents),
		TotalTokens:     res.TotalTokens,
		MismatchTrimmed: res.MismatchTrimmed,
	}
	if res.CutoffIndex >= 0 {
		cutoff := res.CutoffIndex
		info.CutoffIndex = &cutoff
	}
	return info
}

// classifyError maps pruning failures to an HTTP status and error code.
func classifyError(err error) (int, string) {
	var lookupErr *service.ConfigLookupError
	switch {
	case errors.Is(err, service.ErrContractViolation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrBudgetExceeded):
		return http.StatusUnprocessableEntity, "context_window_exceeded"
	case errors.As(err, &lookupErr):
		return http.StatusServiceUnavailable, "config_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// emitPruneLog writes the structured per-request log line.
func (h *PruneHandler) emitPruneLog(plog *model.PruneLog, httpStatus int, totalStart time.Time) {
	plog.HTTPStatus = httpStatus
	plog.LatencyMSTotal = time.Since(totalStart).Milliseconds()

	slog.Info("prune",
		"ts", plog.Timestamp.Format(time.RFC3339),
		"tenant_id", plog.TenantID,
		"request_id", plog.RequestID,
		"prune_id", plog.PruneID,
		"question_hash", plog.QuestionHash,
		"input_documents", plog.InputDocuments,
		"output_documents", plog.OutputDocuments,
		"token_limit", plog.TokenLimit,
		"embedding_size", plog.EmbeddingSize,
		"cutoff_index", plog.CutoffIndex,
		"manual_selection", plog.ManualSelection,
		"use_sections", plog.UseSections,
		"tool_message", plog.ToolMessage,
		"latency_ms_total", plog.LatencyMSTotal,
		"http_status", plog.HTTPStatus,
	)
}

// hashQuestion returns the BLAKE2b-256 hex of the normalized (lowercased, trimmed) question.
func hashQuestion(question string) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(strings.TrimSpace(question))))
	return hex.EncodeToString(sum[:])
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
