// Package model defines the domain types for the pruning API.
package model

import "time"

// IgnoreForQA is the metadata key that excludes a document from question answering.
const IgnoreForQA = "ignore_for_qa"

// Document is a retrieved document (or chunk/section of one) that is a
// candidate for the LLM prompt.
type Document struct {
	DocumentID         string         `json:"document_id"`
	SemanticIdentifier string         `json:"semantic_identifier"`
	SourceType         string         `json:"source_type"`
	Content            string         `json:"content"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

// EmbeddingChunkConfig is the chunk sizing a connector was indexed with.
type EmbeddingChunkConfig struct {
	EmbeddingSize int `json:"embedding_size"`
	ChunkOverlap  int `json:"chunk_overlap"`
}

// PruningConfig carries the caller's constraints for one pruning request.
// Nil limits are not applied.
type PruningConfig struct {
	MaxChunks              *int     `json:"max_chunks"`
	MaxWindowPercentage    *float64 `json:"max_window_percentage"`
	MaxTokens              *int     `json:"max_tokens"`
	ToolTokenCount         int      `json:"tool_token_count"`
	IsManuallySelectedDocs bool     `json:"is_manually_selected_docs"`
	UseSections            bool     `json:"use_sections"`
	UsingToolMessage       bool     `json:"using_tool_message"`
}

// PromptConfig is the prompt template wrapped around the documents.
type PromptConfig struct {
	SystemPrompt string `json:"system_prompt"`
	TaskPrompt   string `json:"task_prompt"`
}

// LLMConfig describes the answering model's limits. MaxOutputTokens is
// reserved out of ContextWindow for the answer.
type LLMConfig struct {
	ModelName       string `json:"model_name"`
	ContextWindow   int    `json:"context_window"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

// PruneRequest is the POST /v1/prune request body.
type PruneRequest struct {
	Documents []Document    `json:"documents"`
	Relevance []bool        `json:"relevance"`
	Question  string        `json:"question"`
	Prompt    *PromptConfig `json:"prompt"`
	LLM       *LLMConfig    `json:"llm"`
	Pruning   PruningConfig `json:"pruning"`
	Debug     bool          `json:"debug"`
}

// PruneResponse is the POST /v1/prune response body.
type PruneResponse struct {
	PruneID   string     `json:"prune_id"`
	Documents []Document `json:"documents"`
	Debug     *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo contains debug information when debug=true.
type DebugInfo struct {
	TokenLimit      int  `json:"token_limit"`
	EmbeddingSize   int  `json:"embedding_size"`
	ChunkOverlap    int  `json:"chunk_overlap"`
	InputDocuments  int  `json:"input_documents"`
	OutputDocuments int  `json:"output_documents"`
	CutoffIndex     *int `json:"cutoff_index"`
	TotalTokens     int  `json:"total_tokens"`
	MismatchTrimmed int  `json:"mismatch_trimmed"`
}

// ConnectorEmbeddingResponse is the GET /v1/connectors/{id}/embedding-config
// response body.
type ConnectorEmbeddingResponse struct {
	ConnectorID   int64 `json:"connector_id"`
	EmbeddingSize int   `json:"embedding_size"`
	ChunkOverlap  int   `json:"chunk_overlap"`
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PruneLog holds all fields for the structured per-request log line.
type PruneLog struct {
	Timestamp       time.Time `json:"ts"`
	TenantID        string    `json:"tenant_id"`
	RequestID       string    `json:"request_id"`
	PruneID         string    `json:"prune_id"`
	QuestionHash    string    `json:"question_hash"`
	InputDocuments  int       `json:"input_documents"`
	OutputDocuments int       `json:"output_documents"`
	TokenLimit      int       `json:"token_limit"`
	EmbeddingSize   int       `json:"embedding_size"`
	CutoffIndex     int       `json:"cutoff_index"`
	ManualSelection bool      `json:"manual_selection"`
	UseSections     bool      `json:"use_sections"`
	ToolMessage     bool      `json:"tool_message"`
	LatencyMSTotal  int64     `json:"latency_ms_total"`
	HTTPStatus      int       `json:"http_status"`
}
