package service

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
)

// DefaultSystemPrompt is used for sizing when the caller sends no prompt.
const DefaultSystemPrompt = `You are a careful assistant answering questions using ONLY the provided documents.
Rules:
1) If the answer is not clearly supported by the documents, say you don't know.
2) Do NOT use outside knowledge. Do NOT guess.
3) Cite every factual claim with the number of the document it came from, like [1].`

// DefaultTaskPrompt is appended after the documents when the caller sends no prompt.
const DefaultTaskPrompt = `Answer the question using the documents above. Be concise.`

// updatedAtLayout is how document timestamps are rendered in the prompt.
const updatedAtLayout = "2006-01-02 15:04"

// DefaultPromptConfig returns the built-in prompt template.
func DefaultPromptConfig() model.PromptConfig {
	return model.PromptConfig{
		SystemPrompt: DefaultSystemPrompt,
		TaskPrompt:   DefaultTaskPrompt,
	}
}

// BuildDocContext renders a document as plain prompt text:
//
//	DOCUMENT <n>: <semantic identifier>
//	Source: <source type>
//	<key>: <value>          (one line per metadata entry, sorted by key)
//	Updated: <timestamp>    (when known)
//	<content>
//
// ind is the 0-based position in the prompt.
func BuildDocContext(doc model.Document, ind int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("DOCUMENT %d: %s\n", ind+1, doc.SemanticIdentifier))
	sb.WriteString(fmt.Sprintf("Source: %s\n", doc.SourceType))
	for _, k := range slices.Sorted(maps.Keys(doc.Metadata)) {
		if k == model.IgnoreForQA {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", k, metadataValue(doc.Metadata[k])))
	}
	if doc.UpdatedAt != nil {
		sb.WriteString(fmt.Sprintf("Updated: %s\n", doc.UpdatedAt.UTC().Format(updatedAtLayout)))
	}
	sb.WriteString(doc.Content)
	return sb.String()
}

// toolDoc is the JSON shape of a document inside a tool-call result.
type toolDoc struct {
	DocumentNumber int            `json:"document_number"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Source         string         `json:"source"`
	Metadata       map[string]any `json:"metadata"`
	UpdatedAt      *string        `json:"updated_at"`
}

// BuildToolDoc renders a document as the JSON object sent in a tool message.
func BuildToolDoc(doc model.Document, ind int) (string, error) {
	td := toolDoc{
		DocumentNumber: ind + 1,
		Title:          doc.SemanticIdentifier,
		Content:        doc.Content,
		Source:         doc.SourceType,
		Metadata:       doc.Metadata,
	}
	if td.Metadata == nil {
		td.Metadata = map[string]any{}
	}
	if doc.UpdatedAt != nil {
		ts := doc.UpdatedAt.UTC().Format(time.RFC3339)
		td.UpdatedAt = &ts
	}

	b, err := json.Marshal(td)
	if err != nil {
		return "", fmt.Errorf("marshal tool doc %q: %w", doc.DocumentID, err)
	}
	return string(b), nil
}

func metadataValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}
