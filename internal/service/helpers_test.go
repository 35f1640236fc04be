package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
	"github.com/jharjadi/pro-rag/context-api-go/internal/tokenizer"
)

// wordTokenizer treats every whitespace-separated word as one token.
type wordTokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: make(map[string]int)}
}

func (w *wordTokenizer) Encode(text string) []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, f := range fields {
		id, ok := w.ids[f]
		if !ok {
			id = len(w.words)
			w.ids[f] = id
			w.words = append(w.words, f)
		}
		out[i] = id
	}
	return out
}

func (w *wordTokenizer) Decode(tokens []int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = w.words[t]
	}
	return strings.Join(parts, " ")
}

func newWordCounter() *tokenizer.Counter {
	return tokenizer.NewCounter(newWordTokenizer())
}

// plainOverhead is the word count BuildDocContext adds around the content
// of a document built by docWithCost: "DOCUMENT n: t" + "Source: web".
const plainOverhead = 5

func words(n int) string {
	if n <= 0 {
		return ""
	}
	ws := make([]string, n)
	for i := range ws {
		ws[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(ws, " ")
}

// docWithCost builds a document whose plain serialization costs exactly
// cost word-tokens.
func docWithCost(id string, cost int) model.Document {
	return model.Document{
		DocumentID:         id,
		SemanticIdentifier: "t",
		SourceType:         "web",
		Content:            words(cost - plainOverhead),
	}
}

func docIDs(docs []model.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.DocumentID
	}
	return ids
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// fixedSizer reports a constant document allowance.
type fixedSizer int

func (f fixedSizer) MaxDocumentTokens(model.PromptConfig, model.LLMConfig, int, string) int {
	return int(f)
}

var errStoreDown = errors.New("store down")

// fakeStore is an in-memory ConnectorStore.
type fakeStore struct {
	connectors map[int64]model.EmbeddingChunkConfig
	owners     map[string]int64
	failDocs   map[string]bool
	failConns  map[int64]bool
	calls      atomic.Int64
}

func (s *fakeStore) ConnectorEmbeddingConfig(_ context.Context, connectorID int64) (*model.EmbeddingChunkConfig, error) {
	s.calls.Add(1)
	if s.failConns[connectorID] {
		return nil, errStoreDown
	}
	cfg, ok := s.connectors[connectorID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (s *fakeStore) ConnectorIDForDocument(_ context.Context, documentID string) (int64, bool, error) {
	s.calls.Add(1)
	if s.failDocs[documentID] {
		return 0, false, errStoreDown
	}
	id, ok := s.owners[documentID]
	return id, ok, nil
}
