// Package service implements document pruning and token auth for the
// context API.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
	"github.com/jharjadi/pro-rag/context-api-go/internal/tokenizer"
	"github.com/mohae/deepcopy"
)

// MetadataTokenEstimate is the token allowance for a document's title,
// source and metadata lines around its content. It is both the
// tokenizer-mismatch margin and the reserve kept when the first search
// result alone overflows.
const MetadataTokenEstimate = 75

// PruneResult is the outcome of one pruning request.
type PruneResult struct {
	PruneID         string
	Documents       []model.Document
	TokenLimit      int
	EmbeddingConfig model.EmbeddingChunkConfig
	// CutoffIndex is the index at which the budget was exceeded, or -1.
	CutoffIndex     int
	TotalTokens     int
	MismatchTrimmed int
}

// Pruner fits retrieved documents into an LLM context window.
type Pruner struct {
	counter  *tokenizer.Counter
	sizer    ModelSizer
	resolver *EmbeddingResolver
}

// NewPruner creates a new Pruner.
func NewPruner(counter *tokenizer.Counter, sizer ModelSizer, resolver *EmbeddingResolver) *Pruner {
	return &Pruner{
		counter:  counter,
		sizer:    sizer,
		resolver: resolver,
	}
}

// PruneDocuments returns the documents that fit in the context window,
// reordered and truncated as needed. The caller's slice is never modified.
func (p *Pruner) PruneDocuments(
	ctx context.Context,
	docs []model.Document,
	relevance []bool,
	prompt model.PromptConfig,
	llm model.LLMConfig,
	question string,
	cfg model.PruningConfig,
) ([]model.Document, error) {
	res, err := p.Prune(ctx, docs, relevance, prompt, llm, question, cfg)
	if err != nil {
		return nil, err
	}
	return res.Documents, nil
}

// Prune is PruneDocuments with the budget figures used along the way.
//
// relevance is nil when no relevance information is available; otherwise
// it must have one entry per document.
func (p *Pruner) Prune(
	ctx context.Context,
	docs []model.Document,
	relevance []bool,
	prompt model.PromptConfig,
	llm model.LLMConfig,
	question string,
	cfg model.PruningConfig,
) (*PruneResult, error) {
	if relevance != nil && len(relevance) != len(docs) {
		return nil, fmt.Errorf("%w: %d documents but %d relevance flags",
			ErrContractViolation, len(docs), len(relevance))
	}

	documentIDs := make([]string, len(docs))
	for i, d := range docs {
		documentIDs[i] = d.DocumentID
	}
	embeddingCfg, err := p.resolver.HighestForDocuments(ctx, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve embedding config: %w", err)
	}

	tokenLimit := ComputeLimit(p.sizer, prompt, llm, question, cfg, embeddingCfg.EmbeddingSize)

	out, err := p.applyPruning(docs, relevance, tokenLimit, cfg, embeddingCfg.EmbeddingSize)
	if err != nil {
		return nil, err
	}

	return &PruneResult{
		PruneID:         uuid.NewString(),
		Documents:       out.docs,
		TokenLimit:      tokenLimit,
		EmbeddingConfig: embeddingCfg,
		CutoffIndex:     out.cutoff,
		TotalTokens:     out.totalTokens,
		MismatchTrimmed: out.mismatchTrimmed,
	}, nil
}

type pruneOutcome struct {
	docs            []model.Document
	cutoff          int
	totalTokens     int
	mismatchTrimmed int
}

// applyPruning runs the reorder, filter, accumulate and truncate steps
// against a private copy of docs.
func (p *Pruner) applyPruning(
	docs []model.Document,
	relevance []bool,
	tokenLimit int,
	cfg model.PruningConfig,
	chunkTokenCeiling int,
) (*pruneOutcome, error) {
	docs, err := cloneDocuments(docs)
	if err != nil {
		return nil, err
	}

	docs = ReorderDocs(docs, relevance)
	docs = RemoveIgnoredForQA(docs)

	out := &pruneOutcome{cutoff: -1}
	for i := range docs {
		docStr, err := p.serialize(docs[i], i, cfg.UsingToolMessage)
		if err != nil {
			return nil, err
		}

		docTokens := p.counter.Count(docStr)
		// Chunks this far over their indexed size mean the embedding and
		// LLM tokenizers disagree; trim back to the chunk size.
		if !cfg.IsManuallySelectedDocs && !cfg.UseSections &&
			docTokens > chunkTokenCeiling+MetadataTokenEstimate {
			slog.Warn("found more tokens in chunk than expected, likely tokenizer mismatch; trimming content",
				"document_id", docs[i].DocumentID,
				"doc_tokens", docTokens,
				"chunk_token_ceiling", chunkTokenCeiling,
			)
			docs[i].Content = p.counter.Trim(docs[i].Content, chunkTokenCeiling)
			docTokens = chunkTokenCeiling
			out.mismatchTrimmed++
		}

		out.totalTokens += docTokens
		if out.totalTokens > tokenLimit {
			out.cutoff = i
			break
		}
	}

	if out.cutoff < 0 {
		out.docs = docs
		return out, nil
	}

	final := out.cutoff
	if cfg.IsManuallySelectedDocs || cfg.UseSections {
		// Only the last document may absorb truncation.
		if final != len(docs)-1 {
			if !cfg.UseSections {
				return nil, ErrBudgetExceeded
			}
			// Sections can be long, so trim the tail of the last one kept
			// rather than dropping it.
			docs = docs[:final+1]
		}

		overflow := out.totalTokens - tokenLimit
		// Re-count content alone; the running total included metadata.
		contentLength := p.counter.Count(docs[final].Content) - overflow
		if contentLength <= 0 {
			slog.Warn("final document has no room for content, removing it from the prompt",
				"document_id", docs[final].DocumentID,
				"semantic_identifier", docs[final].SemanticIdentifier,
				"overflow_tokens", overflow,
			)
			docs = docs[:final]
		} else {
			docs[final].Content = p.counter.Trim(docs[final].Content, contentLength)
		}
	} else {
		// Search results after the cutoff are dropped whole, unless the
		// first one alone overflows: it is truncated instead.
		if final != 0 {
			docs = docs[:final]
		} else {
			docs[0].Content = p.counter.Trim(docs[0].Content, tokenLimit-MetadataTokenEstimate)
			docs = docs[:1]
		}
	}

	out.docs = docs
	return out, nil
}

func (p *Pruner) serialize(doc model.Document, ind int, usingToolMessage bool) (string, error) {
	if usingToolMessage {
		return BuildToolDoc(doc, ind)
	}
	return BuildDocContext(doc, ind), nil
}

func cloneDocuments(docs []model.Document) ([]model.Document, error) {
	copied, ok := deepcopy.Copy(docs).([]model.Document)
	if !ok {
		return nil, fmt.Errorf("failed to copy documents")
	}
	return copied, nil
}
