package service

import (
	"math"

	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
	"github.com/jharjadi/pro-rag/context-api-go/internal/tokenizer"
)

// miscTokenBuffer covers message framing and role markers the template
// token count does not see.
const miscTokenBuffer = 40

// ModelSizer reports how many tokens of a model's window are left for documents.
type ModelSizer interface {
	MaxDocumentTokens(prompt model.PromptConfig, llm model.LLMConfig, toolTokenCount int, question string) int
}

// TemplateSizer sizes the document allowance by counting the prompt
// template and question with the model tokenizer.
type TemplateSizer struct {
	counter *tokenizer.Counter
}

// NewTemplateSizer creates a new TemplateSizer.
func NewTemplateSizer(counter *tokenizer.Counter) *TemplateSizer {
	return &TemplateSizer{counter: counter}
}

// MaxDocumentTokens returns the window minus output reserve, prompt
// template, tool overhead, question and a small buffer. Never negative.
func (s *TemplateSizer) MaxDocumentTokens(prompt model.PromptConfig, llm model.LLMConfig, toolTokenCount int, question string) int {
	available := llm.ContextWindow - llm.MaxOutputTokens
	available -= s.counter.Count(prompt.SystemPrompt)
	available -= s.counter.Count(prompt.TaskPrompt)
	available -= toolTokenCount
	available -= s.counter.Count(question)
	available -= miscTokenBuffer
	return max(available, 0)
}

// ComputeLimit returns the document token budget for a request: the
// minimum of the model's document allowance and whichever caller bounds
// are set (window percentage, chunk count times chunkTokenCeiling, absolute
// cap). Unset or zero bounds are ignored.
func ComputeLimit(
	sizer ModelSizer,
	prompt model.PromptConfig,
	llm model.LLMConfig,
	question string,
	cfg model.PruningConfig,
	chunkTokenCeiling int,
) int {
	llmMaxDocumentTokens := sizer.MaxDocumentTokens(prompt, llm, cfg.ToolTokenCount, question)

	limit := float64(llmMaxDocumentTokens)
	if cfg.MaxWindowPercentage != nil && *cfg.MaxWindowPercentage != 0 {
		limit = math.Min(limit, *cfg.MaxWindowPercentage*float64(llmMaxDocumentTokens))
	}
	if cfg.MaxChunks != nil && *cfg.MaxChunks != 0 {
		limit = math.Min(limit, float64(*cfg.MaxChunks*chunkTokenCeiling))
	}
	if cfg.MaxTokens != nil && *cfg.MaxTokens != 0 {
		limit = math.Min(limit, float64(*cfg.MaxTokens))
	}

	return max(int(limit), 0)
}
