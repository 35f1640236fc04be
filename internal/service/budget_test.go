package service

import (
	"testing"

	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestComputeLimit(t *testing.T) {
	prompt := DefaultPromptConfig()
	llm := model.LLMConfig{ContextWindow: 8192}

	tests := []struct {
		name    string
		sizer   fixedSizer
		cfg     model.PruningConfig
		ceiling int
		want    int
	}{
		{"model allowance only", 1000, model.PruningConfig{}, 512, 1000},
		{"window percentage", 1000, model.PruningConfig{MaxWindowPercentage: floatPtr(0.5)}, 512, 500},
		{"percentage truncates toward zero", 1000, model.PruningConfig{MaxWindowPercentage: floatPtr(0.3333)}, 512, 333},
		{"chunk count below allowance", 1000, model.PruningConfig{MaxChunks: intPtr(1)}, 512, 512},
		{"chunk count above allowance", 1000, model.PruningConfig{MaxChunks: intPtr(3)}, 512, 1000},
		{"absolute cap", 1000, model.PruningConfig{MaxTokens: intPtr(300)}, 512, 300},
		{"zero bounds are ignored", 1000, model.PruningConfig{
			MaxChunks:           intPtr(0),
			MaxWindowPercentage: floatPtr(0),
			MaxTokens:           intPtr(0),
		}, 512, 1000},
		{"minimum of all bounds", 1000, model.PruningConfig{
			MaxChunks:           intPtr(2),
			MaxWindowPercentage: floatPtr(0.9),
			MaxTokens:           intPtr(950),
		}, 400, 800},
		{"zero allowance", 0, model.PruningConfig{MaxTokens: intPtr(300)}, 512, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLimit(tt.sizer, prompt, llm, "question", tt.cfg, tt.ceiling)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateSizer_MaxDocumentTokens(t *testing.T) {
	sizer := NewTemplateSizer(newWordCounter())
	prompt := model.PromptConfig{SystemPrompt: "a b c", TaskPrompt: "d e"}

	t.Run("Should subtract every reservation", func(t *testing.T) {
		llm := model.LLMConfig{ContextWindow: 1000, MaxOutputTokens: 100}
		// 1000 - 100 output - 3 system - 2 task - 10 tool - 2 question - 40 buffer
		assert.Equal(t, 843, sizer.MaxDocumentTokens(prompt, llm, 10, "q r"))
	})

	t.Run("Should never go negative", func(t *testing.T) {
		llm := model.LLMConfig{ContextWindow: 50, MaxOutputTokens: 40}
		assert.Equal(t, 0, sizer.MaxDocumentTokens(prompt, llm, 10, "q r"))
	})
}
