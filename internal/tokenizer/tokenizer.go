// Package tokenizer wraps an LLM tokenizer for counting and trimming text.
package tokenizer

// Tokenizer converts text to token ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Counter counts tokens and shrinks text to a token length using a Tokenizer.
type Counter struct {
	tok Tokenizer
}

// NewCounter creates a Counter backed by tok.
func NewCounter(tok Tokenizer) *Counter {
	return &Counter{tok: tok}
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.tok.Encode(text))
}

// Trim shrinks text to at most maxTokens tokens by encode/truncate/decode.
// Text that already fits is returned unchanged, so trimming is idempotent.
// A non-positive maxTokens yields the empty string.
func (c *Counter) Trim(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	tokens := c.tok.Encode(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return c.tok.Decode(tokens[:maxTokens])
}
