package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is used when no encoding or model name is configured.
const DefaultEncoding = "cl100k_base"

// BPE ranks are embedded in the binary; no network access at startup.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Tiktoken is a Tokenizer backed by tiktoken-go.
type Tiktoken struct {
	encodingName string
	tke          *tiktoken.Tiktoken
	mu           sync.RWMutex
}

// NewTiktoken creates a tokenizer for the given encoding or model name.
// Unknown names fall back to DefaultEncoding.
func NewTiktoken(encodingOrModel string) (*Tiktoken, error) {
	if encodingOrModel == "" {
		encodingOrModel = DefaultEncoding
	}

	name := encodingOrModel
	tke, err := tiktoken.GetEncoding(encodingOrModel)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(encodingOrModel)
		if err != nil {
			name = DefaultEncoding
			tke, err = tiktoken.GetEncoding(DefaultEncoding)
			if err != nil {
				return nil, fmt.Errorf("load default encoding %q: %w", DefaultEncoding, err)
			}
		}
	}

	return &Tiktoken{encodingName: name, tke: tke}, nil
}

// Encode returns the token ids for text. Special tokens are encoded as plain text.
func (t *Tiktoken) Encode(text string) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tke.Encode(text, nil, nil)
}

// Decode returns the text for the given token ids.
func (t *Tiktoken) Decode(tokens []int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tke.Decode(tokens)
}

// Encoding returns the name the tokenizer was created with.
func (t *Tiktoken) Encoding() string {
	return t.encodingName
}
