package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"learnloop/internal/domain/ports/adapter"
)

var _ adapter.TokenCounter = (*TiktokenCounter)(nil)

// TiktokenCounter estimates prompt sizes with the model's BPE encoding,
// falling back to cl100k_base for models tiktoken does not know.
type TiktokenCounter struct {
	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
}

func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{encodings: make(map[string]*tiktoken.Tiktoken)}
}

func (c *TiktokenCounter) Count(model, text string) int {
	enc := c.encodingFor(model)
	if enc == nil {
		// Crude fallback: roughly 4 chars per token for English text.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *TiktokenCounter) encodingFor(model string) *tiktoken.Tiktoken {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodings[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			c.encodings[model] = nil
			return nil
		}
	}
	c.encodings[model] = enc
	return enc
}
