// Package process prepares post markdown for AI tooling: token counting and
// heading-aware section splitting.
package process

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/folio-blog/folio/pkg/utils"
)

var encodings = map[string]tokenizer.Encoding{
	"cl100k_base": tokenizer.Cl100kBase,
	"o200k_base":  tokenizer.O200kBase,
	"p50k_base":   tokenizer.P50kBase,
	"p50k_edit":   tokenizer.P50kEdit,
	"r50k_base":   tokenizer.R50kBase,
}

// TokenCounter counts tokens with a tiktoken encoding. cl100k_base is a reasonable
// approximation for most current models. A nil counter estimates instead.
type TokenCounter struct {
	codec    tokenizer.Codec
	encoding string
}

// NewTokenCounter loads encoding; empty means cl100k_base.
func NewTokenCounter(encoding string) (*TokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, ok := encodings[encoding]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tokenizer encoding %q", utils.ErrConfigValidation, encoding)
	}
	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", encoding, err)
	}
	return &TokenCounter{codec: codec, encoding: encoding}, nil
}

// Encoding returns the encoding name, or "estimate" for a nil counter.
func (c *TokenCounter) Encoding() string {
	if c == nil {
		return "estimate"
	}
	return c.encoding
}

// Count returns the number of tokens in text, falling back to an estimate of one token per
// four bytes when no codec is loaded or encoding fails.
func (c *TokenCounter) Count(text string) int {
	if c == nil || c.codec == nil {
		return estimateTokens(text)
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return estimateTokens(text)
	}
	return len(ids)
}

func estimateTokens(text string) int {
	return len(text) / 4
}
