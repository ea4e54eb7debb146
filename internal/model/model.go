// Package model provides the learned text-to-SQL strategies tried before the
// rule engine: a Hugging Face inference endpoint and Gemini.
package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/converter"
)

// Providers.
const (
	ProviderNone        = "none"
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
)

// ErrNoOutput is returned when a model answers without any SQL.
var ErrNoOutput = errors.New("model: empty output")

// Config selects and configures a provider.
type Config struct {
	Provider string
	Name     string
	APIKey   string
	Endpoint string
}

// New builds the strategy for cfg. An empty or "none" provider returns a nil
// strategy and no error.
func New(ctx context.Context, cfg Config, cat *catalog.Catalog) (converter.Strategy, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderHuggingFace, "hf":
		return NewHuggingFace(cfg, cat), nil
	case ProviderGemini, "genai":
		return NewGemini(ctx, cfg, cat)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// Prompt renders the "question | table ( col, ... ) | ..." input that
// seq2seq text-to-SQL models are trained on.
func Prompt(cat *catalog.Catalog, question string) string {
	return question + " | " + cat.PromptContext()
}
