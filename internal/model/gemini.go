package model

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/converter"
)

// DefaultGeminiModel is used when Config.Name is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

const geminiInstruction = `You translate questions into a single read-only SQL SELECT statement.
Use only the tables and columns of the schema below. Answer with the SQL only, no explanation.

`

// Gemini asks a Gemini model for SQL, with the schema description as the
// system instruction.
type Gemini struct {
	client *genai.Client
	model  string
	system *genai.Content
}

// NewGemini creates the strategy. An API key is required.
func NewGemini(ctx context.Context, cfg Config, cat *catalog.Catalog) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.Endpoint, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = DefaultGeminiModel
	}
	return &Gemini{
		client: client,
		model:  name,
		system: genai.NewContentFromText(geminiInstruction+cat.Describe(), genai.RoleUser),
	}, nil
}

// Kind returns KindModel.
func (g *Gemini) Kind() converter.Kind { return converter.KindModel }

// Convert asks the model for a statement.
func (g *Gemini) Convert(ctx context.Context, question string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(question),
		&genai.GenerateContentConfig{
			SystemInstruction: g.system,
			Temperature:       genai.Ptr[float32](0),
			MaxOutputTokens:   maxOutputTokens,
		})
	if err != nil {
		return "", fmt.Errorf("generating with %s: %w", g.model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoOutput
	}
	return text, nil
}
