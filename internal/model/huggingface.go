package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/converter"
)

const (
	DefaultHuggingFaceEndpoint = "https://api-inference.huggingface.co"
	DefaultHuggingFaceModel    = "cssupport/t5-small-awesome-text-to-sql"

	defaultHTTPTimeout = 30 * time.Second
	maxOutputTokens    = 512
)

// HuggingFace calls a hosted seq2seq model through the inference API.
type HuggingFace struct {
	cat        *catalog.Catalog
	endpoint   string
	model      string
	token      string
	httpClient *http.Client
}

// NewHuggingFace creates the strategy. Endpoint and Name fall back to the
// public inference API and the t5 text-to-SQL model.
func NewHuggingFace(cfg Config, cat *catalog.Catalog) *HuggingFace {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultHuggingFaceEndpoint
	}
	name := cfg.Name
	if name == "" {
		name = DefaultHuggingFaceModel
	}
	return &HuggingFace{
		cat:        cat,
		endpoint:   endpoint,
		model:      name,
		token:      cfg.APIKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Kind returns KindModel.
func (h *HuggingFace) Kind() converter.Kind { return converter.KindModel }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens int  `json:"max_new_tokens"`
	NumBeams     int  `json:"num_beams"`
	EarlyStop    bool `json:"early_stopping"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// Convert sends the prompt and returns the first generation.
func (h *HuggingFace) Convert(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:     Prompt(h.cat, question),
		Parameters: hfParameters{MaxNewTokens: maxOutputTokens, NumBeams: 5, EarlyStop: true},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/models/"+h.model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", h.model, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e hfError
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return "", fmt.Errorf("%s: status %d: %s", h.model, resp.StatusCode, e.Error)
		}
		return "", fmt.Errorf("%s: status %d", h.model, resp.StatusCode)
	}

	var gens []hfGeneration
	if err := json.Unmarshal(data, &gens); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(gens) == 0 || strings.TrimSpace(gens[0].GeneratedText) == "" {
		return "", ErrNoOutput
	}
	return gens[0].GeneratedText, nil
}
