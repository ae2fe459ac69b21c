package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOllamaBaseURL is the local Ollama daemon address.
const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaConfig configures an Ollama chat client.
type OllamaConfig struct {
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Ollama is a Model backed by Ollama's /api/chat endpoint.
type Ollama struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

var _ Model = (*Ollama)(nil)

// NewOllama validates cfg and returns a client.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("new ollama client: model is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Ollama{
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Complete sends p as a non-streaming chat request.
func (c *Ollama) Complete(ctx context.Context, p Prompt) (string, error) {
	payload, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: buildMessages(p),
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("json.Marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("ollama chat http status: %s", resp.Status)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama chat decode failed: %w", err)
	}

	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}

	return content, nil
}
