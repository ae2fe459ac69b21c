package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultOpenAIBaseURL is the GitHub Models inference endpoint.
	DefaultOpenAIBaseURL = "https://models.github.ai/inference"
	// DefaultOpenAIModel is the model used when none is configured.
	DefaultOpenAIModel = "openai/gpt-4.1"

	chatCompletionsPath = "/chat/completions"
	defaultTimeout      = 60 * time.Second
	maxResponseBytes    = 2 << 20
)

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAI is a Model backed by an OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	apiKey      string
	model       string
	endpointURL string
	httpClient  *http.Client
}

var _ Model = (*OpenAI)(nil)

// NewOpenAI validates cfg and returns a client.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("new openai client: api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &OpenAI{
		apiKey:      apiKey,
		model:       model,
		endpointURL: strings.TrimRight(baseURL, "/") + chatCompletionsPath,
		httpClient:  httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends p as a system + user message pair and returns the first choice.
func (c *OpenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:    c.model,
		Messages: buildMessages(p),
	})
	if err != nil {
		return "", fmt.Errorf("json.Marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completions request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("chat completions read failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("chat completions status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("chat completions decode failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions decode failed: no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}

	return content, nil
}

func buildMessages(p Prompt) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.System})
	}
	return append(messages, chatMessage{Role: "user", Content: p.User})
}
