package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultChatBaseURL is the OpenRouter OpenAI-compatible endpoint, which
// fronts all the search models.
const DefaultChatBaseURL = "https://openrouter.ai/api/v1"

const chatTimeout = 60 * time.Second

// ChatClient is a minimal OpenAI-compatible chat-completions client. It
// covers exactly what the keyword search needs: one system message, one
// user message, first choice back.
type ChatClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewChatClient builds a client for an OpenAI-compatible API. baseURL may
// be empty to use OpenRouter.
func NewChatClient(baseURL, apiKey string) *ChatClient {
	if baseURL == "" {
		baseURL = DefaultChatBaseURL
	}
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: chatTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system+user exchange to model and returns the first
// choice's content.
func (c *ChatClient) Complete(ctx context.Context, model, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion with %s: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat completion with %s: %w: %s: %s",
			model, ErrUpstreamStatus, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat completion from %s: %w", model, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat completion with %s: %s", model, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion with %s: empty choices", model)
	}

	return parsed.Choices[0].Message.Content, nil
}
