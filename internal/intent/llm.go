// Package intent turns free-text queries into a ParsedIntent: an LLM call
// constrained to emit JSON matching that shape, followed by a deterministic
// post-processor and an optional semantic validation pass. The request and
// response shape follows the Anthropic Messages API (x-api-key header,
// system+messages body, text-block response), used here for a single
// "system prompt + user text -> text response" turn rather than multi-turn
// chat or tool use.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LLMConfig configures the intent resolver's upstream LLM call.
type LLMConfig struct {
	BaseURL string
	APIKey string
	Model string
	Timeout time.Duration
}

func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
 BaseURL: "https://api.anthropic.com/v1",
 Model: "claude-3-5-sonnet-20241022",
 Timeout: 20 * time.Second,
	}
}

// Client issues Messages-API-shaped completions against the configured
// endpoint. It is deliberately minimal: the resolver only ever needs one
// turn of "system prompt + user text -> text response", never multi-turn
// chat, tool use, or streaming.
type Client struct {
	cfg LLMConfig
	httpClient *http.Client
}

func NewClient(cfg LLMConfig) *Client {
	if cfg.Timeout == 0 {
 cfg.Timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

type messagesRequest struct {
	Model string `json:"model"`
	MaxTokens int `json:"max_tokens"`
	System string `json:"system,omitempty"`
	Messages []message `json:"messages"`
}

type message struct {
	Role string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
 Type string `json:"type"`
 Text string `json:"text"`
	} `json:"content"`
}

// Complete sends one system+user turn and returns the model's first text
// block. Callers needing JSON back parse it out of this string themselves
// (Resolver.callAndParse does so with a retry contract).
func (c *Client) Complete(ctx context.Context, system, userText string) (string, error) {
	reqBody := messagesRequest{
 Model: c.cfg.Model,
 MaxTokens: 1024,
 System: system,
 Messages: []message{{Role: "user", Content: userText}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
 return "", fmt.Errorf("marshal LLM request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
 return "", fmt.Errorf("build LLM request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
 return "", fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
 return "", fmt.Errorf("decode LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
 return "", fmt.Errorf("LLM upstream status %d", resp.StatusCode)
	}
	for _, block := range parsed.Content {
 if block.Type == "text" {
 return block.Text, nil
 }
	}
	return "", fmt.Errorf("LLM response had no text block")
}
