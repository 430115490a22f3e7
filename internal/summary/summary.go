// Package summary generates short AI summaries through an OpenAI-compatible
// chat endpoint. Summaries are decorative: every failure degrades to an
// empty string and never blocks ingestion.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o-mini"

	systemPrompt = "You summarize tech product and news blurbs in one or two plain sentences. No hype, no emojis."
)

// Client talks to an OpenAI-compatible chat completions API. A client built
// without an API key is disabled and returns empty summaries.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// New builds a summarizer client; key may be empty.
func New(apiKey string) *Client {
	return &Client{
		endpoint: defaultEndpoint,
		model:    defaultModel,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Enabled reports whether the client has credentials to call out.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Summarize returns a short summary of text, or "" when disabled or on any
// upstream failure.
func (c *Client) Summarize(ctx context.Context, title, text string) string {
	if !c.Enabled() {
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	out, err := c.complete(ctx, fmt.Sprintf("Title: %s\n\n%s", title, text))
	if err != nil {
		log.Warn().Err(err).Str("title", title).Msg("Summary generation failed")
		return ""
	}
	return out
}

func (c *Client) complete(ctx context.Context, userContent string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent},
		},
		"max_tokens": 120,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response had no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
