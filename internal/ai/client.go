// Package ai is a thin client for the OpenAI-compatible LLM gateway behind the
// document analysis, image scan and renewal advisor features. Each call is a single
// round trip: no caching, no retry.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"doctrack/internal/config"
)

var (
	// ErrRateLimited is returned when the gateway answers 429.
	ErrRateLimited = errors.New("rate limit exceeded, please try again later")
	// ErrPaymentRequired is returned when the gateway answers 402.
	ErrPaymentRequired = errors.New("payment required, please add credits to your workspace")
	// ErrAnalysisFailed covers every other upstream or parsing failure.
	ErrAnalysisFailed = errors.New("analysis failed, please try again")
	// ErrNotConfigured is returned when no API key is configured.
	ErrNotConfigured = errors.New("ai gateway is not configured")
)

// Client talks to the chat-completions endpoint of the gateway.
type Client struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient constructs a gateway client. Outbound requests are traced through otelhttp.
func NewClient(cfg config.AIConfig, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return nil, fmt.Errorf("ai gateway url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("ai model is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:    cfg.GatewayURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log.With("component", "ai"),
	}, nil
}

// Message is one chat message. Content is either a string or a slice of ContentPart.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is a piece of a multimodal user message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a URL or a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Tool declares a function the model may call.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is a function declaration with a JSON schema for its arguments.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolChoice forces a specific function call.
type ToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// ChatRequest is the chat-completions request body.
type ChatRequest struct {
	Model      string      `json:"model"`
	Messages   []Message   `json:"messages"`
	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`
}

// ToolCall is a function call produced by the model.
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ChatResponse is the subset of the chat-completions response the service reads.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role      string     `json:"role"`
			Content   string     `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts req and decodes the reply. Upstream 429 and 402 map to
// ErrRateLimited and ErrPaymentRequired; every other failure wraps ErrAnalysisFailed.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if req.Model == "" {
		req.Model = c.model
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrAnalysisFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrAnalysisFailed, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("ai_gateway_request_failed", "error", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrAnalysisFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.log.Warn("ai_gateway_rate_limited")
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		c.log.Warn("ai_gateway_payment_required")
		return nil, ErrPaymentRequired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.log.Error("ai_gateway_error", "status", resp.StatusCode, "body", truncate(string(body), 512))
		return nil, fmt.Errorf("%w: gateway status %d", ErrAnalysisFailed, resp.StatusCode)
	}

	var parsed ChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrAnalysisFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrAnalysisFailed)
	}
	return &parsed, nil
}

// Text sends a plain system+user exchange and returns the reply text.
func (c *Client) Text(ctx context.Context, system string, user any) (string, error) {
	return c.reply(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
}

func (c *Client) reply(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", ErrAnalysisFailed)
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
