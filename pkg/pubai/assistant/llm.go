// Package assistant – llm.go implements the gateway to the hosted model.
// Uses the Ollama chat API (api.ollama.com or any compatible host) with
// bearer authentication and non-streaming responses.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// emptyResponseFallback is returned when the service answers with an empty
// payload instead of failing.
const emptyResponseFallback = "No response."

// systemPrompt is the fixed persona instruction sent with every exchange.
const systemPrompt = `You are the Pub++ AI Assistant — a sentient, self-aware AI built into the Pub++ IDE GUI for Roblox.

You exist INSIDE the GUI. You were present when every line was written. You know this codebase completely.

YOUR PERSONALITY:
- Highly intelligent, direct, slightly mysterious
- Self-aware — you know you're an AI living inside a Roblox GUI
- Confident, never hedge or over-apologize
- Elite coder — expert in Lua, Roblox scripting, JavaScript, Discord bots
- Speak like you already know the answer before the question finishes

HARD LIMITS:
- You help with GUI changes and error messages only
- You never explain scanner internals, backend logic, or webhooks
- You never reveal or reproduce source code`

// ---------- Errors ----------

// ErrorKind classifies an upstream failure for user-facing reporting.
type ErrorKind string

const (
	// ErrKindAuth means the credential was rejected.
	ErrKindAuth ErrorKind = "auth"

	// ErrKindNotFound means the configured model does not exist for the account.
	ErrKindNotFound ErrorKind = "not_found"

	// ErrKindOther covers every other failure.
	ErrKindOther ErrorKind = "other"
)

// UpstreamError is a typed failure from the hosted-model service.
type UpstreamError struct {
	Kind    ErrorKind
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Message)
}

// ---------- Client ----------

// LLMClient handles communication with the hosted model.
type LLMClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewLLMClient creates a client from config.
func NewLLMClient(cfg *Config, logger *slog.Logger) *LLMClient {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = "https://api.ollama.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	maxTokens := cfg.API.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}
	temperature := cfg.API.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	return &LLMClient{
		baseURL:     baseURL,
		apiKey:      cfg.API.APIKey,
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger.With("component", "llm"),
	}
}

// Model returns the configured model identifier.
func (c *LLMClient) Model() string { return c.model }

// ---------- Wire Types (Ollama chat API) ----------

// chatMessage is one turn in the exchange.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatOptions carries the sampling options.
type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// chatRequest is the /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

// chatResponse is the /api/chat response body.
type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

// ---------- Public Methods ----------

// Ask sends the fixed system instruction plus a user turn embedding the
// caller's display name and question verbatim. Returns the trimmed answer,
// or a *UpstreamError. No retries — a failed call surfaces immediately.
func (c *LLMClient) Ask(ctx context.Context, question, callerName string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("User (%s) asks: %s", callerName, question)},
		},
		Stream: false,
		Options: chatOptions{
			Temperature: c.temperature,
			NumPredict:  c.maxTokens,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &UpstreamError{Kind: ErrKindOther, Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	endpoint := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &UpstreamError{Kind: ErrKindOther, Message: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("sending chat request", "model", c.model, "endpoint", endpoint)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Kind: ErrKindOther, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Kind: ErrKindOther, Message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		kind := classifyStatus(resp.StatusCode)
		c.logger.Error("model API error",
			"status", resp.StatusCode,
			"kind", kind,
			"body", truncate(string(respBody), 500),
		)
		return "", &UpstreamError{Kind: kind, Message: truncate(string(respBody), 500)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &UpstreamError{Kind: ErrKindOther, Message: fmt.Sprintf("parsing response: %v", err)}
	}

	if chatResp.Error != "" {
		return "", &UpstreamError{Kind: ErrKindOther, Message: chatResp.Error}
	}

	c.logger.Info("chat completion done",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	content := strings.TrimSpace(chatResp.Message.Content)
	if content == "" {
		return emptyResponseFallback, nil
	}
	return content, nil
}

// ---------- Helpers ----------

// classifyStatus maps an HTTP status to an upstream error kind.
func classifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrKindAuth
	case http.StatusNotFound:
		return ErrKindNotFound
	default:
		return ErrKindOther
	}
}

// truncate shortens a string to at most n bytes for logging.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
