// Package ollama is a thin HTTP client for a local Ollama server,
// covering the chat and embedding endpoints Angela uses.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelahq/angela/internal/config"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/pkg/metrics"
)

const (
	// DefaultBaseURL is the standard local Ollama address
	DefaultBaseURL = "http://localhost:11434"

	// maxErrorBody caps how much of an error response lands in the error message
	maxErrorBody = 512
)

// Client talks to an Ollama server
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new Ollama client
func NewClient(cfg config.OllamaConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// ChatMessage is a single message in a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes model inference
type ChatOptions struct {
	NumCtx      int     `json:"num_ctx,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ChatRequest is a non-streaming chat completion request
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Options  *ChatOptions  `json:"options,omitempty"`
	Stream   bool          `json:"stream"`
}

// ChatResponse is the completed chat turn
type ChatResponse struct {
	Model           string      `json:"model"`
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	TotalDuration   int64       `json:"total_duration"`
}

// Chat runs a chat completion against /api/chat
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	req.Stream = false

	start := time.Now()
	var result ChatResponse
	err := c.post(ctx, "/api/chat", req, &result)
	metrics.RecordOllamaRequest("chat", req.Model, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	metrics.RecordOllamaTokens(req.Model, result.EvalCount)
	return &result, nil
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a prompt against /api/embeddings
func (c *Client) Embed(ctx context.Context, model, prompt string) ([]float32, error) {
	req := embedRequest{Model: model, Prompt: prompt}

	start := time.Now()
	var result embedResponse
	err := c.post(ctx, "/api/embeddings", req, &result)
	metrics.RecordOllamaRequest("embed", model, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned empty embedding for model %s", model)
	}

	return result.Embedding, nil
}

// ModelInfo describes an installed model
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// Tags lists the models installed on the server
func (c *Client) Tags(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.Unavailable("ollama is unreachable").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Models, nil
}

// Heartbeat checks that the server is reachable
func (c *Client) Heartbeat(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	return nil
}

// post sends a JSON request and decodes a JSON response
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// Transport failure means the server is down or unreachable; a
		// reachable server that answers with an error keeps a plain error.
		return apperrors.Unavailable("ollama is unreachable").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
