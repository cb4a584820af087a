// Package ollama provides Ollama integration for local text completion
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

	"go.uber.org/zap"

	"github.com/nutriswap/recommender/internal/ports/outbound"
)

const providerName = "ollama"

// Config holds Ollama client settings
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements outbound.TextCompletionService using the Ollama chat API
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

var _ outbound.TextCompletionService = (*Client)(nil)

// NewClient creates a new Ollama client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2:3b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger.Info("Ollama client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("ollama-client"),
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return providerName
}

// Ollama API structures
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ChatResponse struct {
	Model           string      `json:"model"`
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	TotalDuration   int64       `json:"total_duration,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Complete sends the prompt to /api/chat with streaming disabled
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	options := map[string]interface{}{
		"temperature": c.cfg.Temperature,
	}
	if c.cfg.MaxTokens > 0 {
		options["num_predict"] = c.cfg.MaxTokens
	}
	reqBody := ChatRequest{
		Model:    c.cfg.Model,
		Messages: []ChatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Format:   "json",
		Options:  options,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", outbound.NewCompletionError(providerName, http.StatusBadRequest, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", outbound.NewCompletionError(providerName, http.StatusBadRequest, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", outbound.NewCompletionError(providerName, 0, fmt.Errorf("ollama request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", outbound.NewCompletionError(providerName, 0, fmt.Errorf("failed to read response: %w", err))
	}

	var chatResp ChatResponse
	decodeErr := json.Unmarshal(body, &chatResp)
	if resp.StatusCode != http.StatusOK {
		message := string(body)
		if decodeErr == nil && chatResp.Error != "" {
			message = chatResp.Error
		}
		return "", outbound.NewCompletionError(providerName, resp.StatusCode, fmt.Errorf("ollama error: %s", message))
	}
	if decodeErr != nil {
		return "", outbound.NewCompletionError(providerName, http.StatusBadGateway, fmt.Errorf("failed to unmarshal response: %w", decodeErr))
	}

	c.logger.Debug("Ollama chat completed",
		zap.String("model", chatResp.Model),
		zap.Int("prompt_tokens", chatResp.PromptEvalCount),
		zap.Int("completion_tokens", chatResp.EvalCount),
		zap.Duration("duration", time.Duration(chatResp.TotalDuration)),
	)

	return chatResp.Message.Content, nil
}
