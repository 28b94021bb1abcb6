package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Completer sends one prompt to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyResponse is returned when the service answers without content.
var ErrEmptyResponse = stderrors.New("model returned an empty response")

// Defaults applied by NewClient for zero-valued Config fields.
const (
	DefaultMaxTokens = 8192
	DefaultTimeout   = 2 * time.Minute
)

// Config holds the settings of an OpenAI-compatible endpoint.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration // per request
	HTTPClient  *http.Client
}

// Client is a Completer backed by the chat completions API.
type Client struct {
	cfg    Config
	client *openai.Client
}

// NewClient creates a client for cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is not configured")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("llm endpoint is not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is not configured")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = BaseURL(cfg.Endpoint)
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// BaseURL turns a service endpoint into the API base URL: trailing slashes
// are dropped and "/v1" is appended unless already present.
func BaseURL(endpoint string) string {
	base := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(
		reqCtx,
		openai.ChatCompletionRequest{
			Model:       c.cfg.Model,
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		if ctx.Err() == nil && stderrors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("model request timeout after %s: %w", c.cfg.Timeout, context.DeadlineExceeded)
		}
		if stderrors.Is(err, context.Canceled) {
			return "", fmt.Errorf("model request canceled: %w", err)
		}
		return "", fmt.Errorf("model API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model API returned no choices: %w", ErrEmptyResponse)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
