package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ctrlbench/ctrlbench/internal/models"
)

// OpenAIClient backs controllers with the OpenAI chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// OpenAIOptions configures the OpenAI client.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string // empty = api.openai.com
	Model   string // default model when a request carries none
	Logger  *slog.Logger
}

// NewOpenAIClient creates an OpenAI-backed client.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
		logger: opts.Logger,
	}, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	c.logger.Debug("requesting completion", "model", model)

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Temperature > 0 {
		chatReq.Temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		chatReq.MaxCompletionTokens = req.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		c.logger.Debug("completion failed", "model", model, "error", err)
		return "", classifyAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", models.Transientf("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyAPIError maps OpenAI client errors onto the engine's
// transient/permanent taxonomy. Rate limits, timeouts, and server-side
// faults are worth retrying; anything the API rejected outright is not.
func classifyAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if retryableStatus(apiErr.HTTPStatusCode) {
			return models.Transient(err)
		}
		return models.Permanent(err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if retryableStatus(reqErr.HTTPStatusCode) {
			return models.Transient(err)
		}
		return models.Permanent(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.Transient(err)
	}

	// Connection-level failures without a response are worth retrying.
	return models.Transient(err)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= http.StatusInternalServerError
}
