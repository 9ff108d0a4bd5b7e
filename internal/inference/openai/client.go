package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/at-ishikawa/apijudge/internal/inference"
	"resty.dev/v3"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	backendName = "openai"
)

// Config is read once from configuration and never changes afterwards.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds a single HTTP exchange. Zero leaves it to the context.
	Timeout time.Duration
}

type Client struct {
	httpClient *resty.Client
	model      string
	hasAPIKey  bool
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		httpClient: client,
		model:      model,
		hasAPIKey:  cfg.APIKey != "",
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

func (client *Client) Name() string {
	return backendName
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ValidateResponse implements the inference.Client interface
func (client *Client) ValidateResponse(
	ctx context.Context,
	req inference.ValidationRequest,
) (inference.ValidationResult, error) {
	if !client.hasAPIKey {
		return inference.ValidationResult{}, &inference.AuthenticationError{
			Backend: backendName,
			Err:     fmt.Errorf("OPENAI_API_KEY: %w", inference.ErrMissingCredential),
		}
	}

	prompt, err := inference.BuildPrompt(req)
	if err != nil {
		return inference.ValidationResult{}, fmt.Errorf("inference.BuildPrompt > %w", err)
	}

	requestBody := ChatCompletionRequest{
		Model:          client.model,
		Temperature:    0.1,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
		Messages: []Message{
			{Role: RoleSystem, Content: prompt.System},
			{Role: RoleUser, Content: prompt.User},
		},
	}

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		Post("/chat/completions")
	if err != nil {
		return inference.ValidationResult{}, classifyTransportError(ctx, err)
	}
	if response.IsError() {
		return inference.ValidationResult{}, inference.ClassifyStatus(backendName, response.StatusCode(), response.String())
	}

	var responseBody ChatCompletionResponse
	if err := json.Unmarshal([]byte(response.String()), &responseBody); err != nil {
		return inference.ValidationResult{}, &inference.MalformedResponseError{
			Raw: response.String(),
			Err: fmt.Errorf("json.Unmarshal(chat completion) > %w", err),
		}
	}
	if len(responseBody.Choices) == 0 {
		return inference.ValidationResult{}, &inference.MalformedResponseError{
			Raw: response.String(),
			Err: fmt.Errorf("empty response body or choices"),
		}
	}

	content := responseBody.Choices[0].Message.Content
	slog.Default().Debug("openai response content",
		"model", client.model,
		"finishReason", responseBody.Choices[0].FinishReason,
		"response", content,
	)

	result, err := inference.ParseVerdict(content)
	if err != nil {
		slog.Default().Error("Failed to parse OpenAI response as a verdict",
			"model", client.model,
			"error", err)
		return inference.ValidationResult{}, err
	}
	return result, nil
}

// classifyTransportError maps failures without an HTTP response. A request
// that never got an answer is always treated as the service being unavailable.
func classifyTransportError(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &inference.ServiceUnavailableError{Backend: backendName, Err: fmt.Errorf("request timed out: %w", err)}
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return fmt.Errorf("httpClient.Post > %w", err)
	default:
		return &inference.ServiceUnavailableError{Backend: backendName, Err: fmt.Errorf("httpClient.Post > %w", err)}
	}
}
