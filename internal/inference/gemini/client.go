// Package gemini validates responses with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/at-ishikawa/apijudge/internal/inference"
)

const (
	DefaultModel = "gemini-1.5-flash"

	backendName = "gemini"
)

type Config struct {
	APIKey string
	Model  string
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	genaiClient *genai.Client
	model       contentGenerator
	modelName   string
}

// NewClient returns a client that fails every call with an AuthenticationError
// when no API key is configured.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	if cfg.APIKey == "" {
		return &Client{modelName: modelName}, nil
	}

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient > %w", err)
	}

	model := genaiClient.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(inference.SystemPrompt())},
	}

	return &Client{genaiClient: genaiClient, model: model, modelName: modelName}, nil
}

func (c *Client) Close() error {
	if c.genaiClient == nil {
		return nil
	}
	return c.genaiClient.Close()
}

func (c *Client) Name() string {
	return backendName
}

func (c *Client) ValidateResponse(ctx context.Context, req inference.ValidationRequest) (inference.ValidationResult, error) {
	if c.model == nil {
		return inference.ValidationResult{}, &inference.AuthenticationError{
			Backend: backendName,
			Err:     fmt.Errorf("GEMINI_API_KEY: %w", inference.ErrMissingCredential),
		}
	}

	prompt, err := inference.BuildPrompt(req)
	if err != nil {
		return inference.ValidationResult{}, fmt.Errorf("inference.BuildPrompt > %w", err)
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt.User))
	if err != nil {
		return inference.ValidationResult{}, classifyError(err)
	}

	content := responseText(resp)
	slog.Default().Debug("gemini response content",
		"model", c.modelName,
		"response", content,
	)
	return inference.ParseVerdict(content)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		// the first candidate with content is the answer
		if text.Len() > 0 {
			break
		}
	}
	return text.String()
}

func classifyError(err error) error {
	wrapped := fmt.Errorf("GenerateContent > %w", err)

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &inference.MalformedResponseError{Raw: blocked.Error(), Err: wrapped}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &inference.ServiceUnavailableError{Backend: backendName, Err: fmt.Errorf("request timed out: %w", err)}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if status := apiErr.HTTPCode(); status > 0 {
			return statusError(status, wrapped)
		}
		switch apiErr.GRPCStatus().Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return &inference.AuthenticationError{Backend: backendName, Err: wrapped}
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Internal:
			return &inference.ServiceUnavailableError{Backend: backendName, Err: wrapped}
		}
		return wrapped
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return statusError(googleErr.Code, wrapped)
	}
	if errors.Is(err, context.Canceled) {
		return wrapped
	}
	return &inference.ServiceUnavailableError{Backend: backendName, Err: wrapped}
}

func statusError(status int, wrapped error) error {
	switch {
	case status == http.StatusBadRequest && strings.Contains(wrapped.Error(), "API key not valid"):
		// Gemini rejects bad keys with 400 INVALID_ARGUMENT
		return &inference.AuthenticationError{Backend: backendName, StatusCode: status, Err: wrapped}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &inference.AuthenticationError{Backend: backendName, StatusCode: status, Err: wrapped}
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return &inference.ServiceUnavailableError{Backend: backendName, StatusCode: status, Err: wrapped}
	default:
		return wrapped
	}
}
