// Package bedrock validates responses with an Anthropic model served by
// Amazon Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/at-ishikawa/apijudge/internal/inference"
)

const (
	DefaultModelID   = "anthropic.claude-3-haiku-20240307-v1:0"
	DefaultMaxTokens = 1024

	backendName      = "bedrock"
	anthropicVersion = "bedrock-2023-05-31"
)

type Config struct {
	Region    string
	ModelID   string
	MaxTokens int
}

// InvokeModelAPI is the part of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Client struct {
	api       InvokeModelAPI
	modelID   string
	maxTokens int
}

// NewClient loads the default AWS configuration and resolves credentials once.
// Missing credentials are reported as an AuthenticationError here instead of
// on every call.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("config.LoadDefaultConfig > %w", err)
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, &inference.AuthenticationError{
			Backend: backendName,
			Err:     fmt.Errorf("%w: %v", inference.ErrMissingCredential, err),
		}
	}
	return NewClientWithAPI(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

func NewClientWithAPI(api InvokeModelAPI, cfg Config) *Client {
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Client{api: api, modelID: modelID, maxTokens: maxTokens}
}

func (c *Client) Name() string {
	return backendName
}

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *Client) ValidateResponse(ctx context.Context, req inference.ValidationRequest) (inference.ValidationResult, error) {
	prompt, err := inference.BuildPrompt(req)
	if err != nil {
		return inference.ValidationResult{}, fmt.Errorf("inference.BuildPrompt > %w", err)
	}

	payload, err := json.Marshal(claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		Temperature:      0.1,
		System:           prompt.System,
		Messages:         []claudeMessage{{Role: "user", Content: prompt.User}},
	})
	if err != nil {
		return inference.ValidationResult{}, fmt.Errorf("json.Marshal(claude request) > %w", err)
	}

	output, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return inference.ValidationResult{}, classifyError(err)
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return inference.ValidationResult{}, &inference.MalformedResponseError{
			Raw: string(output.Body),
			Err: fmt.Errorf("json.Unmarshal(bedrock response) > %w", err),
		}
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	slog.Default().Debug("bedrock response content",
		"model", c.modelID,
		"stopReason", response.StopReason,
		"response", text.String(),
	)

	return inference.ParseVerdict(text.String())
}

func classifyError(err error) error {
	var (
		accessDenied *types.AccessDeniedException
		throttling   *types.ThrottlingException
		unavailable  *types.ServiceUnavailableException
		internal     *types.InternalServerException
		modelTimeout *types.ModelTimeoutException
		notReady     *types.ModelNotReadyException
		apiErr       smithy.APIError
		respErr      *awshttp.ResponseError
	)
	wrapped := fmt.Errorf("InvokeModel > %w", err)

	switch {
	case errors.As(err, &accessDenied):
		return &inference.AuthenticationError{Backend: backendName, StatusCode: 403, Err: wrapped}
	case errors.As(err, &throttling), errors.As(err, &unavailable), errors.As(err, &internal),
		errors.As(err, &modelTimeout), errors.As(err, &notReady):
		return &inference.ServiceUnavailableError{Backend: backendName, Err: wrapped}
	case errors.Is(err, context.DeadlineExceeded):
		return &inference.ServiceUnavailableError{Backend: backendName, Err: fmt.Errorf("request timed out: %w", err)}
	}

	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UnrecognizedClientException", "InvalidSignatureException", "ExpiredTokenException":
			return &inference.AuthenticationError{Backend: backendName, Err: wrapped}
		}
	}
	if errors.As(err, &respErr) {
		classified := inference.ClassifyStatus(backendName, respErr.HTTPStatusCode(), respErr.Error())
		if inference.IsAuthentication(classified) || inference.IsServiceUnavailable(classified) {
			return classified
		}
		return wrapped
	}
	if errors.Is(err, context.Canceled) {
		return wrapped
	}
	// no HTTP response at all: connection refused, DNS, reset
	return &inference.ServiceUnavailableError{Backend: backendName, Err: wrapped}
}
