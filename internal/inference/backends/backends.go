// Package backends builds the configured inference backend.
package backends

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/apijudge/internal/config"
	"github.com/at-ishikawa/apijudge/internal/inference"
	"github.com/at-ishikawa/apijudge/internal/inference/bedrock"
	"github.com/at-ishikawa/apijudge/internal/inference/gemini"
	"github.com/at-ishikawa/apijudge/internal/inference/openai"
	"github.com/at-ishikawa/apijudge/internal/inference/stub"
	"github.com/at-ishikawa/apijudge/internal/validator"
)

const (
	OpenAI  = "openai"
	Bedrock = "bedrock"
	Gemini  = "gemini"
	Stub    = "stub"
)

// New returns the backend called name, configured from cfg. The returned
// close function releases its connections.
func New(ctx context.Context, name string, cfg *config.Config) (inference.Client, func() error, error) {
	noop := func() error { return nil }

	switch name {
	case OpenAI:
		client := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
			Timeout: cfg.Timeout,
		})
		return client, client.Close, nil
	case Bedrock:
		client, err := bedrock.NewClient(ctx, bedrock.Config{
			Region:    cfg.Bedrock.Region,
			ModelID:   cfg.Bedrock.ModelID,
			MaxTokens: cfg.Bedrock.MaxTokens,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("bedrock.NewClient() > %w", err)
		}
		return client, noop, nil
	case Gemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("gemini.NewClient() > %w", err)
		}
		return client, client.Close, nil
	case Stub:
		return stub.NewClient(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
}

// NewValidator wraps client with the timeout and retry policy of cfg.
func NewValidator(client inference.Client, cfg *config.Config) *validator.Validator {
	return validator.New(client,
		validator.WithTimeout(cfg.Timeout),
		validator.WithRetry(validator.RetryPolicy{
			Attempts:     cfg.Retry.Attempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
		}),
	)
}
