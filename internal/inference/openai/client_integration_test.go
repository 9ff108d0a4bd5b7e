//go:build integration

package openai_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/at-ishikawa/apijudge/internal/inference"
	"github.com/at-ishikawa/apijudge/internal/inference/openai"
	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires OPENAI_API_KEY.
// Run with: OPENAI_API_KEY=your-key go test -tags integration -v ./internal/inference/openai
//
// Verdicts are not deterministic, so only the result shape and the grounding
// of the feedback in the input are asserted.
func TestClient_ValidateResponse_Live(t *testing.T) {
	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})),
	)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY environment variable not set, skipping integration test")
	}

	client := openai.NewClient(openai.Config{
		APIKey: apiKey,
		Model:  os.Getenv("OPENAI_MODEL"),
	})
	defer func() {
		_ = client.Close()
	}()

	response, err := jsonvalue.Parse([]byte(`{"id":1,"name":"Leanne Graham","email":"[email protected]"}`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	got, err := client.ValidateResponse(ctx, inference.ValidationRequest{
		Response:       response,
		ExpectedFields: []string{"id", "name", "email", "username"},
		Context:        "User object must include username",
	})
	require.NoError(t, err)
	assert.False(t, got.IsValid)
	assert.True(t, strings.Contains(strings.ToLower(got.Feedback), "username"), got.Feedback)
}
