package stub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/apijudge/internal/inference"
	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
)

func TestClient_ValidateResponse(t *testing.T) {
	user, err := jsonvalue.Parse([]byte(`{"id":1,"name":"Leanne Graham","email":"[email protected]"}`))
	require.NoError(t, err)

	tests := []struct {
		name         string
		request      inference.ValidationRequest
		wantValid    bool
		wantFeedback []string
	}{
		{
			name: "missing username",
			request: inference.ValidationRequest{
				Response:       user,
				ExpectedFields: []string{"id", "name", "email", "username"},
				Context:        "User object must include username",
			},
			wantValid:    false,
			wantFeedback: []string{"username"},
		},
		{
			name:         "all present",
			request:      inference.ValidationRequest{Response: user, ExpectedFields: []string{"id", "email"}},
			wantValid:    true,
			wantFeedback: []string{"id", "email"},
		},
		{
			name:         "no expected fields",
			request:      inference.ValidationRequest{Response: user},
			wantValid:    true,
			wantFeedback: []string{"object"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClient().ValidateResponse(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.NotEmpty(t, got.Feedback)
			for _, want := range tt.wantFeedback {
				assert.Contains(t, got.Feedback, want)
			}
		})
	}
}

func TestClient_ValidateResponse_Errors(t *testing.T) {
	injected := &inference.AuthenticationError{Backend: "stub", Err: errors.New("denied")}
	_, err := (&Client{Err: injected}).ValidateResponse(context.Background(), inference.ValidationRequest{Response: jsonvalue.Null()})
	assert.True(t, inference.IsAuthentication(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient().ValidateResponse(ctx, inference.ValidationRequest{Response: jsonvalue.Null()})
	assert.True(t, inference.IsServiceUnavailable(err))

	_, err = NewClient().ValidateResponse(context.Background(), inference.ValidationRequest{})
	assert.Error(t, err)
}
