// Package stub is a deterministic backend for test suites and offline runs.
// It checks field presence only and never calls a model.
package stub

import (
	"context"
	"fmt"
	"strings"

	"github.com/at-ishikawa/apijudge/internal/inference"
)

type Client struct {
	// Err, when set, is returned by every call. Use it to exercise error paths.
	Err error
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Name() string {
	return "stub"
}

func (c *Client) ValidateResponse(ctx context.Context, req inference.ValidationRequest) (inference.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return inference.ValidationResult{}, &inference.ServiceUnavailableError{Backend: c.Name(), Err: err}
	}
	if c.Err != nil {
		return inference.ValidationResult{}, c.Err
	}
	if !req.Response.IsValid() {
		return inference.ValidationResult{}, fmt.Errorf("response payload is empty")
	}

	missing := req.MissingFields()
	if len(missing) > 0 {
		return inference.ValidationResult{
			IsValid:  false,
			Feedback: fmt.Sprintf("The response is missing expected fields: %s.", strings.Join(missing, ", ")),
		}, nil
	}
	if len(req.ExpectedFields) == 0 {
		return inference.ValidationResult{
			IsValid:  true,
			Feedback: fmt.Sprintf("No expected fields were specified; the response is a %s.", req.Response.Kind()),
		}, nil
	}
	return inference.ValidationResult{
		IsValid:  true,
		Feedback: fmt.Sprintf("All expected fields are present: %s.", strings.Join(req.ExpectedFields, ", ")),
	}, nil
}
