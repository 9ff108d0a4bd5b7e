package inference

import (
	"context"

	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client is a semantic validation backend. One call is one attempt and
// issues at most one outbound request; retry policy belongs to the caller.
//
// Verdicts come from a generative model and are not stable across calls with
// identical input. Tests should assert the result shape and error paths, and
// use the stub backend or a mock for anything else.
type Client interface {
	ValidateResponse(ctx context.Context, req ValidationRequest) (ValidationResult, error)
	Name() string
}

// ValidationRequest is a response payload plus what the caller expects of it.
type ValidationRequest struct {
	Response jsonvalue.Value `json:"response"`
	// ExpectedFields are dotted paths that must exist in Response. Order is
	// kept for reporting only.
	ExpectedFields []string `json:"expected_fields,omitempty"`
	// Context describes in free text what a valid response means.
	Context string `json:"context,omitempty"`
}

// MissingFields returns the expected fields absent from the response.
func (req ValidationRequest) MissingFields() []string {
	return req.Response.MissingFields(req.ExpectedFields)
}

// ValidationResult is the verdict. Feedback is populated on success too so
// reports keep an audit trail.
type ValidationResult struct {
	IsValid  bool   `json:"is_valid"`
	Feedback string `json:"feedback"`
}
