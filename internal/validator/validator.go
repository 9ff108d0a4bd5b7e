// Package validator issues semantic verdicts over API responses through an
// inference backend.
//
// A verdict with IsValid == false is a normal result. Infrastructure failures
// are returned as errors (see the inference package error types) and must be
// reported as test errors, not as test failures.
//
// Verdicts come from a generative model and are not reproducible. Assert on
// the shape of the result and on error paths; use the stub backend or a mock
// client when a test needs a fixed verdict.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/at-ishikawa/apijudge/internal/inference"
)

const DefaultTimeout = 30 * time.Second

// RetryPolicy controls how ServiceUnavailableErrors are retried. Other errors
// are never retried.
type RetryPolicy struct {
	// Attempts includes the first call. 0 and 1 both mean no retry.
	Attempts     uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 1, InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// ErrInvalidRequest is returned before any backend call when the request
// cannot be validated at all.
var ErrInvalidRequest = errors.New("invalid validation request")

// Validator is immutable after New and safe for concurrent use.
type Validator struct {
	backend inference.Client
	timeout time.Duration
	retry   RetryPolicy
}

type Option func(*Validator)

// WithTimeout bounds each attempt. A non-positive value keeps the default.
func WithTimeout(timeout time.Duration) Option {
	return func(v *Validator) {
		if timeout > 0 {
			v.timeout = timeout
		}
	}
}

func WithRetry(policy RetryPolicy) Option {
	return func(v *Validator) {
		v.retry = policy
	}
}

func New(backend inference.Client, opts ...Option) *Validator {
	v := &Validator{
		backend: backend,
		timeout: DefaultTimeout,
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.retry.Attempts == 0 {
		v.retry.Attempts = 1
	}
	return v
}

func (v *Validator) Backend() string {
	return v.backend.Name()
}

// Validate returns a verdict for req. When expected fields are missing the
// verdict is invalid and its feedback names each of them, whatever the
// backend answered.
func (v *Validator) Validate(ctx context.Context, req inference.ValidationRequest) (inference.ValidationResult, error) {
	if !req.Response.IsValid() {
		return inference.ValidationResult{}, fmt.Errorf("%w: response payload is empty", ErrInvalidRequest)
	}
	for _, field := range req.ExpectedFields {
		if strings.TrimSpace(field) == "" {
			return inference.ValidationResult{}, fmt.Errorf("%w: expected field names must not be blank", ErrInvalidRequest)
		}
	}

	var result inference.ValidationResult
	err := retry.Do(
		func() error {
			got, err := v.attempt(ctx, req)
			if err != nil {
				return err
			}
			result = got
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(v.retry.Attempts),
		retry.Delay(v.retry.InitialDelay),
		retry.MaxDelay(v.retry.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(inference.IsServiceUnavailable),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Info("Retrying validation",
				"backend", v.backend.Name(),
				"attempt", n+1,
				"lastError", err)
		}),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !inference.IsServiceUnavailable(err) {
			err = &inference.ServiceUnavailableError{Backend: v.backend.Name(), Err: err}
		}
		return inference.ValidationResult{}, err
	}

	return ground(result, req.MissingFields()), nil
}

func (v *Validator) attempt(ctx context.Context, req inference.ValidationRequest) (inference.ValidationResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	type outcome struct {
		result inference.ValidationResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := v.backend.ValidateResponse(attemptCtx, req)
		done <- outcome{result: result, err: err}
	}()

	// a backend that ignores its context must not hold the caller past the timeout
	select {
	case out := <-done:
		return out.result, out.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return inference.ValidationResult{}, ctx.Err()
		}
		return inference.ValidationResult{}, &inference.ServiceUnavailableError{
			Backend: v.backend.Name(),
			Err:     fmt.Errorf("no verdict within %s: %w", v.timeout, attemptCtx.Err()),
		}
	}
}

func ground(result inference.ValidationResult, missing []string) inference.ValidationResult {
	feedback := strings.TrimSpace(result.Feedback)

	if len(missing) > 0 {
		result.IsValid = false
		var unmentioned []string
		for _, field := range missing {
			if !strings.Contains(feedback, field) {
				unmentioned = append(unmentioned, field)
			}
		}
		if len(unmentioned) > 0 {
			note := fmt.Sprintf("Missing expected fields: %s.", strings.Join(unmentioned, ", "))
			feedback = strings.TrimSpace(feedback + " " + note)
		}
	}

	if feedback == "" {
		if result.IsValid {
			feedback = "The response matches the expected fields and description."
		} else {
			feedback = "The response does not match the expected description."
		}
	}
	result.Feedback = feedback
	return result
}
