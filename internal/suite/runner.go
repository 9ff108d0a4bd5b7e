package suite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/at-ishikawa/apijudge/internal/apiclient"
	"github.com/at-ishikawa/apijudge/internal/inference"
	"github.com/at-ishikawa/apijudge/internal/report"
)

const DefaultParallelism = 4

// Validator produces a semantic verdict for a fetched response.
type Validator interface {
	Validate(ctx context.Context, req inference.ValidationRequest) (inference.ValidationResult, error)
	Backend() string
}

type Runner struct {
	validator            Validator
	parallelism          int
	httpTimeout          time.Duration
	slowThreshold        time.Duration
	failOnSecurityIssues bool
	now                  func() time.Time
}

type Option func(*Runner)

func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

func WithHTTPTimeout(timeout time.Duration) Option {
	return func(r *Runner) { r.httpTimeout = timeout }
}

func WithSlowThreshold(threshold time.Duration) Option {
	return func(r *Runner) { r.slowThreshold = threshold }
}

// WithFailOnSecurityIssues turns missing security headers into failures.
func WithFailOnSecurityIssues(fail bool) Option {
	return func(r *Runner) { r.failOnSecurityIssues = fail }
}

func NewRunner(v Validator, opts ...Option) *Runner {
	r := &Runner{
		validator:     v,
		parallelism:   DefaultParallelism,
		httpTimeout:   apiclient.DefaultTimeout,
		slowThreshold: apiclient.DefaultSlowThreshold,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every case of s. Results keep the order of the cases. The
// returned error is set only when ctx ends before the run completes.
func (r *Runner) Run(ctx context.Context, s Suite) (report.Run, error) {
	run := report.NewRun(s.Name, r.validator.Backend(), r.now())
	client := apiclient.New(s.BaseURL, r.httpTimeout)
	logger := slog.Default().With(slog.String("suite", s.Name), slog.String("run", run.ID))

	results := make([]report.CaseResult, len(s.Cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, c := range s.Cases {
		g.Go(func() error {
			results[i] = r.runCase(gctx, client, s, c)
			logger.Debug("case finished",
				slog.String("case", c.Name),
				slog.String("status", string(results[i].Status)),
			)
			return nil
		})
	}
	_ = g.Wait()

	run.Results = results
	run.FinishedAt = r.now()
	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("run %s interrupted > %w", s.Name, err)
	}
	return run, nil
}

func (r *Runner) runCase(ctx context.Context, client *apiclient.Client, s Suite, c Case) (result report.CaseResult) {
	startedAt := r.now()
	result = report.CaseResult{
		Name:            c.Name,
		Method:          c.Method,
		Endpoint:        c.Endpoint,
		Metadata:        c.Metadata,
		ScenariosTested: scenarioNames(c.Method),
	}
	defer func() {
		result.Duration = r.now().Sub(startedAt)
	}()

	resp, err := client.Do(ctx, apiclient.Request{
		Method:   c.Method,
		Endpoint: c.Endpoint,
		Headers:  mergeHeaders(s.Headers, c.Headers),
		Payload:  c.Payload,
	})
	if err != nil {
		result.Status = report.StatusError
		result.Error = err.Error()
		return result
	}

	result.Analysis = apiclient.Analyze(resp, r.slowThreshold)
	result.SecurityIssues = apiclient.SecurityIssues(resp.Headers)

	var reasons []string
	switch {
	case c.ExpectStatus != 0 && resp.StatusCode != c.ExpectStatus:
		reasons = append(reasons, fmt.Sprintf("unexpected status code %d, want %d", resp.StatusCode, c.ExpectStatus))
	case c.ExpectStatus == 0 && !resp.IsSuccess():
		reasons = append(reasons, fmt.Sprintf("unexpected status code %d", resp.StatusCode))
	}

	if c.NeedsValidation() {
		if !resp.JSON.IsValid() {
			reasons = append(reasons, "response body is not JSON")
		} else {
			result.MissingFields = resp.JSON.MissingFields(c.ExpectedFields)
			verdict, err := r.validator.Validate(ctx, inference.ValidationRequest{
				Response:       resp.JSON,
				ExpectedFields: c.ExpectedFields,
				Context:        c.Context,
			})
			if err != nil {
				result.Status = report.StatusError
				result.Error = err.Error()
				result.Reason = strings.Join(reasons, "; ")
				return result
			}
			result.Verdict = &verdict
			if !verdict.IsValid {
				reasons = append(reasons, "AI validation failed")
			}
		}
	}

	if r.failOnSecurityIssues && len(result.SecurityIssues) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d security issues found", len(result.SecurityIssues)))
	}

	result.Status = report.StatusPass
	if len(reasons) > 0 {
		result.Status = report.StatusFail
		result.Reason = strings.Join(reasons, "; ")
	}
	return result
}

func mergeHeaders(base map[string]string, override map[string]string) map[string]string {
	headers := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		headers[k] = v
	}
	for k, v := range override {
		headers[k] = v
	}
	return headers
}
