// Package report holds the results of a suite run and the writers that
// publish them.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/apijudge/internal/apiclient"
	"github.com/at-ishikawa/apijudge/internal/inference"
)

//go:generate mockgen -source=report.go -destination=../mocks/report/mock_writer.go -package=mock_report

type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// Metadata describes a test case for readers of a report. It is attached
// where the case is declared and never affects its outcome.
type Metadata struct {
	Feature  string   `json:"feature,omitempty" yaml:"feature"`
	Story    string   `json:"story,omitempty" yaml:"story"`
	Severity string   `json:"severity,omitempty" yaml:"severity" validate:"omitempty,oneof=blocker critical normal minor trivial"`
	Tags     []string `json:"tags,omitempty" yaml:"tags"`
}

type CaseResult struct {
	Name            string                      `json:"name"`
	Method          string                      `json:"method"`
	Endpoint        string                      `json:"endpoint"`
	Metadata        Metadata                    `json:"metadata"`
	Status          Status                      `json:"status"`
	Analysis        apiclient.Analysis          `json:"analysis"`
	SecurityIssues  []string                    `json:"security_issues,omitempty"`
	ScenariosTested []string                    `json:"scenarios_tested,omitempty"`
	Verdict         *inference.ValidationResult `json:"ai_validation,omitempty"`
	MissingFields   []string                    `json:"missing_fields,omitempty"`
	// Reason explains a FAIL; Error carries the infrastructure failure of an ERROR.
	Reason   string        `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

type Run struct {
	ID         string       `json:"id"`
	SuiteName  string       `json:"suite"`
	Backend    string       `json:"backend"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []CaseResult `json:"results"`
}

func NewRun(suiteName string, backend string, startedAt time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		SuiteName: suiteName,
		Backend:   backend,
		StartedAt: startedAt,
	}
}

type Summary struct {
	Total          int     `json:"total"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	Errored        int     `json:"errored"`
	SuccessRate    float64 `json:"success_rate"`
	SecurityIssues int     `json:"security_issues"`
	SlowResponses  int     `json:"slow_responses"`
}

func (r Run) Summary() Summary {
	summary := Summary{Total: len(r.Results)}
	for _, result := range r.Results {
		switch result.Status {
		case StatusPass:
			summary.Passed++
		case StatusFail:
			summary.Failed++
		case StatusError:
			summary.Errored++
		}
		summary.SecurityIssues += len(result.SecurityIssues)
		if result.Analysis.Performance == apiclient.PerformanceSlow {
			summary.SlowResponses++
		}
	}
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Passed) / float64(summary.Total)
	}
	return summary
}

func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether every case passed.
func (r Run) Succeeded() bool {
	summary := r.Summary()
	return summary.Failed == 0 && summary.Errored == 0
}

type Writer interface {
	Write(ctx context.Context, run Run) error
}
