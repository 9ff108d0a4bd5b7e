package assets

import (
	"fmt"
	"io"
	"time"
)

// ReportTemplate is the top-level data structure for run report templates
type ReportTemplate struct {
	Title       string
	RunID       string
	Suite       string
	Backend     string
	StartedAt   time.Time
	DurationSec float64
	Summary     ReportSummary
	Cases       []ReportCase
}

type ReportSummary struct {
	Total          int
	Passed         int
	Failed         int
	Errored        int
	SuccessRate    float64
	SecurityIssues int
	SlowResponses  int
}

// ReportCase is a flattened test case result for template rendering
type ReportCase struct {
	Name            string
	Method          string
	Endpoint        string
	Status          string
	Feature         string
	Story           string
	Severity        string
	Tags            []string
	StatusCode      int
	Structure       string
	DataType        string
	FieldsCount     int
	ResponseTimeSec float64
	Performance     string
	Verdict         string
	Feedback        string
	MissingFields   []string
	SecurityIssues  []string
	Scenarios       []string
	Reason          string
	Error           string
}

func WriteReport(output io.Writer, templatePath string, templateData ReportTemplate) error {
	tmpl, err := ParseReportTemplate(templatePath)
	if err != nil {
		return fmt.Errorf("ParseReportTemplate() > %w", err)
	}
	if err := tmpl.Execute(output, templateData); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}
